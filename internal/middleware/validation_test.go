package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "kpipulse/internal/errors"
	"kpipulse/internal/shared/testutil"
)

type exportQuery struct {
	Format string `query:"format" validate:"required,oneof=csv xlsx json"`
	Month  string `query:"month" validate:"omitempty,calendar_month"`
	Total  string `query:"total" validate:"omitempty,total_target"`
}

func TestNewValidator(t *testing.T) {
	var v *validator.Validate
	require.NotPanics(t, func() { v = NewValidator() })

	tests := []struct {
		name  string
		value string
		tag   string
		valid bool
	}{
		{"calendar month", "March", "calendar_month", true},
		{"lower-case month", "march", "calendar_month", false},
		{"total target", "Organic Total Sessions:sum", "total_target", true},
		{"unknown mode", "Organic Total Sessions:median", "total_target", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Var(tt.value, tt.tag)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidationMiddleware_ValidateStruct(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	m := NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))

	tests := []struct {
		name       string
		input      exportQuery
		wantFields []string
	}{
		{name: "valid", input: exportQuery{Format: "csv", Month: "May", Total: "Engagement Rate:mean"}},
		{name: "missing format", input: exportQuery{}, wantFields: []string{"format"}},
		{name: "bad month and target", input: exportQuery{Format: "xlsx", Month: "may", Total: "Revenue:median"}, wantFields: []string{"month", "total"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ValidateStruct(tt.input)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			apiErr, ok := err.(*apierrors.APIError)
			require.True(t, ok)
			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)

			var fields []string
			for _, fe := range details.Errors {
				fields = append(fields, fe.Field)
				assert.NotEmpty(t, fe.Message)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestContentTypeValidator(t *testing.T) {
	errorHandler := apierrors.NewErrorHandler(nil, false)
	handler := ContentTypeValidator(errorHandler, "text/csv", "text/plain")(http.HandlerFunc(okHandler))

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{name: "csv upload", method: http.MethodPost, contentType: "text/csv; charset=utf-8", wantStatus: http.StatusOK},
		{name: "plain text upload", method: http.MethodPost, contentType: "TEXT/PLAIN", wantStatus: http.StatusOK},
		{name: "json rejected", method: http.MethodPost, contentType: "application/json", wantStatus: http.StatusUnsupportedMediaType},
		{name: "missing content type", method: http.MethodPost, contentType: "", wantStatus: http.StatusBadRequest},
		{name: "get skips check", method: http.MethodGet, contentType: "", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/dashboard", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestQueryParamValidator(t *testing.T) {
	v := NewQueryParamValidator(nil, apierrors.NewErrorHandler(nil, false))

	t.Run("enum", func(t *testing.T) {
		tests := []struct {
			query  string
			want   string
			wantOK bool
		}{
			{query: "", want: "csv", wantOK: true},
			{query: "?format=XLSX", want: "xlsx", wantOK: true},
			{query: "?format=pdf", want: "", wantOK: false},
		}
		for _, tt := range tests {
			w := httptest.NewRecorder()
			got, ok := v.ValidateEnum(w, httptest.NewRequest(http.MethodGet, "/export"+tt.query, nil), "format", []string{"csv", "xlsx"}, "csv")
			assert.Equal(t, tt.want, got, tt.query)
			assert.Equal(t, tt.wantOK, ok, tt.query)
			if !ok {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		}
	})

	t.Run("month", func(t *testing.T) {
		tests := []struct {
			query  string
			want   string
			wantOK bool
		}{
			{query: "", want: "", wantOK: true},
			{query: "?month=may", want: "May", wantOK: true},
			{query: "?month=Sept", want: "", wantOK: false},
		}
		for _, tt := range tests {
			w := httptest.NewRecorder()
			got, ok := v.ValidateMonth(w, httptest.NewRequest(http.MethodGet, "/cards"+tt.query, nil), "month")
			assert.Equal(t, tt.want, got, tt.query)
			assert.Equal(t, tt.wantOK, ok, tt.query)
		}
	})
}
