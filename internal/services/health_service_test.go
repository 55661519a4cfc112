package services

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpipulse/internal/shared/testutil"
)

func TestHealthService(t *testing.T) {
	ctx := context.Background()
	info := BuildInfo{Version: "1.2.3", BuildTime: "2026-01-01T00:00:00Z", BuildID: "abc123"}

	t.Run("HealthCheck", func(t *testing.T) {
		hs := NewHealthService(info, "", nil)
		status := hs.HealthCheck(ctx)

		assert.Equal(t, "ok", status.Status)
		assert.Equal(t, "1.2.3", status.Version)
		assert.False(t, status.Timestamp.IsZero())
	})

	t.Run("LivenessCheck", func(t *testing.T) {
		hs := NewHealthService(info, "", nil)
		status := hs.LivenessCheck(ctx)

		assert.Equal(t, "alive", status.Status)
		assert.Equal(t, runtime.Version(), status.Runtime["go_version"])
		assert.Contains(t, status.Runtime, "goroutines")
	})

	t.Run("Version", func(t *testing.T) {
		hs := NewHealthService(info, "", nil)
		v := hs.Version()

		assert.Equal(t, "1.2.3", v["version"])
		assert.Equal(t, "abc123", v["build_id"])
		assert.Equal(t, runtime.GOOS, v["os"])
		assert.Equal(t, "v1", v["data_format"])
		assert.NotContains(t, v, "repo_url")
	})
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	ctx := context.Background()

	blocked := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0644))

	tests := []struct {
		name       string
		exportDir  string
		wantStatus string
		wantExport string
	}{
		{"no export dir", "", "ready", "ready"},
		{"writable export dir", filepath.Join(t.TempDir(), "exports"), "ready", "ready"},
		{"export dir under a file", filepath.Join(blocked, "exports"), "not_ready", "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, handler := testutil.NewTestLogger(t)
			hs := NewHealthService(BuildInfo{Version: "dev"}, tt.exportDir, logger)

			status := hs.ReadinessCheck(ctx)

			assert.Equal(t, tt.wantStatus, status.Status)
			require.Contains(t, status.Services, "pipeline")
			assert.Equal(t, "ready", status.Services["pipeline"].(ServiceHealth).Status)
			assert.Equal(t, tt.wantExport, status.Services["exports"].(ServiceHealth).Status)
			if tt.wantStatus == "not_ready" {
				assert.True(t, handler.ContainsMessage("service not ready"))
			}
		})
	}
}
