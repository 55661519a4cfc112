// Package http implements the HTTP request handlers of the kpipulse service.
// Handlers stay thin: they read the upload, validate query parameters,
// call a service and render the response.
//
// # Routes
//
//	POST /api/v1/dashboard          full pipeline result for a CSV upload
//	POST /api/v1/dashboard/cards    metric and total cards (?month=)
//	POST /api/v1/dashboard/export   CSV or XLSX export (?format=&table=&month=&display=)
//	GET  /api/health[/ready|/live]  probes
//	GET  /api/version               build information
//	GET  /metrics                   Prometheus scrape endpoint
//
// Uploads are either a raw text/csv (or text/plain) body or a
// multipart/form-data request with the file in the "file" field.
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details and are written through
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/not-found",
//	    "title": "Data Not Found",
//	    "status": 404,
//	    "detail": "no data for month \"June\"",
//	    "instance": "/api/v1/dashboard/cards",
//	    "month": "June"
//	}
//
// # Testing
//
// Handlers are tested with httptest against a testify mock of
// DashboardServiceInterface.
package http
