// Package http implements the HTTP handlers of the dataset analysis service.
// Handlers stay thin: they parse the multipart request, call the service
// layer and format the response.
//
// # Routes
//
//	GET  /                           HTML form
//	POST /                           HTML form submit
//	GET  /api/v1/analysis/options    option catalogue
//	POST /api/v1/datasets/preview    shape, column kinds, first rows
//	POST /api/v1/datasets/describe   describe table (?format=json|csv|xlsx)
//	POST /api/v1/datasets/preprocess processed table (?format=json|csv|xlsx)
//	POST /api/v1/analysis/run        full analysis run
//	GET  /api/health[/live|/ready]   probes
//	GET  /api/version                build information
//	GET  /metrics                    Prometheus exposition
//
// # Error Handling
//
// API errors follow RFC 7807 Problem Details and are written by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/dataset/unprocessable",
//	    "title": "Unprocessable Entity",
//	    "status": 422,
//	    "detail": "The uploaded file could not be processed",
//	    "instance": "/api/v1/datasets/preview"
//	}
//
// The HTML form shows the same failures inline on the page instead.
package http
