// Package api exposes the taskboard services over HTTP using fiber.
//
// Every response, successful or not, is rendered in the same envelope:
//
//	{"success": bool, "message": string, "data": any, "errors": [string]}
//
// Request payloads are validated before any service is called. Failures are
// returned as go-errors values and rendered by ErrorHandler.
package api
