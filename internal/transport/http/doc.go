// Package http contains the chi HTTP handlers of the analytics API.
//
// Each dashboard area gets its own handler type with a Routes() method
// returning a chi.Router, mounted under /api/v1 by the application
// container. Handlers depend on narrow service interfaces declared in
// service_interfaces.go and map service errors to RFC 7807 style
// responses through the shared error handler.
package http
