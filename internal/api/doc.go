// Package api contains the HTTP handlers, request/response models and
// error mapping for the task lifecycle service. Handlers depend on the
// service layer through small interfaces, extract the acting user from
// the request context and translate service errors into sanitized HTTP
// responses.
package api
