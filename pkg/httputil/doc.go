// Package httputil provides HTTP helpers shared by the quota API and its
// middleware: JSON responses, error bodies, request parsing and middleware
// chaining.
//
// Error bodies follow the service's error document:
//
//	{"code": 404, "title": "Not Found", "description": "project quotas not found"}
//
// Usage:
//
//	var req SetQuotasRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
//	offset, err := httputil.ParseQueryInt(r, "offset", 0)
//
//	handler := httputil.Chain(
//		httputil.MaxBytesMiddleware(1<<20),
//		httputil.ContentTypeMiddleware,
//	)(router)
package httputil
