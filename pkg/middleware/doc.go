// Package middleware provides HTTP middleware for request identification,
// project resolution and quota enforcement.
//
// # Middleware Ordering
//
// Enforcement depends on the project resolved earlier in the chain.
//
// REQUIRED ORDERING (outer to inner):
//  1. RequestID - Sets the request id and request logger
//  2. Recovery - Turns handler panics into 500 responses
//  3. ProjectContext - Resolves X-Project-Id to a quotas.Project
//  4. EnforceQuota - Reserves quota for one new resource
//
// Example:
//
//	router.Use(middleware.RequestID(logger), middleware.Recovery(logger))
//	tenant := router.PathPrefix("/v1/orders").Subrouter()
//	tenant.Use(middleware.ProjectContext(projects))
//	tenant.Handle("", middleware.EnforceQuota(enforcer, quotas.ResourceOrders)(createOrder)).
//		Methods(http.MethodPost)
//
// EnforceQuota rejects requests with no project in context instead of
// skipping the check.
package middleware
