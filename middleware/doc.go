// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, client IP) and completion (duration_ms).

# Authentication

Agent routes take the agent API key as a bearer token:

	mux.HandleFunc("POST /elections/{id}/commit",
		middleware.RequireAgent(engine, votingHandler.Commit))

The handler reads the agent back from the request context:

	agent, ok := middleware.AgentFromContext(r.Context())

Admin routes take the configured admin secret as a bearer token:

	mux.HandleFunc("POST /elections", middleware.RequireAdmin(cfg.AdminSecret, h.Create))

# CORS Middleware

Enable cross-origin requests:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, OPTIONS with headers Content-Type, Authorization.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.IssuesResponse(w, http.StatusForbidden, "not eligible", issues)

Parse JSON request bodies:

	var req models.CommitRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used in request and authentication failure logs.
*/
package middleware
