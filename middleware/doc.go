// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request IDs and Logging

WithRequestID accepts a UUID in X-Request-ID or assigns a new one, and
WithLogging includes it in every request log line:

	mux.HandleFunc("POST /draw", middleware.WithLogging(drawHandler.Draw))
	handler := middleware.WithRequestID(middleware.CORS(mux))

# CORS Middleware

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Admin-Key, X-Entry-Token, X-Request-ID.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

ParseJSONBody caps bodies at MaxBodyBytes.

# Client IP Extraction

GetClientIP honours X-Forwarded-For and X-Real-IP. The result is only
ever stored hashed.
*/
package middleware
