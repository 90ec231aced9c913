// Package backend provides the Circleup API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/suggest: Follow-suggestion scoring and ranking
// - internal/database: Database connection and migrations
// - internal/cache: Redis-backed suggestion response cache
// - internal/middleware: HTTP middleware (request IDs, metrics)
// - internal/seed: Development and test data seeding

// See the individual package documentation for detailed API reference.
package backend
