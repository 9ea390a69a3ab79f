// Package api hosts the HTTP server, middleware, and REST handlers used by
// the web client. Notable routes:
//   - GET /healthz / readyz for platform probes.
//   - GET /metrics for Prometheus scraping.
//   - /api/filters and /api/companies for registry search, count and CSV export.
//   - /api/system for connection mode status and manual reconnects.
//   - /api/auth for JWT login, registration and password management.
//   - /api/apify and /api/instagram proxy the scraping actors.
//   - /api/crm for the lead board, behind bearer authentication.
//   - /api/stripe for checkout sessions and the payment webhook.
package api
