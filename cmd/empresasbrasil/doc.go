// Package main hosts the company search service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes company search, count and CSV export over the Receita Federal CNPJ
//     registry, the filter vocabulary, JWT accounts, the lead CRM, Apify scraping runs and Stripe checkout.
//   - Connection mode: the process boots OFFLINE and answers from static reference data and a generated sample.
//     internal/monitor probes the database with SELECT NOW() every 30s (120s after five straight failures) and,
//     once it answers, internal/mode.Switcher opens the pool, checks the registry tables, applies the migrations
//     for the tables this service owns and promotes the state to RAILWAY. The monitor then stops.
//   - Persistence: registry queries, users and CRM leads go to Postgres through pgx while RAILWAY; users and leads
//     fall back to in-memory stores while OFFLINE. The offline login is test@test.com / test123.
//   - Email: Resend, SendGrid and SMTP are tried in that order, with a log-only console provider in development.
//   - Configuration & plumbing: a .env file is loaded first, then Viper reads an optional config file and
//     EMPRESAS_* variables plus the legacy names (DATABASE_URL, PORT, JWT_SECRET, ...). zap provides structured
//     logging; Prometheus metrics are exported on /metrics.
//
// Operational notes:
//   - POST /api/system/reconnect forces an immediate probe and restarts polling if the database is still down.
//   - The process reacts to SIGINT/SIGTERM by draining HTTP for up to 10s, stopping the monitor and closing the pool.
//
// Quick checklist:
//   - Configure DATABASE_URL, JWT_SECRET (required in production), APIFY_API_KEY, STRIPE_SECRET_KEY,
//     STRIPE_WEBHOOK_SECRET, STRIPE_PRICE_{PRO,PREMIUM,MAX} and at least one email provider.
//   - Run locally: go run ./cmd/empresasbrasil -config config.yaml (or rely solely on env overrides).
package main
