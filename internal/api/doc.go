// Package api implements the HTTP REST API and WebSocket server for homegraph.
//
// This package provides:
//   - read endpoints for homes, rooms and lights resolved through home.Directory
//   - a light state endpoint that writes power, brightness and hue through
//     the domain adapters and waits for the device outcome
//   - a WebSocket hub broadcasting value changes from the host graph
//   - an audit log of light writes (GET /api/v1/audit) backed by package audit
//   - JWT bearer authentication with single-use WebSocket tickets
//   - the middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Writes
//
// PUT /api/v1/lights/{id}/state applies each requested field in turn and
// stops at the first failure. A write the device never acknowledges maps to
// 504, a rejected write to 502. Fields applied before a failure stay
// applied. Each attempted field is queued for the audit log with the
// token subject and its outcome.
//
// # Security
//
// Every route except /health and /ws requires an HS256 token signed with
// security.jwt.secret. Tokens are minted with IssueToken (the binary's
// "token" subcommand). WebSocket connections authenticate with a ticket
// from POST /auth/ws-ticket so the JWT never appears in a URL.
package api
