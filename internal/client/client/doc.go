// Package client contains the client-side building blocks for talking to the
// celar backend.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface):
//     Signup, Login, Refresh, Logout, Transactions and Send.
//  2. A concrete HTTP implementation (see HTTPClient) that encodes JSON
//     requests, attaches the bearer token and maps HTTP status codes to
//     sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Failed requests return an *APIError carrying the status and the server's
// message. It matches one of the sentinels with errors.Is: ErrValidation,
// ErrUnauthorized, ErrForbidden, ErrConflict, ErrServer, and additionally
// ErrPaymentDeclined for a simulated decline. Transport failures match
// ErrUnavailable.
package client
