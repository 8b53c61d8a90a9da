// Package cli provides the interactive celar command-line wallet.
//
// It wires configuration, local storage, the session manager, API services
// and a read-eval-print loop. A saved session is restored on start, so a
// user who logged in earlier lands straight in the authenticated prompt.
//
// Commands:
//   - signup / login / logout
//   - profile, balances, activity
//   - transactions, send [recipient amount currency]
//   - help, exit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
