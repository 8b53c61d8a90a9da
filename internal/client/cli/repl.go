package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/celar-labs/celar/internal/client/client"
	"github.com/celar-labs/celar/internal/client/services"
	"github.com/celar-labs/celar/internal/client/session"
	"github.com/celar-labs/celar/internal/common"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	Balances(ctx context.Context) error
	Activity(ctx context.Context) error
	Transactions(ctx context.Context) error
	Send(ctx context.Context, args []string) error
}

// runREPL reads one command per line from reader and dispatches it to a.
// Commands that need a session are refused while signed out. Errors from
// handlers are printed and the loop continues. It returns on EOF, "exit"
// or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "celar %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: profile, balances, activity, transactions, send, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: signup, login, exit")
			}

		case "signup", "register":
			cmdErr = a.Signup(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "logout", "profile", "balances", "activity", "transactions", "tx", "send":
			if !a.isLoggedIn() {
				fmt.Fprintln(w, "Please log in first.")
				continue
			}
			switch cmd {
			case "logout":
				cmdErr = a.Logout(ctx)
			case "profile":
				cmdErr = a.Profile(ctx)
			case "balances":
				cmdErr = a.Balances(ctx)
			case "activity":
				cmdErr = a.Activity(ctx)
			case "transactions", "tx":
				cmdErr = a.Transactions(ctx)
			case "send":
				cmdErr = a.Send(ctx, args)
			}

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(w, describeError(cmdErr))
		}
	}
}

// describeError turns an error into the line shown to the user.
func describeError(err error) string {
	var ve *common.ValidationError
	var apiErr *client.APIError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, services.ErrSessionExpired):
		return "Your session has expired. Please log in again."
	case errors.Is(err, session.ErrNotAuthenticated):
		return "Please log in first."
	case errors.Is(err, client.ErrPaymentDeclined):
		return "Payment failed. Please try again."
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable. Check your connection and try again."
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	default:
		return "Error: " + err.Error()
	}
}
