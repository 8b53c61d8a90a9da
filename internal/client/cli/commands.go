package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/celar-labs/celar/internal/client/session"
	"github.com/celar-labs/celar/internal/common"
)

// Signup prompts for email, password and role and creates an account.
// The password byte slice is wiped before returning.
func (a *App) Signup(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	role, err := GetSimpleText(a.reader, "Enter role (psp or dev)", a.out)
	if err != nil {
		return err
	}

	id, err := a.auth.Signup(ctx, email, string(password), role)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Account created (id %d). You can now log in.\n", id)
	return nil
}

// Login prompts for credentials and starts a session.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	profile, err := a.auth.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", profile.Email)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	p, ok := a.session.Profile()
	if !ok {
		return session.ErrNotAuthenticated
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Email:\t%s\n", p.Email)
	fmt.Fprintf(tw, "Role:\t%s\n", p.Role)
	fmt.Fprintf(tw, "User ID:\t%d\n", p.UserID)
	fmt.Fprintf(tw, "Session expires:\t%s\n", p.ExpiresAt.Local().Format(time.DateTime))
	return tw.Flush()
}

func (a *App) Balances(ctx context.Context) error {
	balances, err := a.wallet.Balances(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CURRENCY\tAMOUNT")
	for _, b := range balances {
		fmt.Fprintf(tw, "%s\t%s\n", b.Currency, b.Amount.String())
	}
	return tw.Flush()
}

func (a *App) Activity(ctx context.Context) error {
	items, err := a.wallet.RecentActivity(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No recent activity.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDESCRIPTION\tAMOUNT\tSTATUS")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\n",
			it.CreatedAt.Local().Format(time.DateTime), it.Description, it.Amount.String(), it.Currency, it.Status)
	}
	return tw.Flush()
}

func (a *App) Transactions(ctx context.Context) error {
	txs, err := a.wallet.Transactions(ctx)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Fprintln(a.out, "No transactions yet.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tRECIPIENT\tAMOUNT\tCURRENCY")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			tx.Timestamp.Local().Format(time.DateTime), tx.Recipient, tx.Amount.String(), tx.Currency)
	}
	return tw.Flush()
}

// Send takes recipient, amount and currency from args, or prompts for them
// when args does not hold exactly three values.
func (a *App) Send(ctx context.Context, args []string) error {
	var recipient, amount, currency string
	if len(args) == 3 {
		recipient, amount, currency = args[0], args[1], args[2]
	} else {
		var err error
		if recipient, err = GetSimpleText(a.reader, "Recipient", a.out); err != nil {
			return err
		}
		if amount, err = GetSimpleText(a.reader, "Amount", a.out); err != nil {
			return err
		}
		if currency, err = GetSimpleText(a.reader, "Currency", a.out); err != nil {
			return err
		}
	}

	id, err := a.wallet.Send(ctx, recipient, amount, currency)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Payment sent successfully (transaction %d).\n", id)
	return nil
}
