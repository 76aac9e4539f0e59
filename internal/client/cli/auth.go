package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cryptoex/internal/common"
)

func (a *App) credentials(args []string) (string, []byte, error) {
	email := ""
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
			return "", nil, err
		}
	}

	password, err := getSecret(a.out, "Enter password: ")
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// SignUp creates an account and opens a PIN-unverified session.
func (a *App) SignUp(ctx context.Context, args []string) error {
	email, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.remote(ctx, a.auth.SignUp(ctx, email, password)); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Account created. Your PIN is %s until you change it; verify it with: pin\n", common.DefaultPin)
	return nil
}

func (a *App) SignIn(ctx context.Context, args []string) error {
	email, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.remote(ctx, a.auth.SignIn(ctx, email, password)); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Signed in. Verify your PIN with: pin")
	return nil
}

// VerifyPin reads the PIN without echo. A wrong PIN keeps the session
// unverified so the user can retry.
func (a *App) VerifyPin(ctx context.Context, _ []string) error {
	pin, err := getSecret(a.out, "Enter PIN: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pin)

	if err := a.remote(ctx, a.auth.VerifyPin(ctx, pin)); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "PIN verified.")
	return nil
}

func (a *App) Session(ctx context.Context, _ []string) error {
	st := a.auth.Status()
	email := a.auth.Email()
	if email == "" {
		email = "-"
	}
	fmt.Fprintf(a.out, "user:  %s\nstate: %s\nmode:  %s\n", email, st.State, a.Mode())
	return nil
}

func (a *App) SignOut(ctx context.Context, _ []string) error {
	if err := a.auth.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}
