package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/filex"
	"github.com/dmitrijs2005/cryptoex/internal/netx"
	"github.com/dmitrijs2005/cryptoex/internal/wire"
)

func (a *App) Profile(ctx context.Context, _ []string) error {
	p, err := a.api.Profile(ctx)
	if err := a.remote(ctx, err); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "email: %s\nname:  %s\n", p.Email, p.DisplayName)
	return nil
}

func (a *App) DisplayName(ctx context.Context, args []string) error {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		var err error
		if name, err = getSimpleText(a.reader, "Enter display name", a.out); err != nil {
			return err
		}
	}

	p, err := a.api.UpdateDisplayName(ctx, name)
	if err := a.remote(ctx, err); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Display name set to %q\n", p.DisplayName)
	return nil
}

// ChangePin asks for the current PIN and the new one twice. The server
// checks all three.
func (a *App) ChangePin(ctx context.Context, _ []string) error {
	prompts := []string{"Current PIN: ", "New PIN: ", "Repeat new PIN: "}
	values := make([][]byte, 0, len(prompts))
	defer func() {
		for _, v := range values {
			common.WipeByteArray(v)
		}
	}()

	for _, p := range prompts {
		v, err := getSecret(a.out, p)
		if err != nil {
			return err
		}
		values = append(values, v)
	}

	err := a.api.ChangePin(ctx, string(values[0]), string(values[1]), string(values[2]))
	if err := a.remote(ctx, err); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "PIN changed.")
	return nil
}

// Statement exports the history and prints the link. With "save" the CSV
// is also downloaded into the configured directory.
func (a *App) Statement(ctx context.Context, args []string) error {
	save := len(args) > 0 && args[0] == "save"
	if len(args) > 0 && !save {
		return fmt.Errorf("%w: usage: statement [save]", common.ErrorValidation)
	}

	st, err := a.api.ExportStatement(ctx)
	if err := a.remote(ctx, err); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Statement with %d transactions is ready until %s:\n%s\n", st.Rows, when(st.ExpiresAt), st.URL)

	if !save {
		return nil
	}
	return a.saveStatement(ctx, st)
}

func (a *App) saveStatement(ctx context.Context, st wire.Statement) error {
	name := st.Key
	if name == "" {
		name = "statement.csv"
	}

	f, err := filex.CreateIn(a.config.DownloadDir, name)
	if err != nil {
		return err
	}

	n, err := netx.DownloadPresignedURL(ctx, st.URL, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return err
	}

	a.logger.Debug(ctx, "statement saved", "path", f.Name(), "bytes", n)
	fmt.Fprintf(a.out, "Saved %d bytes to %s\n", n, f.Name())
	return nil
}
