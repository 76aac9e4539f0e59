package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/session"
)

const defaultWatchRounds = 5

func (a *App) Market(ctx context.Context, _ []string) error {
	m, err := a.api.Market(ctx)
	if err := a.remote(ctx, err); err != nil {
		return err
	}
	renderMarket(a.out, m)
	return nil
}

func (a *App) Refresh(ctx context.Context, _ []string) error {
	m, err := a.api.RefreshMarket(ctx)
	if err := a.remote(ctx, err); err != nil {
		return err
	}
	renderMarket(a.out, m)
	return nil
}

// Watch prints the market n times, WatchInterval apart. A failed round is
// reported and the watch goes on.
func (a *App) Watch(ctx context.Context, args []string) error {
	rounds := defaultWatchRounds
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: rounds must be a positive number", common.ErrorValidation)
		}
		rounds = n
	}

	for i := 0; i < rounds; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.config.WatchInterval):
			}
		}

		m, err := a.api.Market(ctx)
		if err := a.remote(ctx, err); err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
			if a.auth.Route(session.ScreenMarket) != session.Render {
				return nil
			}
			continue
		}
		fmt.Fprintf(a.out, "[%d/%d]\n", i+1, rounds)
		renderMarket(a.out, m)
	}
	return nil
}
