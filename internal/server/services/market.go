package services

import (
	"context"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/pricefeed"
)

// Feed is the poller as seen by the market service.
type Feed interface {
	PriceSource
	Refresh(ctx context.Context) (*pricefeed.Set, error)
	Subscribe() (<-chan *pricefeed.Set, func())
}

type MarketService struct {
	feed Feed
}

func NewMarketService(feed Feed) *MarketService {
	return &MarketService{feed: feed}
}

// Snapshot returns the latest set, which may be stale.
func (s *MarketService) Snapshot(_ context.Context) (*pricefeed.Set, error) {
	set := s.feed.Current()
	if set == nil {
		return nil, common.ErrorFeedUnavailable
	}
	return set, nil
}

// Refresh fetches now. A failed fetch still succeeds when an older set
// exists; that set comes back with Stale set.
func (s *MarketService) Refresh(ctx context.Context) (*pricefeed.Set, error) {
	set, err := s.feed.Refresh(ctx)
	if set != nil {
		return set, nil
	}
	return nil, err
}

// Watch streams every new set until the returned cancel func is called.
func (s *MarketService) Watch() (<-chan *pricefeed.Set, func()) {
	return s.feed.Subscribe()
}
