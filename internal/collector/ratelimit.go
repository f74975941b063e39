package collector

import (
	"context"

	"MarketScreener/internal/model"

	"golang.org/x/time/rate"
)

// RateLimited throttles every call to the wrapped provider with a token bucket,
// whatever the caller's concurrency.
type RateLimited struct {
	next    MarketData
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond calls on average with the given burst.
// A non-positive perSecond disables limiting.
func NewRateLimited(next MarketData, perSecond float64, burst int) *RateLimited {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (r *RateLimited) Name() string { return r.next.Name() }

func (r *RateLimited) FetchPriceSeries(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, unavailable(r.Name(), symbol, "rate limiter", err)
	}
	return r.next.FetchPriceSeries(ctx, symbol, days)
}

func (r *RateLimited) FetchProfile(ctx context.Context, symbol string) (*model.IssuerProfile, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, unavailable(r.Name(), symbol, "rate limiter", err)
	}
	return r.next.FetchProfile(ctx, symbol)
}
