// Package universe lists the ticker symbols a screening run iterates over.
package universe

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"
)

// Provider lists unique, normalized ticker symbols.
type Provider interface {
	ListSymbols(ctx context.Context) ([]string, error)
	Name() string
}

// Listing is one security as reported by a source.
type Listing struct {
	Symbol   string
	Name     string
	Sector   string
	Exchange string
	ETF      bool
}

// DefaultSymbols is the fallback universe of large caps.
var DefaultSymbols = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "BRK-B", "V", "JNJ",
	"WMT", "JPM", "MA", "PG", "UNH", "HD", "DIS", "BAC", "ADBE", "CRM",
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9-]+$`)

// NormalizeSymbol trims and uppercases a ticker and uses '-' as the share-class separator.
func NormalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.ReplaceAll(s, ".", "-")
}

// ValidSymbol rejects malformed tickers and test issues.
func ValidSymbol(s string) bool {
	if s == "" || len(s) > 6 {
		return false
	}
	if strings.HasPrefix(s, "TEST") {
		return false
	}
	return symbolPattern.MatchString(s)
}

// Normalize normalizes, validates and deduplicates symbols, keeping first-seen order.
func Normalize(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		n := NormalizeSymbol(s)
		if !ValidSymbol(n) || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

var etfKeywords = []string{"ETF", "FUND", "TRUST", "INDEX", "SPDR", "ISHARES", "VANGUARD"}

// IsFund reports whether a listing looks like an ETF or fund.
func IsFund(l Listing) bool {
	if l.ETF {
		return true
	}
	name := strings.ToUpper(l.Name)
	for _, kw := range etfKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// Symbols extracts the tickers of listings, optionally dropping funds.
func Symbols(listings []Listing, excludeFunds bool) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		if excludeFunds && IsFund(l) {
			continue
		}
		out = append(out, l.Symbol)
	}
	return Normalize(out)
}

// Static serves a fixed list.
type Static struct {
	Symbols []string
}

func (s *Static) Name() string { return "static" }

func (s *Static) ListSymbols(_ context.Context) ([]string, error) {
	if len(s.Symbols) == 0 {
		return Normalize(DefaultSymbols), nil
	}
	return Normalize(s.Symbols), nil
}

// Combined merges several providers. A failing provider is logged and skipped;
// the call fails only when every provider fails.
type Combined struct {
	Providers []Provider
}

func (c *Combined) Name() string { return "combined" }

func (c *Combined) ListSymbols(ctx context.Context) ([]string, error) {
	var all []string
	var lastErr error
	ok := 0
	for _, p := range c.Providers {
		symbols, err := p.ListSymbols(ctx)
		if err != nil {
			log.Warn().Err(err).Str("source", p.Name()).Msg("symbol source failed")
			lastErr = err
			continue
		}
		ok++
		all = append(all, symbols...)
	}
	if ok == 0 && lastErr != nil {
		return nil, lastErr
	}
	return Normalize(all), nil
}

// Cached memoizes a provider's list for TTL.
type Cached struct {
	Next Provider
	TTL  time.Duration

	mu      sync.Mutex
	symbols []string
	expires time.Time
	now     func() time.Time
}

// NewCached wraps next with a TTL cache.
func NewCached(next Provider, ttl time.Duration) *Cached {
	return &Cached{Next: next, TTL: ttl, now: time.Now}
}

func (c *Cached) Name() string { return c.Next.Name() }

func (c *Cached) ListSymbols(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.symbols != nil && c.now().Before(c.expires) {
		return append([]string(nil), c.symbols...), nil
	}
	symbols, err := c.Next.ListSymbols(ctx)
	if err != nil {
		return nil, err
	}
	c.symbols = symbols
	c.expires = c.now().Add(c.TTL)
	log.Info().Str("source", c.Next.Name()).Int("symbols", len(symbols)).Msg("symbol universe refreshed")
	return append([]string(nil), symbols...), nil
}
