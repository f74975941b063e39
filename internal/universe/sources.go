package universe

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	sp500URL        = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"
	nasdaqListedURL = "https://www.nasdaqtrader.com/dynamic/symdir/nasdaqlisted.txt"
)

func defaultClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func get(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}

// SP500 scrapes index constituents from the Wikipedia list.
type SP500 struct {
	URL    string
	Client *http.Client
}

// NewSP500 creates a scraper for the public constituents page.
func NewSP500() *SP500 {
	return &SP500{URL: sp500URL, Client: defaultClient()}
}

func (s *SP500) Name() string { return "sp500" }

// Listings returns every constituent row of the page.
func (s *SP500) Listings(ctx context.Context) ([]Listing, error) {
	body, err := get(ctx, s.Client, s.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse sp500 page: %w", err)
	}
	var listings []Listing
	doc.Find("table#constituents tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return // header row
		}
		l := Listing{
			Symbol: NormalizeSymbol(cells.Eq(0).Text()),
			Name:   strings.TrimSpace(cells.Eq(1).Text()),
		}
		if cells.Length() > 2 {
			l.Sector = strings.TrimSpace(cells.Eq(2).Text())
		}
		listings = append(listings, l)
	})
	if len(listings) == 0 {
		return nil, fmt.Errorf("sp500 page: constituents table not found")
	}
	return listings, nil
}

func (s *SP500) ListSymbols(ctx context.Context) ([]string, error) {
	listings, err := s.Listings(ctx)
	if err != nil {
		return nil, err
	}
	return Symbols(listings, false), nil
}

// Nasdaq reads the Nasdaq Trader pipe-delimited listing:
//
//	Symbol|Security Name|Market Category|Test Issue|Financial Status|Round Lot Size|ETF|NextShares
type Nasdaq struct {
	URL         string
	Client      *http.Client
	IncludeETFs bool
}

// NewNasdaq creates a reader for the public Nasdaq-listed file.
func NewNasdaq(includeETFs bool) *Nasdaq {
	return &Nasdaq{URL: nasdaqListedURL, Client: defaultClient(), IncludeETFs: includeETFs}
}

func (n *Nasdaq) Name() string { return "nasdaq" }

// ParseNasdaqListed parses the listing file, dropping test issues, non-normal
// financial status and symbols longer than five characters.
func ParseNasdaqListed(r io.Reader) ([]Listing, error) {
	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var listings []Listing
	header := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse nasdaq listing: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(rec) < 7 {
			continue // footer: "File Creation Time: ..."
		}
		symbol := strings.TrimSpace(rec[0])
		name := strings.TrimSpace(rec[1])
		testIssue := strings.TrimSpace(rec[3]) == "Y"
		status := strings.TrimSpace(rec[4])
		if symbol == "" || name == "" || testIssue {
			continue
		}
		if len(symbol) > 5 || (status != "" && status != "N") {
			continue
		}
		listings = append(listings, Listing{
			Symbol:   NormalizeSymbol(symbol),
			Name:     name,
			Exchange: "NASDAQ",
			ETF:      strings.TrimSpace(rec[6]) == "Y",
		})
	}
	return listings, nil
}

func (n *Nasdaq) ListSymbols(ctx context.Context) ([]string, error) {
	body, err := get(ctx, n.Client, n.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	listings, err := ParseNasdaqListed(body)
	if err != nil {
		return nil, err
	}
	return Symbols(listings, !n.IncludeETFs), nil
}

// AssetLister lists tradable symbols of a brokerage account.
type AssetLister interface {
	TradableSymbols(ctx context.Context) ([]string, error)
}

// Brokerage lists tradable assets of a broker such as Alpaca.
type Brokerage struct {
	Lister AssetLister
}

func (b *Brokerage) Name() string { return "brokerage" }

func (b *Brokerage) ListSymbols(ctx context.Context) ([]string, error) {
	symbols, err := b.Lister.TradableSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tradable assets: %w", err)
	}
	return Normalize(symbols), nil
}
