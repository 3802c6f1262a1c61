package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
)

// StatusTrading is the instrument status of a tradable symbol
const StatusTrading = "Trading"

// Instrument is the part of the instrument info the wizard checks
type Instrument struct {
	Symbol      string
	Status      string
	BaseCoin    string
	QuoteCoin   string
	MinOrderQty float64
	MinNotional float64
}

// Tradable reports whether the instrument currently accepts orders
func (i Instrument) Tradable() bool {
	return i.Status == StatusTrading
}

// InstrumentFetcher looks up one instrument; nil with no error means the
// symbol is not listed.
type InstrumentFetcher interface {
	FetchInstrument(ctx context.Context, category, symbol string) (*Instrument, error)
}

// FetchInstrument queries the instrument info endpoint for symbol
func (c *Client) FetchInstrument(ctx context.Context, category, symbol string) (*Instrument, error) {
	params := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetInstrumentInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch instrument info: %w", err)
	}

	instruments, err := parseInstruments(result)
	if err != nil {
		return nil, fmt.Errorf("failed to parse instrument info: %w", err)
	}

	for i := range instruments {
		if instruments[i].Symbol == symbol {
			return &instruments[i], nil
		}
	}
	return nil, nil
}

type instrumentList struct {
	Category string `json:"category"`
	List     []struct {
		Symbol        string `json:"symbol"`
		Status        string `json:"status"`
		BaseCoin      string `json:"baseCoin"`
		QuoteCoin     string `json:"quoteCoin"`
		LotSizeFilter struct {
			MinOrderQty      string `json:"minOrderQty"`
			MinNotionalValue string `json:"minNotionalValue"`
			MinOrderAmt      string `json:"minOrderAmt"`
		} `json:"lotSizeFilter"`
	} `json:"list"`
}

// parseInstruments converts a raw instrument info response
func parseInstruments(response interface{}) ([]Instrument, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("invalid response type %T", response)
	}
	if serverResp.RetCode != 0 {
		return nil, fmt.Errorf("API error: %s (code: %d)", serverResp.RetMsg, serverResp.RetCode)
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	var list instrumentList
	if err := json.Unmarshal(resultBytes, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal instrument result: %w", err)
	}

	out := make([]Instrument, 0, len(list.List))
	for _, item := range list.List {
		minNotional := parseFloat64(item.LotSizeFilter.MinNotionalValue)
		if minNotional == 0 {
			// spot instruments report the minimum order value as minOrderAmt
			minNotional = parseFloat64(item.LotSizeFilter.MinOrderAmt)
		}
		out = append(out, Instrument{
			Symbol:      item.Symbol,
			Status:      item.Status,
			BaseCoin:    item.BaseCoin,
			QuoteCoin:   item.QuoteCoin,
			MinOrderQty: parseFloat64(item.LotSizeFilter.MinOrderQty),
			MinNotional: minNotional,
		})
	}
	return out, nil
}

func parseFloat64(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// SymbolVerifier checks draft symbols against the exchange listing and
// caches lookups for the session.
type SymbolVerifier struct {
	fetcher  InstrumentFetcher
	category string

	mutex       sync.RWMutex
	instruments map[string]*Instrument
	fetchedAt   map[string]time.Time
	ttl         time.Duration
}

// NewSymbolVerifier creates a verifier for the given category (linear, spot...)
func NewSymbolVerifier(fetcher InstrumentFetcher, category string) *SymbolVerifier {
	if category == "" {
		category = "linear"
	}
	return &SymbolVerifier{
		fetcher:     fetcher,
		category:    category,
		instruments: make(map[string]*Instrument),
		fetchedAt:   make(map[string]time.Time),
		ttl:         time.Hour,
	}
}

func (v *SymbolVerifier) lookup(ctx context.Context, symbol string) (*Instrument, error) {
	v.mutex.RLock()
	inst, ok := v.instruments[symbol]
	fresh := ok && time.Since(v.fetchedAt[symbol]) < v.ttl
	v.mutex.RUnlock()
	if fresh {
		return inst, nil
	}

	inst, err := v.fetcher.FetchInstrument(ctx, v.category, symbol)
	if err != nil {
		return nil, err
	}

	v.mutex.Lock()
	v.instruments[symbol] = inst
	v.fetchedAt[symbol] = time.Now()
	v.mutex.Unlock()
	return inst, nil
}

// Verify returns one issue per symbol that cannot be traded with the given
// per-order amount. A lookup failure aborts the check with an error.
func (v *SymbolVerifier) Verify(ctx context.Context, symbols []string, orderAmount float64) ([]string, error) {
	var issues []string
	for _, raw := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == "" {
			continue
		}

		inst, err := v.lookup(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", symbol, err)
		}

		switch {
		case inst == nil:
			issues = append(issues, fmt.Sprintf("symbol %s is not listed on bybit %s", symbol, v.category))
		case !inst.Tradable():
			issues = append(issues, fmt.Sprintf("symbol %s is not trading (status: %s)", symbol, inst.Status))
		case inst.MinNotional > 0 && orderAmount > 0 && orderAmount < inst.MinNotional:
			issues = append(issues, fmt.Sprintf("base amount %.2f is below the minimum order value %.2f for %s",
				orderAmount, inst.MinNotional, symbol))
		}
	}
	return issues, nil
}
