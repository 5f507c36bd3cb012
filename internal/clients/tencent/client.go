// Package tencent provides real-time A-share quote snapshots from the
// Tencent quote endpoint (qt.gtimg.cn). This is a best-effort collaborator:
// the planning and ledger core never depend on it being reachable.
package tencent

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrInvalidCode is returned for codes that are not 6 numeric digits.
	ErrInvalidCode = errors.New("instrument code must be 6 digits")
	// ErrQuoteNotFound is returned when the endpoint answers but carries no
	// quote for the code (delisted, suspended, typo).
	ErrQuoteNotFound = errors.New("quote not found")
)

// Quote is a single real-time snapshot for one instrument.
type Quote struct {
	Name          string  `json:"name"`
	Code          string  `json:"code"`
	Price         float64 `json:"price"`
	PercentChange float64 `json:"percent_change"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	Volume        float64 `json:"volume"` // hands (lots of 100)
}

// Client fetches quotes from the Tencent endpoint.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a quote client. The endpoint must answer fast or not at
// all: the timeout is a hard 2 seconds.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "http://qt.gtimg.cn"
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 2 * time.Second},
		log:     log.With().Str("client", "tencent-quotes").Logger(),
	}
}

// GetQuote fetches the current snapshot for a 6-digit instrument code.
func (c *Client) GetQuote(code string) (*Quote, error) {
	if !validCode(code) {
		return nil, ErrInvalidCode
	}

	symbol := marketPrefix(code) + code
	url := fmt.Sprintf("%s/q=%s", c.baseURL, symbol)

	resp, err := c.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read quote response: %w", err)
	}

	quote, err := ParseQuotePayload(symbol, string(body))
	if err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("code", quote.Code).
		Float64("price", quote.Price).
		Msg("Quote fetched")

	return quote, nil
}

// marketPrefix routes a code to its exchange: first digit 5/6/9 trades in
// Shanghai, everything else in Shenzhen.
func marketPrefix(code string) string {
	switch code[0] {
	case '5', '6', '9':
		return "sh"
	default:
		return "sz"
	}
}

func validCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseQuotePayload parses the endpoint's response format:
//
//	v_sh600519="1~贵州茅台~600519~1530.00~...";
//
// a single JS assignment whose value is a ~-separated field list. Field
// positions follow the endpoint's fixed layout: 1 name, 2 code, 3 price,
// 5 open, 32 percent change, 33 high, 34 low, 36 volume in hands.
func ParseQuotePayload(symbol, payload string) (*Quote, error) {
	marker := "v_" + symbol + "="
	if !strings.Contains(payload, marker) || len(payload) < 50 {
		return nil, ErrQuoteNotFound
	}

	parts := strings.Split(payload, `"`)
	if len(parts) < 2 {
		return nil, ErrQuoteNotFound
	}
	fields := strings.Split(parts[1], "~")
	if len(fields) < 37 {
		return nil, fmt.Errorf("quote payload too short: %d fields", len(fields))
	}

	price, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quote price %q: %w", fields[3], err)
	}

	quote := &Quote{
		Name:          fields[1],
		Code:          fields[2],
		Price:         price,
		PercentChange: parseFloatOrZero(fields[32]),
		High:          parseFloatOrZero(fields[33]),
		Low:           parseFloatOrZero(fields[34]),
		Open:          parseFloatOrZero(fields[5]),
		Volume:        parseFloatOrZero(fields[36]),
	}
	return quote, nil
}

// parseFloatOrZero tolerates the endpoint's occasional empty fields for
// non-critical values; only the price is strict.
func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
