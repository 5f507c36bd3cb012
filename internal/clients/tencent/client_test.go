package tencent

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// samplePayload builds a response in the endpoint's field layout with the
// interesting positions filled in (3 price, 5 open, 32 pct, 33 high, 34 low,
// 36 volume).
func samplePayload(symbol string) string {
	fields := make([]string, 50)
	fields[0] = "1"
	fields[1] = "贵州茅台"
	fields[2] = "600519"
	fields[3] = "1530.00"
	fields[5] = "1520.00"
	fields[32] = "1.25"
	fields[33] = "1541.88"
	fields[34] = "1512.00"
	fields[36] = "28451"
	return fmt.Sprintf("v_%s=\"%s\";", symbol, strings.Join(fields, "~"))
}

func TestParseQuotePayload(t *testing.T) {
	quote, err := ParseQuotePayload("sh600519", samplePayload("sh600519"))
	require.NoError(t, err)

	assert.Equal(t, "贵州茅台", quote.Name)
	assert.Equal(t, "600519", quote.Code)
	assert.InDelta(t, 1530.00, quote.Price, 1e-9)
	assert.InDelta(t, 1.25, quote.PercentChange, 1e-9)
	assert.InDelta(t, 1541.88, quote.High, 1e-9)
	assert.InDelta(t, 1512.00, quote.Low, 1e-9)
	assert.InDelta(t, 1520.00, quote.Open, 1e-9)
	assert.InDelta(t, 28451, quote.Volume, 1e-9)
}

func TestParseQuotePayload_NotFound(t *testing.T) {
	_, err := ParseQuotePayload("sz999999", `v_pv_none=1;`)
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestParseQuotePayload_ShortPayload(t *testing.T) {
	_, err := ParseQuotePayload("sh600519", `v_sh600519="1~name~600519~1.00~x~y~z~and~more~fields~to~pass~length";`)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrQuoteNotFound)
}

func TestGetQuote_CodeValidation(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	client := NewClient("http://unused", log)

	for _, code := range []string{"", "60051", "6005199", "60051a", "六个字"} {
		_, err := client.GetQuote(code)
		assert.ErrorIs(t, err, ErrInvalidCode, "code %q", code)
	}
}

func TestGetQuote_MarketRouting(t *testing.T) {
	var requestedSymbol string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The endpoint uses q=<symbol>; echo back a valid payload for it
		requestedSymbol = strings.TrimPrefix(r.URL.String(), "/q=")
		_, _ = w.Write([]byte(samplePayload(requestedSymbol)))
	}))
	defer srv.Close()

	log := zerolog.New(nil).Level(zerolog.Disabled)
	client := NewClient(srv.URL, log)

	testCases := []struct {
		code   string
		market string
	}{
		{"600519", "sh"}, // Shanghai 6-prefix
		{"510300", "sh"}, // Shanghai fund 5-prefix
		{"900901", "sh"}, // Shanghai B-share 9-prefix
		{"000001", "sz"}, // Shenzhen
		{"300750", "sz"}, // ChiNext trades in Shenzhen
	}

	for _, tc := range testCases {
		quote, err := client.GetQuote(tc.code)
		require.NoError(t, err, "code %s", tc.code)
		assert.NotNil(t, quote)
		assert.Equal(t, tc.market+tc.code, requestedSymbol)
	}
}

func TestGetQuote_EndpointDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	log := zerolog.New(nil).Level(zerolog.Disabled)
	client := NewClient(srv.URL, log)

	_, err := client.GetQuote("600519")
	assert.Error(t, err)
}
