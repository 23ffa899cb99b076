package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "orb-trader/internal/errors"
	"orb-trader/internal/models"
)

const defaultChartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooProvider fetches bars from the Yahoo Finance chart API.
type YahooProvider struct {
	baseURL string
	client  *http.Client
}

// NewYahooProvider creates a Yahoo Finance data provider with the given
// request timeout.
func NewYahooProvider(timeout time.Duration) *YahooProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &YahooProvider{
		baseURL: defaultChartBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewYahooProviderWithBaseURL creates a provider pointed at a custom
// endpoint. Used by tests.
func NewYahooProviderWithBaseURL(baseURL string, timeout time.Duration) *YahooProvider {
	p := NewYahooProvider(timeout)
	p.baseURL = baseURL
	return p
}

// chartResponse mirrors the subset of the Yahoo chart payload we read.
// Quote fields are pointers because Yahoo emits null for missing bars.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetBars fetches OHLCV bars for a symbol. Bars with null fields are
// dropped rather than zero-filled.
func (p *YahooProvider) GetBars(ctx context.Context, symbol string, lookback Lookback, interval Interval) ([]models.Candle, error) {
	endpoint := fmt.Sprintf("%s/%s?range=%s&interval=%s",
		p.baseURL, url.PathEscape(symbol), lookback, interval)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewDataError(symbol, string(interval), "building request", err)
	}
	req.Header.Set("User-Agent", "orb-trader/0.1")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperrors.NewDataError(symbol, string(interval), "fetching chart", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewDataError(symbol, string(interval),
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperrors.NewDataError(symbol, string(interval), "reading response", err)
	}

	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewDataError(symbol, string(interval), "decoding response", err)
	}
	if payload.Chart.Error != nil {
		return nil, apperrors.NewDataError(symbol, string(interval), payload.Chart.Error.Description, nil)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	candles := make([]models.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			break
		}
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		var vol int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			vol = *quote.Volume[i]
		}
		candles = append(candles, models.Candle{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      *quote.Open[i],
			High:      *quote.High[i],
			Low:       *quote.Low[i],
			Close:     *quote.Close[i],
			Volume:    vol,
		})
	}

	return candles, nil
}
