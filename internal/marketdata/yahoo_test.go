package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartFixture = `{
  "chart": {
    "result": [
      {
        "timestamp": [1709733600, 1709733900, 1709734200],
        "indicators": {
          "quote": [
            {
              "open":   [100.0, 100.5, null],
              "high":   [101.0, 101.5, 102.0],
              "low":    [99.5, 100.0, 100.5],
              "close":  [100.5, 101.0, 101.5],
              "volume": [150000, 180000, 120000]
            }
          ]
        }
      }
    ],
    "error": null
  }
}`

func TestYahooGetBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/AAPL", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("range"))
		assert.Equal(t, "5m", r.URL.Query().Get("interval"))
		w.Write([]byte(chartFixture))
	}))
	defer srv.Close()

	p := NewYahooProviderWithBaseURL(srv.URL, 5*time.Second)
	bars, err := p.GetBars(context.Background(), "AAPL", Lookback1Day, Interval5Min)
	require.NoError(t, err)

	// The third bar has a null open and is dropped.
	require.Len(t, bars, 2)
	assert.Equal(t, 100.0, bars[0].Open)
	assert.Equal(t, 101.5, bars[1].High)
	assert.Equal(t, int64(180000), bars[1].Volume)
	assert.Equal(t, time.Unix(1709733600, 0).UTC(), bars[0].Timestamp)
}

func TestYahooGetBarsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	p := NewYahooProviderWithBaseURL(srv.URL, 5*time.Second)
	bars, err := p.GetBars(context.Background(), "VOD.L", Lookback1Day, Interval5Min)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestYahooGetBarsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	p := NewYahooProviderWithBaseURL(srv.URL, 5*time.Second)
	_, err := p.GetBars(context.Background(), "NOPE", Lookback1Day, Interval5Min)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestYahooGetBarsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewYahooProviderWithBaseURL(srv.URL, 5*time.Second)
	_, err := p.GetBars(context.Background(), "AAPL", Lookback1Day, Interval5Min)
	require.Error(t, err)
}
