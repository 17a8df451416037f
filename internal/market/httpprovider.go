package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/ticker"
)

// httpClient is the shared transport used by all provider adapters, mirroring
// the teacher's plain net/http client with an explicit timeout rather than a
// heavier SDK.
var httpClient = &http.Client{Timeout: 10 * time.Second}

// PolygonProvider adapts Polygon.io's REST API.
type PolygonProvider struct {
	baseURL string
	apiKey  string
}

// NewPolygonProvider builds the primary market-data provider.
func NewPolygonProvider(baseURL, apiKey string) *PolygonProvider {
	return &PolygonProvider{baseURL: baseURL, apiKey: apiKey}
}

func (p *PolygonProvider) Name() string { return "polygon" }

func (p *PolygonProvider) Quote(ctx context.Context, t ticker.Ticker) (float64, error) {
	var body struct {
		Results []struct {
			Close float64 `json:"c"`
		} `json:"results"`
	}
	url := fmt.Sprintf("%s/v2/last/trade/%s?apiKey=%s", p.baseURL, t, p.apiKey)
	if err := getJSON(ctx, url, &body); err != nil {
		return 0, err
	}
	if len(body.Results) == 0 {
		return 0, errkind.Transientf("polygon.Quote", fmt.Errorf("empty result for %s", t))
	}
	return body.Results[0].Close, nil
}

func (p *PolygonProvider) Historical(ctx context.Context, t ticker.Ticker, days int) ([]DailyBar, error) {
	var body struct {
		Results []struct {
			T int64   `json:"t"`
			O float64 `json:"o"`
			H float64 `json:"h"`
			L float64 `json:"l"`
			C float64 `json:"c"`
			V float64 `json:"v"`
		} `json:"results"`
	}
	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day?limit=%d&apiKey=%s", p.baseURL, t, days, p.apiKey)
	if err := getJSON(ctx, url, &body); err != nil {
		return nil, err
	}
	bars := make([]DailyBar, 0, len(body.Results))
	for i := len(body.Results) - 1; i >= 0; i-- { // newest-first
		r := body.Results[i]
		bars = append(bars, DailyBar{
			Date: time.UnixMilli(r.T).UTC(), Open: r.O, High: r.H, Low: r.L, Close: r.C, Volume: r.V,
		})
	}
	return bars, nil
}

func (p *PolygonProvider) Indicators(ctx context.Context, t ticker.Ticker) (map[string]float64, error) {
	var body struct {
		Results struct {
			Values []struct {
				Value float64 `json:"value"`
			} `json:"values"`
		} `json:"results"`
	}
	url := fmt.Sprintf("%s/v1/indicators/rsi/%s?apiKey=%s", p.baseURL, t, p.apiKey)
	if err := getJSON(ctx, url, &body); err != nil {
		return nil, err
	}
	if len(body.Results.Values) == 0 {
		return nil, errkind.Transientf("polygon.Indicators", fmt.Errorf("no indicator values for %s", t))
	}
	return map[string]float64{"rsi": body.Results.Values[0].Value}, nil
}

// FinnhubProvider adapts Finnhub's REST API as the secondary provider.
type FinnhubProvider struct {
	baseURL string
	apiKey  string
}

// NewFinnhubProvider builds the secondary market-data provider.
func NewFinnhubProvider(baseURL, apiKey string) *FinnhubProvider {
	return &FinnhubProvider{baseURL: baseURL, apiKey: apiKey}
}

func (p *FinnhubProvider) Name() string { return "finnhub" }

func (p *FinnhubProvider) Quote(ctx context.Context, t ticker.Ticker) (float64, error) {
	var body struct {
		C float64 `json:"c"`
	}
	url := fmt.Sprintf("%s/quote?symbol=%s&token=%s", p.baseURL, t, p.apiKey)
	if err := getJSON(ctx, url, &body); err != nil {
		return 0, err
	}
	if body.C == 0 {
		return 0, errkind.Transientf("finnhub.Quote", fmt.Errorf("zero quote for %s", t))
	}
	return body.C, nil
}

func (p *FinnhubProvider) Historical(ctx context.Context, t ticker.Ticker, days int) ([]DailyBar, error) {
	var body struct {
		C []float64 `json:"c"`
		H []float64 `json:"h"`
		L []float64 `json:"l"`
		O []float64 `json:"o"`
		V []float64 `json:"v"`
		T []int64   `json:"t"`
		S string    `json:"s"`
	}
	url := fmt.Sprintf("%s/stock/candle?symbol=%s&resolution=D&count=%d&token=%s", p.baseURL, t, days, p.apiKey)
	if err := getJSON(ctx, url, &body); err != nil {
		return nil, err
	}
	if body.S != "ok" {
		return nil, errkind.Transientf("finnhub.Historical", fmt.Errorf("no_data status for %s", t))
	}
	bars := make([]DailyBar, 0, len(body.T))
	for i := len(body.T) - 1; i >= 0; i-- {
		bars = append(bars, DailyBar{
			Date: time.Unix(body.T[i], 0).UTC(), Open: body.O[i], High: body.H[i], Low: body.L[i], Close: body.C[i], Volume: body.V[i],
		})
	}
	return bars, nil
}

func (p *FinnhubProvider) Indicators(ctx context.Context, t ticker.Ticker) (map[string]float64, error) {
	var body struct {
		RSI []float64 `json:"rsi"`
	}
	url := fmt.Sprintf("%s/indicator?symbol=%s&resolution=D&indicator=rsi&token=%s", p.baseURL, t, p.apiKey)
	if err := getJSON(ctx, url, &body); err != nil {
		return nil, err
	}
	if len(body.RSI) == 0 {
		return nil, errkind.Transientf("finnhub.Indicators", fmt.Errorf("no rsi values for %s", t))
	}
	return map[string]float64{"rsi": body.RSI[len(body.RSI)-1]}, nil
}

// AlphaVantageProvider adapts Alpha Vantage's REST API as the tertiary provider.
type AlphaVantageProvider struct {
	baseURL string
	apiKey  string
}

// NewAlphaVantageProvider builds the tertiary market-data provider.
func NewAlphaVantageProvider(baseURL, apiKey string) *AlphaVantageProvider {
	return &AlphaVantageProvider{baseURL: baseURL, apiKey: apiKey}
}

func (p *AlphaVantageProvider) Name() string { return "alpha_vantage" }

func (p *AlphaVantageProvider) Quote(ctx context.Context, t ticker.Ticker) (float64, error) {
	var body struct {
		GlobalQuote struct {
			Price string `json:"05. price"`
		} `json:"Global Quote"`
	}
	url := fmt.Sprintf("%s?function=GLOBAL_QUOTE&symbol=%s&apikey=%s", p.baseURL, t, p.apiKey)
	if err := getJSON(ctx, url, &body); err != nil {
		return 0, err
	}
	var price float64
	if _, err := fmt.Sscanf(body.GlobalQuote.Price, "%f", &price); err != nil || price == 0 {
		return 0, errkind.Transientf("alpha_vantage.Quote", fmt.Errorf("unparseable quote for %s", t))
	}
	return price, nil
}

func (p *AlphaVantageProvider) Historical(ctx context.Context, t ticker.Ticker, days int) ([]DailyBar, error) {
	var body struct {
		Series map[string]struct {
			Open   string `json:"1. open"`
			High   string `json:"2. high"`
			Low    string `json:"3. low"`
			Close  string `json:"4. close"`
			Volume string `json:"5. volume"`
		} `json:"Time Series (Daily)"`
	}
	url := fmt.Sprintf("%s?function=TIME_SERIES_DAILY&symbol=%s&apikey=%s", p.baseURL, t, p.apiKey)
	if err := getJSON(ctx, url, &body); err != nil {
		return nil, err
	}
	if len(body.Series) == 0 {
		return nil, errkind.Transientf("alpha_vantage.Historical", fmt.Errorf("empty series for %s", t))
	}

	bars := make([]DailyBar, 0, len(body.Series))
	for dateStr, bar := range body.Series {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		bars = append(bars, DailyBar{
			Date:   date,
			Open:   parseFloat(bar.Open),
			High:   parseFloat(bar.High),
			Low:    parseFloat(bar.Low),
			Close:  parseFloat(bar.Close),
			Volume: parseFloat(bar.Volume),
		})
	}
	sortBarsDescending(bars)
	if len(bars) > days {
		bars = bars[:days]
	}
	return bars, nil
}

func (p *AlphaVantageProvider) Indicators(ctx context.Context, t ticker.Ticker) (map[string]float64, error) {
	var body struct {
		Technical map[string]struct {
			RSI string `json:"RSI"`
		} `json:"Technical Analysis: RSI"`
	}
	url := fmt.Sprintf("%s?function=RSI&symbol=%s&interval=daily&time_period=14&series_type=close&apikey=%s", p.baseURL, t, p.apiKey)
	if err := getJSON(ctx, url, &body); err != nil {
		return nil, err
	}
	var latest string
	for _, v := range body.Technical {
		latest = v.RSI
		break
	}
	if latest == "" {
		return nil, errkind.Transientf("alpha_vantage.Indicators", fmt.Errorf("no rsi for %s", t))
	}
	return map[string]float64{"rsi": parseFloat(latest)}, nil
}

func parseFloat(s string) float64 {
	var f float64
	fmt.Sscanf(s, "%f", &f)
	return f
}

func sortBarsDescending(bars []DailyBar) {
	for i := 1; i < len(bars); i++ {
		for j := i; j > 0 && bars[j].Date.After(bars[j-1].Date); j-- {
			bars[j], bars[j-1] = bars[j-1], bars[j]
		}
	}
}

// getJSON performs a GET and decodes the JSON body into out, classifying
// transport and status-code failures into errkind per spec §7: 429/5xx are
// Transient (retry-eligible), other 4xx are non-retryable BadInput-shaped
// transient-false failures.
func getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errkind.Fatalf("market.getJSON", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return errkind.Transientf("market.getJSON", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return errkind.Transientf("market.getJSON", fmt.Errorf("http %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return errkind.New(errkind.BadInput, "market.getJSON", fmt.Errorf("http %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errkind.New(errkind.BadInput, "market.getJSON", fmt.Errorf("malformed body: %w", err))
	}
	return nil
}
