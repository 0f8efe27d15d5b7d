package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Availability is one HTTP check of the product page.
type Availability struct {
	URL        string
	ProductID  string
	StatusCode int
	InStock    bool
	Indicator  string // the out-of-stock phrase that matched, if any
	CheckedAt  time.Time
}

// Monitor checks product availability over plain HTTP, without a browser.
// A page counts as in stock when it loads cleanly and shows none of the
// out-of-stock phrases.
type Monitor struct {
	client *http.Client
	config *Config
	log    *zap.Logger

	sleep func(time.Duration)
}

func NewMonitor(config *Config, log *zap.Logger) *Monitor {
	return &Monitor{
		client: &http.Client{Timeout: 30 * time.Second},
		config: config,
		log:    log,
		sleep:  time.Sleep,
	}
}

func (m *Monitor) Check(productURL string) (*Availability, error) {
	req, err := http.NewRequest("GET", productURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read product page: %w", err)
	}

	result := &Availability{
		URL:        productURL,
		ProductID:  ExtractProductID(productURL),
		StatusCode: resp.StatusCode,
		CheckedAt:  time.Now(),
	}

	if resp.StatusCode != http.StatusOK {
		return result, nil
	}

	lower := strings.ToLower(string(body))
	for _, indicator := range OutOfStockIndicators {
		if strings.Contains(lower, indicator) {
			result.Indicator = indicator
			return result, nil
		}
	}

	result.InStock = true
	return result, nil
}

// WaitForRestock polls until the product is in stock or the check budget is
// spent. Fixed interval, no backoff.
func (m *Monitor) WaitForRestock(productURL string) (*Availability, error) {
	interval := time.Duration(m.config.MonitorIntervalSeconds) * time.Second
	maxChecks := m.config.MonitorMaxChecks

	m.log.Info("Monitoring product for restock",
		zap.String("url", productURL),
		zap.Duration("interval", interval),
		zap.Int("max_checks", maxChecks))

	for check := 1; check <= maxChecks; check++ {
		result, err := m.Check(productURL)
		switch {
		case err != nil:
			m.log.Warn("Availability check failed",
				zap.Int("check", check), zap.Error(err))
		case result.InStock:
			m.log.Info("Product is in stock",
				zap.Int("check", check),
				zap.String("product_id", result.ProductID))
			return result, nil
		default:
			m.log.Info("Product still unavailable",
				zap.Int("check", check),
				zap.Int("status", result.StatusCode),
				zap.String("indicator", result.Indicator))
		}

		if check < maxChecks {
			m.sleep(interval)
		}
	}

	return nil, fmt.Errorf("product did not restock within %d checks", maxChecks)
}
