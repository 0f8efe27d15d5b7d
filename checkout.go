package main

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Checkout drives one purchase attempt end to end: product page, session
// seed, buy-now, cart, checkout, pay, then a long hold on the payment QR
// screen for the human to scan.
//
// Failure tiers: the buy-now wait retries, the go-to-cart and pay steps log
// a warning and continue, everything else aborts the run.
type Checkout struct {
	config  *Config
	loc     Locators
	driver  PageDriver
	session *SessionData
	log     *zap.Logger

	// replaced in tests to keep them fast
	sleep func(time.Duration)
}

func NewCheckout(config *Config, driver PageDriver, session *SessionData, log *zap.Logger) *Checkout {
	return &Checkout{
		config:  config,
		loc:     config.Locators(),
		driver:  driver,
		session: session,
		log:     log,
		sleep:   time.Sleep,
	}
}

// Run executes the purchase. The driver is owned for the duration of the
// call and released on every exit path; keep_browser_open_on_error skips
// the release after a failure so the page can be inspected.
func (c *Checkout) Run() (err error) {
	start := time.Now()

	if err = c.driver.Launch(); err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	defer func() {
		if err != nil && c.config.KeepBrowserOpenOnError {
			c.log.Warn("Leaving browser open after failure for inspection")
			return
		}
		c.driver.Close()
	}()

	c.log.Info("Starting automated purchase",
		zap.String("product", c.config.TargetProduct))

	if err = c.driver.Navigate(c.config.TargetProduct); err != nil {
		return fmt.Errorf("failed to open product page: %w", err)
	}

	if err = c.driver.SetViewport(c.config.ViewportWidth, c.config.ViewportHeight); err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}

	if err = c.driver.Click(c.loc.Agreement, false); err != nil {
		return fmt.Errorf("failed to accept agreement: %w", err)
	}
	c.log.Info("Agreement accepted")

	if err = c.applySessionSeed(); err != nil {
		return err
	}

	if err = c.clickBuyNow(); err != nil {
		return err
	}

	c.goToCart()

	if err = c.driver.WaitNavigation(false); err != nil {
		return fmt.Errorf("cart navigation did not complete: %w", err)
	}

	if err = c.driver.WaitForSelector(c.loc.Checkbox, 0, false); err != nil {
		return fmt.Errorf("agreement checkbox not found: %w", err)
	}
	if err = c.driver.Click(c.loc.Checkbox, false); err != nil {
		return fmt.Errorf("failed to select checkbox: %w", err)
	}
	c.log.Info("Checkbox selected")

	checkoutTimeout := time.Duration(c.config.CheckoutTimeoutMs) * time.Millisecond
	if err = c.driver.WaitForSelector(c.loc.Checkout, checkoutTimeout, false); err != nil {
		return fmt.Errorf("checkout button not found: %w", err)
	}
	if err = c.driver.Click(c.loc.Checkout, false); err != nil {
		return fmt.Errorf("failed to click checkout: %w", err)
	}
	c.log.Info("Proceeding to checkout")

	if err = c.driver.WaitNavigation(true); err != nil {
		return fmt.Errorf("checkout page did not load: %w", err)
	}

	// The network-idle wait misses client-side rendering on the payment
	// page, so give it a fixed settle window.
	c.sleep(time.Duration(c.config.SettleDelaySeconds) * time.Second)

	c.clickPay()

	if err = c.driver.Hover(c.loc.Ordering); err != nil {
		return fmt.Errorf("failed to hover ordering control: %w", err)
	}
	c.log.Info("Hovered over ordering control")

	if err = c.driver.WaitNavigation(false); err != nil {
		return fmt.Errorf("payment page navigation did not complete: %w", err)
	}

	if url, uerr := c.driver.CurrentURL(); uerr == nil {
		c.log.Info("All steps done, ready to pay",
			zap.String("payment_url", url),
			zap.String("elapsed", FormatDuration(time.Since(start))))
	}

	c.log.Info("Holding payment screen for QR scan",
		zap.Int("seconds", c.config.PaymentHoldSeconds))
	c.sleep(time.Duration(c.config.PaymentHoldSeconds) * time.Second)

	return nil
}

// applySessionSeed injects the exported cookies and local storage, then
// reloads so the page picks up the authenticated state. Storage values are
// JSON-serialized before injection, so the number 1 is stored as the text
// `1` and the string "x" as `"x"`.
func (c *Checkout) applySessionSeed() error {
	if err := c.driver.SetCookies(c.session.Cookies); err != nil {
		return fmt.Errorf("failed to inject cookies: %w", err)
	}

	serialized := make(map[string]string, len(c.session.LocalStorage))
	for key, value := range c.session.LocalStorage {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to serialize localStorage value %q: %w", key, err)
		}
		serialized[key] = string(data)
	}
	if err := c.driver.SetLocalStorage(serialized); err != nil {
		return fmt.Errorf("failed to inject local storage: %w", err)
	}

	if err := c.driver.Reload(); err != nil {
		return fmt.Errorf("failed to reload after session seed: %w", err)
	}

	c.log.Info("Session data applied",
		zap.Int("cookies", len(c.session.Cookies)),
		zap.Int("storage_keys", len(serialized)))
	return nil
}

// clickBuyNow polls for the buy-now control and clicks it once found. Each
// attempt waits up to buy_now_timeout_ms with no backoff between attempts.
// With buy_now_max_attempts at 0 the poll never gives up, which matches a
// drop page where the control appears only when the sale goes live.
func (c *Checkout) clickBuyNow() error {
	timeout := time.Duration(c.config.BuyNowTimeoutMs) * time.Millisecond

	c.log.Info("Looking for Buy Now button")
	for attempt := 1; ; attempt++ {
		err := c.driver.WaitForSelector(c.loc.BuyNow, timeout, false)
		if err == nil {
			break
		}
		if c.config.BuyNowMaxAttempts > 0 && attempt >= c.config.BuyNowMaxAttempts {
			return fmt.Errorf("buy now button not found after %d attempts: %w", attempt, err)
		}
		c.log.Warn("Buy Now button not found, retrying",
			zap.Int("attempt", attempt))
	}

	if err := c.driver.Click(c.loc.BuyNow, false); err != nil {
		return fmt.Errorf("failed to click buy now: %w", err)
	}
	c.log.Info("Buy Now button clicked")
	return nil
}

// goToCart restyles the cart notice so it is clickable, then force-clicks
// it. Both the wait and the click are non-fatal: the cart page often
// navigates on its own after buy-now, so the flow moves on either way.
func (c *Checkout) goToCart() {
	if err := c.driver.Highlight(c.loc.GoToCart); err != nil {
		c.log.Debug("Could not restyle go-to-cart button", zap.Error(err))
	}

	timeout := time.Duration(c.config.GoToCartTimeoutMs) * time.Millisecond
	if err := c.driver.WaitForSelector(c.loc.GoToCart, timeout, false); err != nil {
		c.log.Warn("Go to Cart button not found, continuing", zap.Error(err))
		return
	}

	if err := c.driver.Click(c.loc.GoToCart, true); err != nil {
		c.log.Warn("Go to Cart click failed, continuing", zap.Error(err))
		return
	}
	c.log.Info("Go to Cart button clicked")
}

// clickPay waits for a visible pay control and force-clicks it. Non-fatal:
// some storefront variants skip this button entirely and land straight on
// the provider widget the ordering hover targets.
func (c *Checkout) clickPay() {
	timeout := time.Duration(c.config.PayTimeoutMs) * time.Millisecond
	if err := c.driver.WaitForSelector(c.loc.Pay, timeout, true); err != nil {
		c.log.Warn("Pay button not found, continuing", zap.Error(err))
		return
	}

	if err := c.driver.Click(c.loc.Pay, true); err != nil {
		c.log.Warn("Pay button click failed, continuing", zap.Error(err))
		return
	}
	c.log.Info("Pay button clicked")
}
