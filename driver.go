package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// PageDriver is the browser capability surface the flows run against. Click
// takes an explicit force flag: a forced click bypasses actionability checks
// (visibility, occlusion) and fires the element's click handler directly.
type PageDriver interface {
	Launch() error
	Navigate(url string) error
	SetViewport(width, height int) error
	Reload() error
	WaitForSelector(selector string, timeout time.Duration, visible bool) error
	Click(selector string, force bool) error
	Type(selector, text string) error
	Hover(selector string) error
	Highlight(selector string) error
	SetCookies(cookies []SessionCookie) error
	SetLocalStorage(values map[string]string) error
	WaitNavigation(networkIdle bool) error
	CurrentURL() (string, error)
	Cookies() ([]SessionCookie, error)
	LocalStorage() (map[string]any, error)
	Close() error
}

// RodDriver drives a real Chromium instance through go-rod.
type RodDriver struct {
	config   *Config
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
}

func NewRodDriver(config *Config) *RodDriver {
	return &RodDriver{config: config}
}

func (r *RodDriver) defaultTimeout() time.Duration {
	return time.Duration(r.config.PageLoadTimeout) * time.Second
}

func (r *RodDriver) Launch() error {
	// Leakless deadlocks on Windows, see go-rod/rod#853
	useLeakless := runtime.GOOS != "windows"

	r.launcher = launcher.New().
		Leakless(useLeakless).
		Headless(r.config.Headless)

	if r.config.BrowserProfilePath != "" {
		r.launcher = r.launcher.UserDataDir(r.config.BrowserProfilePath)
	}

	if chromePath, ok := launcher.LookPath(); ok {
		r.launcher = r.launcher.Bin(chromePath)
	}

	url, err := r.launcher.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	r.browser = browser

	page, err := stealth.Page(browser)
	if err != nil {
		return fmt.Errorf("failed to create stealth page: %w", err)
	}
	r.page = page

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: defaultUserAgent,
	}); err != nil {
		return fmt.Errorf("failed to set user agent: %w", err)
	}

	return nil
}

func (r *RodDriver) Navigate(url string) error {
	if err := r.page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := r.page.Timeout(r.defaultTimeout()).WaitLoad(); err != nil {
		return fmt.Errorf("page failed to load: %w", err)
	}
	return nil
}

func (r *RodDriver) SetViewport(width, height int) error {
	return r.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	})
}

func (r *RodDriver) Reload() error {
	if err := r.page.Reload(); err != nil {
		return fmt.Errorf("failed to reload page: %w", err)
	}
	return r.page.Timeout(r.defaultTimeout()).WaitLoad()
}

func (r *RodDriver) WaitForSelector(selector string, timeout time.Duration, visible bool) error {
	if timeout <= 0 {
		timeout = r.defaultTimeout()
	}

	el, err := r.page.Timeout(timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("element %q did not appear: %w", selector, err)
	}
	if visible {
		if err := el.WaitVisible(); err != nil {
			return fmt.Errorf("element %q did not become visible: %w", selector, err)
		}
	}
	return nil
}

func (r *RodDriver) Click(selector string, force bool) error {
	if force {
		// Fire the handler directly, skipping visibility and occlusion
		// checks the normal click path performs.
		_, err := r.page.Eval(`(sel) => {
			const el = document.querySelector(sel);
			if (!el) throw new Error('element not found: ' + sel);
			el.click();
		}`, selector)
		if err != nil {
			return fmt.Errorf("forced click on %q failed: %w", selector, err)
		}
		return nil
	}

	el, err := r.page.Timeout(r.defaultTimeout()).Element(selector)
	if err != nil {
		return fmt.Errorf("element %q not found for click: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click on %q failed: %w", selector, err)
	}
	return nil
}

func (r *RodDriver) Type(selector, text string) error {
	el, err := r.page.Timeout(r.defaultTimeout()).Element(selector)
	if err != nil {
		return fmt.Errorf("element %q not found for input: %w", selector, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("failed to clear %q: %w", selector, err)
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("failed to type into %q: %w", selector, err)
	}
	return nil
}

func (r *RodDriver) Hover(selector string) error {
	el, err := r.page.Timeout(r.defaultTimeout()).Element(selector)
	if err != nil {
		return fmt.Errorf("element %q not found for hover: %w", selector, err)
	}
	if err := el.Hover(); err != nil {
		return fmt.Errorf("hover over %q failed: %w", selector, err)
	}
	return nil
}

// Highlight restyles an element so it is visible and on top. Stores hide
// the go-to-cart notice behind overlays; this pulls it out before clicking.
func (r *RodDriver) Highlight(selector string) error {
	_, err := r.page.Eval(`(sel) => {
		const el = document.querySelector(sel);
		if (!el) return false;
		el.style.position = 'fixed';
		el.style.zIndex = '9999';
		el.style.opacity = '1';
		el.style.display = 'block';
		return true;
	}`, selector)
	if err != nil {
		return fmt.Errorf("failed to restyle %q: %w", selector, err)
	}
	return nil
}

func (r *RodDriver) SetCookies(cookies []SessionCookie) error {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		param := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			param.Expires = proto.TimeSinceEpoch(c.Expires)
		}
		params = append(params, param)
	}

	if err := r.page.SetCookies(params); err != nil {
		return fmt.Errorf("failed to set cookies: %w", err)
	}
	return nil
}

func (r *RodDriver) SetLocalStorage(values map[string]string) error {
	for key, value := range values {
		_, err := r.page.Eval(`(k, v) => localStorage.setItem(k, v)`, key, value)
		if err != nil {
			return fmt.Errorf("failed to set localStorage key %q: %w", key, err)
		}
	}
	return nil
}

func (r *RodDriver) WaitNavigation(networkIdle bool) error {
	page := r.page.Timeout(r.defaultTimeout())
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("navigation did not complete: %w", err)
	}
	if networkIdle {
		wait := page.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
		wait()
	}
	return nil
}

func (r *RodDriver) CurrentURL() (string, error) {
	info, err := r.page.Info()
	if err != nil {
		return "", fmt.Errorf("failed to read page info: %w", err)
	}
	return info.URL, nil
}

func (r *RodDriver) Cookies() ([]SessionCookie, error) {
	cookies, err := r.page.Cookies([]string{BaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to get cookies: %w", err)
	}

	out := make([]SessionCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, SessionCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  float64(c.Expires),
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		})
	}
	return out, nil
}

func (r *RodDriver) LocalStorage() (map[string]any, error) {
	res, err := r.page.Eval(`() => {
		const out = {};
		for (let i = 0; i < localStorage.length; i++) {
			const key = localStorage.key(i);
			const value = localStorage.getItem(key);
			try {
				out[key] = JSON.parse(value);
			} catch (e) {
				out[key] = value;
			}
		}
		return out;
	}`)
	if err != nil {
		return nil, fmt.Errorf("failed to read localStorage: %w", err)
	}

	storage, ok := res.Value.Val().(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return storage, nil
}

func (r *RodDriver) Close() error {
	if r.page != nil {
		r.page.Close()
	}
	if r.browser != nil {
		r.browser.Close()
	}
	if r.launcher != nil {
		r.launcher.Cleanup()
	}
	return nil
}
