package main

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestIsAccountURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{
			name:     "US account redirect",
			url:      "https://popmart.com/us/account",
			expected: true,
		},
		{
			name:     "CA account redirect with www",
			url:      "https://www.popmart.com/ca/account",
			expected: true,
		},
		{
			name:     "Account subpage",
			url:      "https://www.popmart.com/us/account/orders",
			expected: true,
		},
		{
			name:     "Login page mentioning account redirect",
			url:      "https://www.popmart.com/us/user/login?redirect=%2Faccount",
			expected: false,
		},
		{
			name:     "Product page",
			url:      "https://www.popmart.com/us/products/1372/test",
			expected: false,
		},
		{
			name:     "Other region account page",
			url:      "https://www.popmart.com/de/account",
			expected: true, // fallback: account without login
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAccountURL(tt.url); got != tt.expected {
				t.Errorf("isAccountURL(%q) = %v, want %v", tt.url, got, tt.expected)
			}
		})
	}
}

// loginFakeDriver embeds the checkout fake and flips its URL to the account
// page after a few polls, the way a user finishing a manual login would.
type loginFakeDriver struct {
	*fakeDriver
	urlChecks     int
	redirectAfter int
}

func (f *loginFakeDriver) CurrentURL() (string, error) {
	f.record("url")
	f.urlChecks++
	if f.urlChecks > f.redirectAfter {
		return "https://popmart.com/us/account", nil
	}
	return LoginPageURL, nil
}

func TestLoginRunExportsSession(t *testing.T) {
	config := DefaultConfig()
	config.DataDir = t.TempDir()
	config.LoginTimeoutSeconds = 30

	driver := &loginFakeDriver{fakeDriver: newFakeDriver(), redirectAfter: 2}
	driver.cookies = []SessionCookie{{Name: "ACCESS_TOKEN", Value: "tok"}}

	login := NewLogin(config, driver, zap.NewNop())
	login.sleep = func(time.Duration) {}

	if err := login.Run(); err != nil {
		t.Fatalf("Login run failed: %v", err)
	}

	session, err := LoadSessionData(config)
	if err != nil {
		t.Fatalf("Expected session files to be written: %v", err)
	}
	if len(session.Cookies) != 1 || session.Cookies[0].Name != "ACCESS_TOKEN" {
		t.Errorf("Expected exported cookie to round-trip, got %+v", session.Cookies)
	}

	if driver.calls[len(driver.calls)-1] != "close" {
		t.Error("Login must release the browser when done")
	}
}

func TestLoginRunEntersConfiguredCredentials(t *testing.T) {
	config := DefaultConfig()
	config.DataDir = t.TempDir()
	config.Username = "collector@example.com"
	config.Password = "hunter2"

	driver := &loginFakeDriver{fakeDriver: newFakeDriver(), redirectAfter: 0}
	login := NewLogin(config, driver, zap.NewNop())
	login.sleep = func(time.Duration) {}

	if err := login.Run(); err != nil {
		t.Fatalf("Login run failed: %v", err)
	}

	sawUsername, sawPassword, sawSubmit := false, false, false
	for _, call := range driver.calls {
		switch call {
		case "type:" + config.Selectors.LoginField:
			sawUsername = true
		case "type:" + config.Selectors.PasswordField:
			sawPassword = true
		case "click:" + config.Selectors.LoginBtn:
			sawSubmit = true
		}
	}
	if !sawUsername || !sawPassword || !sawSubmit {
		t.Errorf("Expected credential entry calls, got %v", driver.calls)
	}
}

func TestLoginRunTimesOut(t *testing.T) {
	config := DefaultConfig()
	config.DataDir = t.TempDir()
	config.LoginTimeoutSeconds = 0 // deadline already passed

	driver := &loginFakeDriver{fakeDriver: newFakeDriver(), redirectAfter: 1 << 30}
	login := NewLogin(config, driver, zap.NewNop())
	login.sleep = func(time.Duration) {}

	if err := login.Run(); err == nil {
		t.Fatal("Expected timeout error when the redirect never happens")
	}
}
