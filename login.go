package main

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// A successful sign-in redirects to the regional account page.
var accountURLPattern = regexp.MustCompile(`^https://(www\.)?popmart\.com/(ca|us)/account`)

// Login opens the store login page, signs in with configured credentials or
// waits for the user to sign in manually, then exports the session cookies
// and local storage for later purchase runs.
type Login struct {
	config *Config
	loc    Locators
	driver PageDriver
	log    *zap.Logger

	sleep func(time.Duration)
}

func NewLogin(config *Config, driver PageDriver, log *zap.Logger) *Login {
	return &Login{
		config: config,
		loc:    config.Locators(),
		driver: driver,
		log:    log,
		sleep:  time.Sleep,
	}
}

// Run performs the login and writes the session seed files. The browser is
// always released before returning.
func (l *Login) Run() (err error) {
	if err = l.driver.Launch(); err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer l.driver.Close()

	if err = l.driver.Navigate(LoginPageURL); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	l.log.Info("Navigated to login page")

	// The consent banner only shows on fresh profiles.
	if err := l.driver.Click(l.loc.Agreement, false); err != nil {
		l.log.Info("No agreement dialog found")
	} else {
		l.log.Info("Agreement accepted")
	}

	if l.config.Username != "" && l.config.Password != "" {
		l.enterCredentials()
	} else {
		l.log.Info("No credentials configured, complete the login in the browser window")
	}

	if err = l.waitForAccountRedirect(); err != nil {
		return err
	}

	return l.exportSession()
}

// enterCredentials fills the login form. Any failure here falls back to the
// manual path: the redirect wait below covers both.
func (l *Login) enterCredentials() {
	if err := l.driver.Type(l.loc.LoginField, l.config.Username); err != nil {
		l.log.Warn("Could not enter username, falling back to manual login", zap.Error(err))
		return
	}
	if err := l.driver.Type(l.loc.PasswordField, l.config.Password); err != nil {
		l.log.Warn("Could not enter password, falling back to manual login", zap.Error(err))
		return
	}
	if err := l.driver.Click(l.loc.LoginBtn, false); err != nil {
		l.log.Warn("Could not click login button, falling back to manual login", zap.Error(err))
		return
	}
	l.log.Info("Login submitted")
}

// waitForAccountRedirect polls the page URL once a second until it lands on
// the account page, or the login timeout elapses.
func (l *Login) waitForAccountRedirect() error {
	timeout := time.Duration(l.config.LoginTimeoutSeconds) * time.Second
	deadline := time.Now().Add(timeout)

	l.log.Info("Waiting for login redirect to the account page",
		zap.Duration("timeout", timeout))

	for time.Now().Before(deadline) {
		url, err := l.driver.CurrentURL()
		if err != nil {
			l.log.Debug("URL check failed, retrying", zap.Error(err))
			l.sleep(time.Second)
			continue
		}

		if isAccountURL(url) {
			l.log.Info("Login successful", zap.String("url", url))
			return nil
		}

		l.sleep(time.Second)
	}

	return fmt.Errorf("login timed out after %s without reaching the account page", timeout)
}

// isAccountURL reports whether the browser landed on a signed-in account
// page. The regional account redirect is the primary signal; any other
// account URL that is not the login form counts as a fallback.
func isAccountURL(url string) bool {
	if accountURLPattern.MatchString(url) {
		return true
	}
	lower := strings.ToLower(url)
	return strings.Contains(lower, "account") && !strings.Contains(lower, "login")
}

func (l *Login) exportSession() error {
	l.log.Info("Exporting session data")

	cookies, err := l.driver.Cookies()
	if err != nil {
		return fmt.Errorf("failed to export cookies: %w", err)
	}

	storage, err := l.driver.LocalStorage()
	if err != nil {
		return fmt.Errorf("failed to export local storage: %w", err)
	}

	session := &SessionData{
		Cookies:      cookies,
		LocalStorage: storage,
		ExportTime:   time.Now(),
	}
	if err := SaveSessionData(l.config, session); err != nil {
		return err
	}

	l.log.Info("Session data saved",
		zap.Int("cookies", len(cookies)),
		zap.Int("storage_keys", len(storage)),
		zap.String("cookie_file", l.config.cookiePath()),
		zap.String("storage_file", l.config.storagePath()))
	return nil
}
