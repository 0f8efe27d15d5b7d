package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SessionCookie mirrors the cookie records the login flow exports. The JSON
// field names match the files older exports produced, so existing cookie
// files keep loading.
type SessionCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expiry,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
}

// SessionData is the seed injected before a purchase: cookies plus local
// storage captured from a logged-in browser.
type SessionData struct {
	Cookies      []SessionCookie `json:"cookies"`
	LocalStorage map[string]any  `json:"local_storage"`
	ExportTime   time.Time       `json:"export_time"`
}

func (c *Config) cookiePath() string {
	return filepath.Join(c.DataDir, c.CookieFile)
}

func (c *Config) storagePath() string {
	return filepath.Join(c.DataDir, c.StorageFile)
}

// SaveSessionData writes the cookie and storage files under the data dir.
func SaveSessionData(config *Config, session *SessionData) error {
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	cookieData, err := json.MarshalIndent(session.Cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}
	if err := os.WriteFile(config.cookiePath(), cookieData, 0600); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}

	storageData, err := json.MarshalIndent(session.LocalStorage, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal local storage: %w", err)
	}
	if err := os.WriteFile(config.storagePath(), storageData, 0600); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}

	return nil
}

// LoadSessionData reads a previously exported session seed. Both files must
// exist; a purchase without them cannot authenticate.
func LoadSessionData(config *Config) (*SessionData, error) {
	cookieData, err := os.ReadFile(config.cookiePath())
	if err != nil {
		return nil, fmt.Errorf("session cookies not found (log in first): %w", err)
	}

	storageData, err := os.ReadFile(config.storagePath())
	if err != nil {
		return nil, fmt.Errorf("session storage not found (log in first): %w", err)
	}

	session := &SessionData{}
	if err := json.Unmarshal(cookieData, &session.Cookies); err != nil {
		return nil, fmt.Errorf("failed to parse cookie file: %w", err)
	}
	if err := json.Unmarshal(storageData, &session.LocalStorage); err != nil {
		return nil, fmt.Errorf("failed to parse storage file: %w", err)
	}

	return session, nil
}
