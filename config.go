package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	TargetProduct string `yaml:"target_product"`

	DataDir     string `yaml:"data_dir"`
	CookieFile  string `yaml:"cookie_file"`
	StorageFile string `yaml:"storage_file"`

	BrowserProfilePath string `yaml:"browser_profile_path"`

	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`

	PageLoadTimeout     int `yaml:"page_load_timeout"`
	LoginTimeoutSeconds int `yaml:"login_timeout_seconds"`

	BuyNowTimeoutMs   int `yaml:"buy_now_timeout_ms"`
	BuyNowMaxAttempts int `yaml:"buy_now_max_attempts"`
	GoToCartTimeoutMs int `yaml:"go_to_cart_timeout_ms"`
	CheckoutTimeoutMs int `yaml:"checkout_timeout_ms"`
	PayTimeoutMs      int `yaml:"pay_timeout_ms"`

	SettleDelaySeconds int `yaml:"settle_delay_seconds"`
	PaymentHoldSeconds int `yaml:"payment_hold_seconds"`

	MonitorIntervalSeconds int `yaml:"monitor_interval_seconds"`
	MonitorMaxChecks       int `yaml:"monitor_max_checks"`

	Headless               bool `yaml:"headless"`
	KeepBrowserOpenOnError bool `yaml:"keep_browser_open_on_error"`
	DebugMode              bool `yaml:"debug_mode"`

	Selectors SelectorConfig `yaml:"selectors"`
}

type SelectorConfig struct {
	Agreement     string `yaml:"agreement"`
	LoginField    string `yaml:"login_field"`
	LoginBtn      string `yaml:"login_btn"`
	PasswordField string `yaml:"password_field"`
	BuyNow        string `yaml:"buy_now"`
	GoToCart      string `yaml:"go_to_cart"`
	Checkout      string `yaml:"checkout"`
	Checkbox      string `yaml:"checkbox"`
	Pay           string `yaml:"pay"`
	Ordering      string `yaml:"ordering"`
}

func DefaultConfig() *Config {
	return &Config{
		Username:      "",
		Password:      "",
		TargetProduct: "https://www.popmart.com/us/products/1372/THE-MONSTERS---Have-a-Seat-Vinyl-Plush-Blind-Box",

		DataDir:     "_data",
		CookieFile:  "www.popmart.com.cookies.json",
		StorageFile: "www.popmart.com.storage.json",

		BrowserProfilePath: "",

		ViewportWidth:  1080,
		ViewportHeight: 1024,

		PageLoadTimeout:     30,
		LoginTimeoutSeconds: 300,

		BuyNowTimeoutMs:   3000,
		BuyNowMaxAttempts: 0, // 0 = retry until found
		GoToCartTimeoutMs: 5000,
		CheckoutTimeoutMs: 1000,
		PayTimeoutMs:      8000,

		SettleDelaySeconds: 5,
		PaymentHoldSeconds: 1000,

		MonitorIntervalSeconds: 30,
		MonitorMaxChecks:       100,

		Headless:               false,
		KeepBrowserOpenOnError: false,
		DebugMode:              false,

		Selectors: SelectorConfig{
			Agreement:     ".policy_acceptBtn__ZNU71",
			LoginField:    ".index_loginInput__HBgjq",
			LoginBtn:      ".index_loginButton__O6r8l",
			PasswordField: "#password",
			BuyNow:        ".index_usBtn__2KlEx.index_red__kx6Ql.index_btnFull__F7k90",
			GoToCart:      ".ant-btn.ant-btn-primary.ant-btn-dangerous.index_noticeFooterBtn__XpFsc",
			Checkout:      ".ant-btn.ant-btn-primary.ant-btn-dangerous.index_checkout__V9YPC",
			Checkbox:      ".index_checkbox__w_166",
			Pay:           "#__next > div > div > div.layout_pcLayout__49ZwP > div.index_container__SNJGT > div.index_leftContainer__3Roux > div > button",
			Ordering:      "#buttons-container > div > div.paypal-button-row.paypal-button-number-0.paypal-button-layout-horizontal.paypal-button-number-multiple.paypal-button-env-production.paypal-button-color-black.paypal-button-text-color-white.paypal-logo-color-white.paypal-button-shape-rect",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	if config.DataDir != "" {
		if err := os.MkdirAll(config.DataDir, 0755); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the settings main needs before driving a browser.
// The checkout flow itself does not validate selectors up front: an empty
// or wrong selector still fails at its own wait step, by timeout.
func (c *Config) Validate() error {
	if c.TargetProduct == "" {
		return fmt.Errorf("target_product is required")
	}
	if !ValidateURL(c.TargetProduct) {
		return fmt.Errorf("target_product must be an http(s) URL, got %q", c.TargetProduct)
	}
	if c.PageLoadTimeout <= 0 {
		return fmt.Errorf("page_load_timeout must be positive, got %d", c.PageLoadTimeout)
	}
	if c.BuyNowTimeoutMs <= 0 {
		return fmt.Errorf("buy_now_timeout_ms must be positive, got %d", c.BuyNowTimeoutMs)
	}
	return nil
}

// MissingSelectors reports which selector keys are empty, so main can warn
// before the corresponding step times out mid-flow.
func (c *Config) MissingSelectors() []string {
	keys := []struct {
		name  string
		value string
	}{
		{"agreement", c.Selectors.Agreement},
		{"login_field", c.Selectors.LoginField},
		{"login_btn", c.Selectors.LoginBtn},
		{"password_field", c.Selectors.PasswordField},
		{"buy_now", c.Selectors.BuyNow},
		{"go_to_cart", c.Selectors.GoToCart},
		{"checkout", c.Selectors.Checkout},
		{"checkbox", c.Selectors.Checkbox},
		{"pay", c.Selectors.Pay},
		{"ordering", c.Selectors.Ordering},
	}

	var missing []string
	for _, k := range keys {
		if strings.TrimSpace(k.value) == "" {
			missing = append(missing, k.name)
		}
	}
	return missing
}
