package main

// Store URLs. The login page redirects back to the account page after a
// successful sign-in, which is how the login flow detects completion.
const (
	BaseURL      = "https://www.popmart.com"
	LoginPageURL = "https://www.popmart.com/us/user/login?redirect=%2Faccount"
)

// OutOfStockIndicators are the phrases a product page shows when the item
// cannot be bought. The HTTP monitor scans the lowercased page body for them.
var OutOfStockIndicators = []string{
	"out of stock",
	"sold out",
	"not available",
	"unavailable",
	"coming soon",
}

// Locators is the single selector surface the flows work against. It is a
// read-only view over the loaded selector map; nothing fills in blanks, so
// an empty entry surfaces later as a wait timeout at its step.
type Locators struct {
	Agreement     string
	LoginField    string
	LoginBtn      string
	PasswordField string
	BuyNow        string
	GoToCart      string
	Checkout      string
	Checkbox      string
	Pay           string
	Ordering      string
}

func (c *Config) Locators() Locators {
	return Locators{
		Agreement:     c.Selectors.Agreement,
		LoginField:    c.Selectors.LoginField,
		LoginBtn:      c.Selectors.LoginBtn,
		PasswordField: c.Selectors.PasswordField,
		BuyNow:        c.Selectors.BuyNow,
		GoToCart:      c.Selectors.GoToCart,
		Checkout:      c.Selectors.Checkout,
		Checkbox:      c.Selectors.Checkbox,
		Pay:           c.Selectors.Pay,
		Ordering:      c.Selectors.Ordering,
	}
}
