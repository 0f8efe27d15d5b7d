package main

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration renders an elapsed time the way it is logged at the end of
// a purchase: seconds under a minute, then minute and hour breakdowns.
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()

	if seconds < 60 {
		return fmt.Sprintf("%.2fs", seconds)
	}

	if seconds < 3600 {
		minutes := int(seconds) / 60
		return fmt.Sprintf("%dm %.1fs", minutes, seconds-float64(minutes*60))
	}

	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	rest := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%dh %dm %.1fs", hours, minutes, rest)
}

// ExtractProductID pulls the numeric ID out of a product URL like
// https://www.popmart.com/us/products/1372/some-product-name.
func ExtractProductID(url string) string {
	parts := strings.Split(url, "/")
	for i, part := range parts {
		if part == "products" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func ValidateURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
