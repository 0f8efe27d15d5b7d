package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	url := flag.String("url", "", "Target product URL (overrides config)")
	doLogin := flag.Bool("login", false, "Open a browser to log in and export session data")
	doCheck := flag.Bool("check", false, "Check product availability over HTTP and exit")
	doMonitor := flag.Bool("monitor", false, "Poll the product page until it restocks")
	autoBuy := flag.Bool("auto-buy", false, "Start the purchase as soon as the monitor sees stock")
	headless := flag.Bool("headless", false, "Run the browser headless")
	debug := flag.Bool("debug", false, "Enable detailed debug logging")
	interval := flag.Int("interval", 0, "Seconds between monitor checks (overrides config)")
	maxChecks := flag.Int("max-checks", 0, "Maximum monitor checks (overrides config)")
	flag.Parse()

	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *url != "" {
		config.TargetProduct = *url
	}
	if *headless {
		config.Headless = true
	}
	if *debug {
		config.DebugMode = true
	}
	if *interval > 0 {
		config.MonitorIntervalSeconds = *interval
	}
	if *maxChecks > 0 {
		config.MonitorMaxChecks = *maxChecks
	}

	// Login only needs the login page, not a target product.
	if !*doLogin {
		if err := config.Validate(); err != nil {
			log.Fatalf("Invalid config: %v", err)
		}
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║              LabuBot PopMart Checkout Assistant           ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Target URL: %s\n", config.TargetProduct)
	fmt.Println()

	logger, err := NewLogger(config.DebugMode)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logger.Sync()

	if missing := config.MissingSelectors(); len(missing) > 0 {
		logger.Warn("Selector entries are empty; their steps will fail by timeout",
			zap.Strings("selectors", missing))
	}

	switch {
	case *doLogin:
		runLogin(config, logger)
	case *doCheck:
		runCheck(config, logger)
	case *doMonitor:
		runMonitor(config, logger, *autoBuy)
	default:
		runPurchase(config, logger)
	}
}

func runLogin(config *Config, logger *zap.Logger) {
	login := NewLogin(config, NewRodDriver(config), logger)
	if err := login.Run(); err != nil {
		logger.Error("Login failed", zap.Error(err))
		os.Exit(1)
	}
	fmt.Println()
	fmt.Println("✓ Session data exported. You can now run an automated purchase.")
}

func runCheck(config *Config, logger *zap.Logger) {
	monitor := NewMonitor(config, logger)
	result, err := monitor.Check(config.TargetProduct)
	if err != nil {
		logger.Error("Availability check failed", zap.Error(err))
		os.Exit(1)
	}

	if result.InStock {
		fmt.Printf("✓ In stock (HTTP %d): %s\n", result.StatusCode, result.URL)
		return
	}
	fmt.Printf("✗ Not available (HTTP %d", result.StatusCode)
	if result.Indicator != "" {
		fmt.Printf(", %q", result.Indicator)
	}
	fmt.Printf("): %s\n", result.URL)
	os.Exit(1)
}

func runMonitor(config *Config, logger *zap.Logger, autoBuy bool) {
	monitor := NewMonitor(config, logger)
	result, err := monitor.WaitForRestock(config.TargetProduct)
	if err != nil {
		logger.Error("Monitoring ended without stock", zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("✓ Product %s is in stock!\n", result.ProductID)
	if autoBuy {
		runPurchase(config, logger)
	}
}

func runPurchase(config *Config, logger *zap.Logger) {
	session, err := LoadSessionData(config)
	if err != nil {
		logger.Error("Session data not available, run with -login first", zap.Error(err))
		os.Exit(1)
	}

	checkout := NewCheckout(config, NewRodDriver(config), session, logger)
	if err := checkout.Run(); err != nil {
		logger.Error("Automated purchase failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("✓ Checkout process completed")
}
