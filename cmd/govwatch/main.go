package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/govwatch/govwatch/config"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Secrets (Telegram token and friends) can live in a .env next to the
	// binary. Absence is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Debugf("No .env loaded: %v", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	configPath := getEnv("GOVWATCH_CONFIG", config.DefaultPath)

	subcommand := os.Args[1]
	args := os.Args[2:]

	switch subcommand {
	case "run":
		handleRun(configPath, args)
	case "watch":
		handleWatch(configPath, args)
	case "sites":
		if len(args) < 1 {
			printSitesUsage()
			os.Exit(1)
		}
		handleSitesCommand(configPath, args[0], args[1:])
	case "history":
		handleHistory(configPath, args)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("govwatch - government site document watcher")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  govwatch <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run        Check all sites once and exit")
	fmt.Println("  watch      Run on a schedule until interrupted")
	fmt.Println("  sites      Inspect and toggle watched sites")
	fmt.Println("  history    Show recent archive entries")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GOVWATCH_CONFIG          Path to config file (default: govwatch.yaml)")
	fmt.Println("  GOVWATCH_TELEGRAM_TOKEN  Bot token for the telegram notifier")
}

func printSitesUsage() {
	fmt.Println("govwatch sites - Inspect and toggle watched sites")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  govwatch sites <action> [arguments]")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  list               List configured sites and their status")
	fmt.Println("  enable <site-id>   Re-enable a disabled site")
	fmt.Println("  disable <site-id>  Stop checking a site")
	fmt.Println("  help               Show this help message")
}
