package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/govwatch/govwatch"
	"github.com/govwatch/govwatch/config"
)

// loadConfig loads and validates the config file, exiting on failure.
func loadConfig(configPath string) *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := config.ConfigureLogging(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// buildFetcher creates the fetcher the config asks for.
func buildFetcher(cfg *config.Config) (govwatch.Fetcher, error) {
	switch cfg.Fetcher.Kind {
	case "http", "":
		return govwatch.NewHTTPFetcher(cfg.Fetcher.TimeoutDuration(), cfg.Fetcher.InsecureTLS), nil
	case "colly":
		return govwatch.NewCollyFetcher(cfg.Fetcher.TimeoutDuration(), cfg.Fetcher.InsecureTLS), nil
	default:
		return nil, fmt.Errorf("unknown fetcher kind %q", cfg.Fetcher.Kind)
	}
}

// buildNotifier creates the notifier the config asks for. Kind "none"
// returns nil, which the watcher treats as notifications off.
func buildNotifier(cfg *config.Config) (govwatch.Notifier, error) {
	switch cfg.Notify.Kind {
	case "ntfy", "":
		return govwatch.NewNtfyNotifier(cfg.Notify.NtfyBaseURL), nil
	case "telegram":
		token := os.Getenv("GOVWATCH_TELEGRAM_TOKEN")
		if token == "" {
			return nil, fmt.Errorf("telegram notifier needs GOVWATCH_TELEGRAM_TOKEN")
		}
		if cfg.Notify.TelegramChatID == 0 {
			return nil, fmt.Errorf("telegram notifier needs notify.telegram_chat_id")
		}
		return govwatch.NewTelegramNotifier(token, cfg.Notify.TelegramChatID)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown notifier kind %q", cfg.Notify.Kind)
	}
}

// buildWatcher assembles a watcher and its status store from the config.
// The caller closes the returned store.
func buildWatcher(cfg *config.Config) (*govwatch.Watcher, *govwatch.StatusStore, error) {
	fetcher, err := buildFetcher(cfg)
	if err != nil {
		return nil, nil, err
	}
	notifier, err := buildNotifier(cfg)
	if err != nil {
		return nil, nil, err
	}
	status, err := govwatch.NewStatusStore(cfg.StatusDB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open status store: %w", err)
	}

	w := &govwatch.Watcher{
		Sites:            cfg.Sites,
		Fetcher:          fetcher,
		Notifier:         notifier,
		States:           govwatch.NewStateStore(cfg.StatePath),
		Archive:          govwatch.NewArchive(cfg.ArchivePath),
		Status:           status,
		DisableThreshold: cfg.DisableThreshold,
	}
	return w, status, nil
}

// truncate shortens a string for table display without splitting a rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}
