package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func handleRun(configPath string, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Show per-site errors")
	fs.Parse(args)

	cfg := loadConfig(configPath)
	if len(cfg.Sites) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no sites configured in %s\n", configPath)
		os.Exit(1)
	}

	watcher, status, err := buildWatcher(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer status.Close()

	result, err := watcher.Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: run failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Run completed:")
	fmt.Printf("  Sites checked: %d\n", result.SitesChecked)
	fmt.Printf("  Sites failed:  %d\n", result.SitesFailed)
	fmt.Printf("  Sites skipped: %d\n", result.SitesSkipped)
	fmt.Printf("  New items:     %d\n", result.NewItems)

	if len(result.Errors) > 0 && *verbose {
		fmt.Println()
		fmt.Println("Errors:")
		for _, siteErr := range result.Errors {
			fmt.Printf("  - %s: %v\n", siteErr.Site.Name, siteErr.Err)
		}
	}

	if result.SitesFailed > 0 {
		os.Exit(1)
	}
}
