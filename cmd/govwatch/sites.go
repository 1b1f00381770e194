package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/govwatch/govwatch"
)

func handleSitesCommand(configPath, action string, args []string) {
	switch action {
	case "list":
		handleSitesList(configPath, args)
	case "enable":
		handleSitesToggle(configPath, args, true)
	case "disable":
		handleSitesToggle(configPath, args, false)
	case "help", "--help", "-h":
		printSitesUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown sites command: %s\n\n", action)
		printSitesUsage()
		os.Exit(1)
	}
}

func handleSitesList(configPath string, args []string) {
	fs := flag.NewFlagSet("sites list", flag.ExitOnError)
	fs.Parse(args)

	cfg := loadConfig(configPath)
	if len(cfg.Sites) == 0 {
		fmt.Println("No sites configured.")
		return
	}

	status, err := govwatch.NewStatusStore(cfg.StatusDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open status store: %v\n", err)
		os.Exit(1)
	}
	defer status.Close()

	fmt.Printf("%-16s %-24s %-12s %-10s %-18s %s\n",
		"ID", "NAME", "STRATEGY", "STATE", "LAST CHECKED", "LAST ERROR")

	for _, site := range cfg.Sites {
		st, err := status.GetStatus(site.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read status for %s: %v\n", site.ID, err)
			os.Exit(1)
		}

		state := "enabled"
		if st.DisabledAt != nil {
			state = "disabled"
		}

		lastChecked := "never"
		if st.LastCheckedAt != nil {
			lastChecked = st.LastCheckedAt.Format("2006-01-02 15:04")
		}

		lastError := ""
		if st.LastError != nil {
			lastError = truncate(*st.LastError, 40)
		}

		fmt.Printf("%-16s %-24s %-12s %-10s %-18s %s\n",
			truncate(site.ID, 16), truncate(site.Name, 24), site.Strategy,
			state, lastChecked, lastError)
	}
}

func handleSitesToggle(configPath string, args []string, enable bool) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: site id required")
		os.Exit(1)
	}
	siteID := args[0]

	cfg := loadConfig(configPath)

	found := false
	for _, site := range cfg.Sites {
		if site.ID == siteID {
			found = true
			break
		}
	}
	if !found {
		fmt.Fprintf(os.Stderr, "Error: site %q not in config\n", siteID)
		os.Exit(1)
	}

	status, err := govwatch.NewStatusStore(cfg.StatusDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open status store: %v\n", err)
		os.Exit(1)
	}
	defer status.Close()

	if enable {
		err = status.Enable(siteID)
	} else {
		err = status.Disable(siteID, time.Now())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if enable {
		fmt.Printf("Site %s enabled.\n", siteID)
	} else {
		fmt.Printf("Site %s disabled.\n", siteID)
	}
}
