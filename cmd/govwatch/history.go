package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/govwatch/govwatch"
)

func handleHistory(configPath string, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	n := fs.Int("n", 10, "Number of archive blocks to show (0 for all)")
	fs.Parse(args)

	cfg := loadConfig(configPath)

	archive := govwatch.NewArchive(cfg.ArchivePath)
	tail, err := archive.Tail(*n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if tail == "" {
		fmt.Println("Archive is empty.")
		return
	}
	fmt.Print(tail)
}
