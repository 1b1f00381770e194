package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

func handleWatch(configPath string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runOnce := func() {
		if _, err := watcher.Run(ctx); err != nil {
			log.Errorf("Watcher run failed: %v", err)
		}
	}

	// First pass immediately, then on the schedule. SkipIfStillRunning
	// keeps a slow pass from overlapping the next tick.
	runOnce()

	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	if _, err := scheduler.AddFunc(cfg.Schedule, runOnce); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid schedule %q: %v\n", cfg.Schedule, err)
		os.Exit(1)
	}
	scheduler.Start()
	log.Infof("Watching %d sites on schedule %q", len(cfg.Sites), cfg.Schedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down...")
	cancel()
	// Let an in-flight pass finish before exiting.
	<-scheduler.Stop().Done()
}
