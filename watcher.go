package govwatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// DefaultDisableThreshold is the number of consecutive failures after which
// a site is auto-disabled.
const DefaultDisableThreshold = 10

// Watcher runs the check-diff-archive-notify pass over a set of sites.
// Sites are checked sequentially; one run never overlaps another.
type Watcher struct {
	Sites    []Site
	Fetcher  Fetcher
	Notifier Notifier
	States   *StateStore
	Archive  *Archive
	Status   *StatusStore

	// DisableThreshold is the consecutive-failure count that disables a
	// site. Zero means DefaultDisableThreshold; negative disables the
	// mechanism.
	DisableThreshold int

	// Now is swappable for tests. Nil means time.Now.
	Now func() time.Time
}

// SiteError pairs a site with the error that failed its check.
type SiteError struct {
	Site Site
	Err  error
}

// RunResult summarizes one watcher pass.
type RunResult struct {
	RunID        uuid.UUID
	SitesChecked int
	SitesFailed  int
	SitesSkipped int
	NewItems     int
	Errors       []SiteError
}

// Run performs one watcher pass: every enabled site is fetched, its links
// are diffed against persisted state, new items are archived and notified,
// and the updated state is written back atomically at the end. Per-site
// failures are logged and skipped; only a failure to persist state makes
// the whole run fail.
func (w *Watcher) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{RunID: uuid.New()}
	startedAt := w.timeNow()

	log.Infof("Starting watcher run %s", result.RunID)

	state := w.States.Load()

	for i := range w.Sites {
		site := w.Sites[i]
		site.ApplyDefaults()

		if err := site.Validate(); err != nil {
			log.Warnf("Config entry %d skipped: %v", i, err)
			result.SitesSkipped++
			continue
		}

		if w.siteDisabled(site.ID) {
			log.Debugf("Skipping disabled site %s", site.ID)
			result.SitesSkipped++
			continue
		}

		log.Infof("Checking %s (%s)...", site.Name, site.URL)

		items, err := w.collect(ctx, &site)
		if err != nil {
			log.Warnf("Failed to check %s, skipping: %v", site.Name, err)
			w.recordFailure(site, err)
			result.SitesFailed++
			result.Errors = append(result.Errors, SiteError{Site: site, Err: err})
			continue
		}

		result.SitesChecked++

		if len(items) == 0 {
			log.Infof("  No items found on %s", site.Name)
			w.recordSuccess(site)
			continue
		}

		st := state[site.ID]
		if st == nil {
			st = &SiteState{}
		}

		newItems := Diff(site.Strategy, items, st)
		if len(newItems) > 0 {
			log.Infof("  Found %d new items for %s", len(newItems), site.Name)
			result.NewItems += len(newItems)

			// Archive before notifying so a flaky push service can't lose
			// items.
			if err := w.Archive.Append(site.Name, newItems, w.timeNow()); err != nil {
				log.Errorf("Error writing archive for %s: %v", site.Name, err)
			}
			w.notify(ctx, &site, newItems)
		} else {
			log.Debugf("  No new updates for %s", site.Name)
		}

		state[site.ID] = st
		w.recordSuccess(site)
	}

	if err := w.States.Save(state); err != nil {
		return result, fmt.Errorf("failed to save state: %w", err)
	}

	w.recordRun(result, startedAt, w.timeNow())
	log.Infof("Watcher run completed: %d checked, %d failed, %d new items",
		result.SitesChecked, result.SitesFailed, result.NewItems)
	return result, nil
}

// collect retrieves the site's currently visible items.
func (w *Watcher) collect(ctx context.Context, site *Site) ([]Item, error) {
	if site.Type == SourceFeed {
		return FetchFeedItems(ctx, site.URL)
	}

	html, err := w.Fetcher.Fetch(ctx, site.URL)
	if err != nil {
		return nil, err
	}
	return ExtractItems(html, site)
}

// notify pushes one notification per new item, oldest first so a phone
// shows them in the order they appeared on the page. Failures are logged
// and swallowed.
func (w *Watcher) notify(ctx context.Context, site *Site, newItems []Item) {
	if w.Notifier == nil {
		return
	}
	for i := len(newItems) - 1; i >= 0; i-- {
		item := newItems[i]
		title := fmt.Sprintf("%s: %s", site.Name, item.Title)
		if err := w.Notifier.Notify(ctx, site.Topic, title, item.URL); err != nil {
			log.Warnf("Notification failed for %s: %v", site.Topic, err)
		}
	}
}

func (w *Watcher) siteDisabled(siteID string) bool {
	if w.Status == nil {
		return false
	}
	status, err := w.Status.GetStatus(siteID)
	if err != nil {
		log.Warnf("Failed to read status for %s: %v", siteID, err)
		return false
	}
	return status.DisabledAt != nil
}

func (w *Watcher) recordSuccess(site Site) {
	if w.Status == nil {
		return
	}
	if err := w.Status.RecordSuccess(site.ID, w.timeNow()); err != nil {
		log.Warnf("Failed to record success for %s: %v", site.ID, err)
	}
}

func (w *Watcher) recordFailure(site Site, failure error) {
	if w.Status == nil {
		return
	}
	threshold := w.DisableThreshold
	if threshold == 0 {
		threshold = DefaultDisableThreshold
	}
	disabled, err := w.Status.RecordFailure(site.ID, w.timeNow(), failure, threshold)
	if err != nil {
		log.Warnf("Failed to record failure for %s: %v", site.ID, err)
		return
	}
	if disabled {
		log.Errorf("Auto-disabling site %s (%s) after %d consecutive failures",
			site.Name, site.URL, threshold)
	}
}

func (w *Watcher) recordRun(result *RunResult, startedAt, finishedAt time.Time) {
	if w.Status == nil {
		return
	}
	run := &Run{
		RunID:        result.RunID,
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
		SitesChecked: result.SitesChecked,
		SitesFailed:  result.SitesFailed,
		NewItems:     result.NewItems,
	}
	if err := w.Status.RecordRun(run); err != nil {
		log.Warnf("Failed to record run: %v", err)
	}
}

func (w *Watcher) timeNow() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}
