package govwatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned HTML per URL and fails for anything else.
type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	html, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("fetch of %s returned status 503", url)
	}
	return html, nil
}

// spyNotifier records every push and can be told to fail.
type spyNotifier struct {
	calls []string
	fail  bool
}

func (n *spyNotifier) Notify(_ context.Context, topic, title, link string) error {
	if n.fail {
		return errors.New("push service down")
	}
	n.calls = append(n.calls, fmt.Sprintf("%s|%s|%s", topic, title, link))
	return nil
}

type watcherFixture struct {
	watcher  *Watcher
	fetcher  *fakeFetcher
	notifier *spyNotifier
	dir      string
}

func newWatcherFixture(t *testing.T, sites []Site) *watcherFixture {
	t.Helper()
	dir := t.TempDir()

	status, err := NewStatusStore(filepath.Join(dir, "status.db"))
	require.NoError(t, err)
	t.Cleanup(func() { status.Close() })

	fetcher := &fakeFetcher{pages: map[string]string{}}
	notifier := &spyNotifier{}

	return &watcherFixture{
		watcher: &Watcher{
			Sites:    sites,
			Fetcher:  fetcher,
			Notifier: notifier,
			States:   NewStateStore(filepath.Join(dir, "state.json")),
			Archive:  NewArchive(filepath.Join(dir, "history.md")),
			Status:   status,
			Now:      func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) },
		},
		fetcher:  fetcher,
		notifier: notifier,
		dir:      dir,
	}
}

func (f *watcherFixture) archiveContent(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, "history.md"))
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(t, err)
	return string(data)
}

func listingHTML(hrefs ...string) string {
	html := "<html><body><ul class=\"orders\">"
	for i, href := range hrefs {
		html += fmt.Sprintf(`<li><a href="%s">Order %d</a></li>`, href, i+1)
	}
	return html + "</ul></body></html>"
}

// TestWatcherRun_DiscoversAndNotifies verifies the full pass: extract,
// diff, archive, notify oldest first, persist state
func TestWatcherRun_DiscoversAndNotifies(t *testing.T) {
	site := Site{
		ID:       "dop",
		Name:     "DOP Orders",
		URL:      "https://dop.example.gov/news",
		Selector: "ul.orders a",
		Strategy: StrategyTrackAll,
		Topic:    "dop_alerts",
	}
	f := newWatcherFixture(t, []Site{site})
	f.fetcher.pages[site.URL] = listingHTML("/o2.pdf", "/o1.pdf")

	result, err := f.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.SitesChecked)
	assert.Zero(t, result.SitesFailed)
	assert.Equal(t, 2, result.NewItems)

	// Notifications go oldest first, so the page-bottom item leads.
	require.Len(t, f.notifier.calls, 2)
	assert.Equal(t, "dop_alerts|DOP Orders: Order 2|https://dop.example.gov/o1.pdf", f.notifier.calls[0])
	assert.Equal(t, "dop_alerts|DOP Orders: Order 1|https://dop.example.gov/o2.pdf", f.notifier.calls[1])

	archive := f.archiveContent(t)
	assert.Contains(t, archive, "### DOP Orders - 2026-03-14 09:30")
	assert.Contains(t, archive, "https://dop.example.gov/o2.pdf")

	state := f.watcher.States.Load()
	require.NotNil(t, state["dop"])
	assert.Len(t, state["dop"].SeenURLs, 2)
}

// TestWatcherRun_SecondRunQuiet verifies an unchanged page produces no new
// items, notifications, or archive writes on the next run
func TestWatcherRun_SecondRunQuiet(t *testing.T) {
	site := Site{
		ID:       "dop",
		Name:     "DOP Orders",
		URL:      "https://dop.example.gov/news",
		Selector: "ul.orders a",
		Strategy: StrategyTrackLatest,
	}
	f := newWatcherFixture(t, []Site{site})
	f.fetcher.pages[site.URL] = listingHTML("/o2.pdf", "/o1.pdf")

	_, err := f.watcher.Run(context.Background())
	require.NoError(t, err)
	firstArchive := f.archiveContent(t)
	f.notifier.calls = nil

	result, err := f.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.NewItems)
	assert.Empty(t, f.notifier.calls)
	assert.Equal(t, firstArchive, f.archiveContent(t), "archive must not grow on a quiet run")
}

// TestWatcherRun_FailedSiteDoesNotAbort verifies one broken site is logged
// and the rest of the run proceeds
func TestWatcherRun_FailedSiteDoesNotAbort(t *testing.T) {
	broken := Site{ID: "down", Name: "Down Site", URL: "https://down.example.gov/news", Selector: "a"}
	healthy := Site{ID: "up", Name: "Up Site", URL: "https://up.example.gov/news", Selector: "a", Strategy: StrategyTrackAll}

	f := newWatcherFixture(t, []Site{broken, healthy})
	f.fetcher.pages[healthy.URL] = listingHTML("/fresh.pdf")

	result, err := f.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.SitesChecked)
	assert.Equal(t, 1, result.SitesFailed)
	assert.Equal(t, 1, result.NewItems)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "down", result.Errors[0].Site.ID)

	status, err := f.watcher.Status.GetStatus("down")
	require.NoError(t, err)
	assert.Equal(t, 1, status.ErrorCount)
}

// TestWatcherRun_NotifyFailureKeepsItems verifies a dead push service never
// loses items: they are archived and the state still advances
func TestWatcherRun_NotifyFailureKeepsItems(t *testing.T) {
	site := Site{ID: "dop", Name: "DOP", URL: "https://dop.example.gov/news", Selector: "a", Strategy: StrategyTrackAll}
	f := newWatcherFixture(t, []Site{site})
	f.fetcher.pages[site.URL] = listingHTML("/o1.pdf")
	f.notifier.fail = true

	result, err := f.watcher.Run(context.Background())
	require.NoError(t, err, "notification failure must not fail the run")

	assert.Equal(t, 1, result.NewItems)
	assert.Contains(t, f.archiveContent(t), "o1.pdf")

	state := f.watcher.States.Load()
	require.NotNil(t, state["dop"])
	assert.Equal(t, []string{"https://dop.example.gov/o1.pdf"}, state["dop"].SeenURLs)
}

// TestWatcherRun_SkipsInvalidConfig verifies entries missing required
// fields are skipped without failing the run
func TestWatcherRun_SkipsInvalidConfig(t *testing.T) {
	invalid := Site{ID: "", Name: "No ID", URL: "https://x.example.gov/"}
	valid := Site{ID: "ok", Name: "OK", URL: "https://ok.example.gov/news", Selector: "a", Strategy: StrategyTrackAll}

	f := newWatcherFixture(t, []Site{invalid, valid})
	f.fetcher.pages[valid.URL] = listingHTML("/a.pdf")

	result, err := f.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.SitesSkipped)
	assert.Equal(t, 1, result.SitesChecked)
	assert.Zero(t, result.SitesFailed)
}

// TestWatcherRun_SkipsDisabledSite verifies a disabled site is neither
// fetched nor failed
func TestWatcherRun_SkipsDisabledSite(t *testing.T) {
	site := Site{ID: "dop", Name: "DOP", URL: "https://dop.example.gov/news", Selector: "a"}
	f := newWatcherFixture(t, []Site{site})
	require.NoError(t, f.watcher.Status.Disable("dop", time.Now()))

	result, err := f.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.SitesSkipped)
	assert.Zero(t, result.SitesChecked)
	assert.Zero(t, result.SitesFailed)
}

// TestWatcherRun_AutoDisableAfterThreshold verifies repeated failures
// disable a site and later runs skip it
func TestWatcherRun_AutoDisableAfterThreshold(t *testing.T) {
	site := Site{ID: "down", Name: "Down", URL: "https://down.example.gov/news", Selector: "a"}
	f := newWatcherFixture(t, []Site{site})
	f.watcher.DisableThreshold = 2

	for i := 0; i < 2; i++ {
		result, err := f.watcher.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, result.SitesFailed)
	}

	result, err := f.watcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.SitesSkipped, "third run should skip the disabled site")
	assert.Zero(t, result.SitesFailed)
}

// TestWatcherRun_EmptyPageLeavesState verifies a page with no items leaves
// the site's state untouched
func TestWatcherRun_EmptyPageLeavesState(t *testing.T) {
	site := Site{ID: "dop", Name: "DOP", URL: "https://dop.example.gov/news", Selector: "a", Strategy: StrategyTrackLatest}
	f := newWatcherFixture(t, []Site{site})
	f.fetcher.pages[site.URL] = listingHTML("/o1.pdf")

	_, err := f.watcher.Run(context.Background())
	require.NoError(t, err)

	// Site starts serving an empty maintenance page.
	f.fetcher.pages[site.URL] = "<html><body>maintenance</body></html>"
	result, err := f.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.NewItems)
	state := f.watcher.States.Load()
	require.NotNil(t, state["dop"])
	assert.Equal(t, "https://dop.example.gov/o1.pdf", state["dop"].LastSeenURL,
		"marker must survive an empty page")
}

// TestWatcherRun_RecordsRun verifies every pass leaves a run summary in the
// status store
func TestWatcherRun_RecordsRun(t *testing.T) {
	site := Site{ID: "dop", Name: "DOP", URL: "https://dop.example.gov/news", Selector: "a", Strategy: StrategyTrackAll}
	f := newWatcherFixture(t, []Site{site})
	f.fetcher.pages[site.URL] = listingHTML("/o1.pdf")

	result, err := f.watcher.Run(context.Background())
	require.NoError(t, err)

	runs, err := f.watcher.Status.ListRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].RunID)
	assert.Equal(t, 1, runs[0].SitesChecked)
	assert.Equal(t, 1, runs[0].NewItems)
}

// TestWatcherRun_TrackAllAcrossRuns verifies items that linger on the page
// are reported only once while genuinely new ones keep coming through
func TestWatcherRun_TrackAllAcrossRuns(t *testing.T) {
	site := Site{ID: "dop", Name: "DOP", URL: "https://dop.example.gov/news", Selector: "a", Strategy: StrategyTrackAll}
	f := newWatcherFixture(t, []Site{site})

	f.fetcher.pages[site.URL] = listingHTML("/o1.pdf")
	_, err := f.watcher.Run(context.Background())
	require.NoError(t, err)

	f.fetcher.pages[site.URL] = listingHTML("/o2.pdf", "/o1.pdf")
	result, err := f.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.NewItems, "only the new link should be reported")
}
