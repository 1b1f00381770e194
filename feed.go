package govwatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// FetchFeedItems fetches an RSS or Atom listing feed and converts its
// entries to items in feed order (newest first for every feed we watch).
// The gofeed library detects the format, so a site can switch between RSS
// and Atom without a config change.
func FetchFeedItems(ctx context.Context, url string) ([]Item, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = browserUserAgent

	feed, err := fp.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry.Link == "" {
			continue
		}
		title := strings.Join(strings.Fields(entry.Title), " ")
		if title == "" {
			title = UntitledDocument
		}
		items = append(items, Item{Title: title, URL: entry.Link})
	}
	return items, nil
}
