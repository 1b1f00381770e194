package govwatch

// MaxSeenURLs caps the track_all seen list. When the list grows past this
// bound the oldest entries are dropped.
const MaxSeenURLs = 1000

// Diff compares the currently visible items against the site's persisted
// state and returns the ones not seen before, in page order (newest first
// when the page lists newest first). The state is updated in place to
// reflect the new observations; the caller decides whether to persist it.
func Diff(strategy Strategy, items []Item, st *SiteState) []Item {
	switch strategy {
	case StrategyTrackAll:
		return diffTrackAll(items, st)
	default:
		return diffTrackLatest(items, st)
	}
}

// diffTrackAll reports every item whose URL is absent from the seen set.
// New URLs are appended to the seen list, which is then capped at
// MaxSeenURLs by dropping the oldest entries.
func diffTrackAll(items []Item, st *SiteState) []Item {
	seen := make(map[string]struct{}, len(st.SeenURLs))
	for _, u := range st.SeenURLs {
		seen[u] = struct{}{}
	}

	var newItems []Item
	for _, item := range items {
		if _, ok := seen[item.URL]; ok {
			continue
		}
		newItems = append(newItems, item)
		st.SeenURLs = append(st.SeenURLs, item.URL)
		seen[item.URL] = struct{}{}
	}

	if len(st.SeenURLs) > MaxSeenURLs {
		st.SeenURLs = st.SeenURLs[len(st.SeenURLs)-MaxSeenURLs:]
	}

	return newItems
}

// diffTrackLatest walks items from the top of the page until the previously
// recorded top link is found (or the list is exhausted); everything before
// that boundary is new. Only the new top link is persisted as the marker,
// so a page that rotates several entries between runs still reports all of
// them.
func diffTrackLatest(items []Item, st *SiteState) []Item {
	if len(items) == 0 {
		return nil
	}

	top := items[0]
	if top.URL == st.LastSeenURL {
		return nil
	}

	var newItems []Item
	for _, item := range items {
		if item.URL == st.LastSeenURL {
			break
		}
		newItems = append(newItems, item)
	}

	st.LastSeenURL = top.URL
	return newItems
}
