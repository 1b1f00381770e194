package govwatch

import "fmt"

// Strategy selects how a site's currently visible links are diffed
// against persisted state.
type Strategy string

const (
	// StrategyTrackAll reports every visible link that is absent from the
	// persisted seen set. Suited to pages where old entries linger.
	StrategyTrackAll Strategy = "track_all"

	// StrategyTrackLatest reports everything above the previously recorded
	// top link. Suited to pages that list newest entries first and
	// eventually rotate old ones out.
	StrategyTrackLatest Strategy = "track_latest"
)

// SourceType identifies how a site's listing is retrieved.
type SourceType string

const (
	// SourcePage is an HTML listing page scraped with a CSS selector.
	SourcePage SourceType = "page"

	// SourceFeed is an RSS or Atom feed of the same listing.
	SourceFeed SourceType = "feed"
)

// DefaultTopic is the notification topic used when a site doesn't set one.
const DefaultTopic = "general_alerts"

// Site is one configured watch target.
type Site struct {
	ID       string     `yaml:"id" json:"id"`
	Name     string     `yaml:"name" json:"name"`
	URL      string     `yaml:"url" json:"url"`
	Type     SourceType `yaml:"type,omitempty" json:"type,omitempty"`
	Selector string     `yaml:"selector,omitempty" json:"selector,omitempty"`
	BaseURL  string     `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Strategy Strategy   `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	Topic    string     `yaml:"topic,omitempty" json:"topic,omitempty"`
}

// Validate checks that the fields required to watch the site are present.
func (s *Site) Validate() error {
	if s.ID == "" || s.Name == "" || s.URL == "" {
		return fmt.Errorf("site entry missing required fields (id, name, url)")
	}
	return nil
}

// ApplyDefaults fills in the optional fields the way an omitted config
// value should behave.
func (s *Site) ApplyDefaults() {
	if s.Type == "" {
		s.Type = SourcePage
	}
	if s.Strategy == "" {
		s.Strategy = StrategyTrackLatest
	}
	if s.Topic == "" {
		s.Topic = DefaultTopic
	}
}

// Item is one document link discovered on a listing page, with its
// whitespace-collapsed anchor text and fully resolved URL.
type Item struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
