package govwatch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// UntitledDocument is the title used for anchors with no visible text.
const UntitledDocument = "Untitled Document"

// ExtractItems pulls document links out of listing-page HTML. When the site
// has a selector, matched anchors are used directly and matched containers
// (ul, table, div links lists) contribute their descendant anchors. Without
// a selector, every link ending in .pdf is taken, which covers the common
// gov-site "pile of order PDFs" layout.
func ExtractItems(html string, site *Site) ([]Item, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var anchors []*goquery.Selection
	if site.Selector != "" {
		doc.Find(site.Selector).Each(func(_ int, sel *goquery.Selection) {
			if goquery.NodeName(sel) == "a" {
				anchors = append(anchors, sel)
				return
			}
			sel.Find("a").Each(func(_ int, a *goquery.Selection) {
				anchors = append(anchors, a)
			})
		})
	} else {
		doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			anchors = append(anchors, a)
		})
	}

	// Relative hrefs resolve against base_url, falling back to the page URL.
	resolveBase := site.BaseURL
	if resolveBase == "" {
		resolveBase = site.URL
	}
	base, err := url.Parse(resolveBase)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", resolveBase, err)
	}

	var items []Item
	for _, a := range anchors {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			continue
		}

		// Generic fallback: without a selector, only document links count.
		if site.Selector == "" && !strings.HasSuffix(strings.ToLower(href), ".pdf") {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		fullLink := base.ResolveReference(ref).String()

		title := strings.Join(strings.Fields(a.Text()), " ")
		if title == "" {
			title = UntitledDocument
		}

		items = append(items, Item{Title: title, URL: fullLink})
	}

	return items, nil
}
