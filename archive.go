package govwatch

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// archiveSeparator ends every archive block.
const archiveSeparator = "\n---\n\n"

// Archive is the markdown history file of everything the watcher has ever
// reported. New blocks are prepended so the newest discoveries stay at the
// top.
type Archive struct {
	path string
}

// NewArchive creates an archive backed by the given markdown file path.
func NewArchive(path string) *Archive {
	return &Archive{path: path}
}

// Append prepends a dated block for the site's new items. Prior content is
// always preserved; if the existing file cannot be read, nothing is written
// and the error is returned rather than risking an archive missing history.
func (a *Archive) Append(siteName string, items []Item, now time.Time) error {
	var block strings.Builder
	fmt.Fprintf(&block, "### %s - %s\n", siteName, now.Format("2006-01-02 15:04"))
	for _, item := range items {
		// Square brackets break the link syntax; angle brackets keep URLs
		// with parentheses intact.
		title := strings.ReplaceAll(item.Title, "[", "\\[")
		title = strings.ReplaceAll(title, "]", "\\]")
		fmt.Fprintf(&block, "- [%s](<%s>)\n", title, item.URL)
	}
	block.WriteString(archiveSeparator)

	current, err := os.ReadFile(a.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	if err := writeFileAtomic(a.path, append([]byte(block.String()), current...)); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}

// Tail returns the most recent n blocks of the archive. n <= 0 returns the
// whole file.
func (a *Archive) Tail(n int) (string, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read archive: %w", err)
	}

	if n <= 0 {
		return string(data), nil
	}

	blocks := strings.SplitAfter(string(data), archiveSeparator)
	if len(blocks) > n {
		blocks = blocks[:n]
	}
	return strings.Join(blocks, ""), nil
}
