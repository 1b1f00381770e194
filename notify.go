package govwatch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Notifier delivers a push notification for one newly discovered item.
// Delivery is best-effort: callers log returned errors and move on, they
// never abort a run over a failed push.
type Notifier interface {
	Notify(ctx context.Context, topic, title, link string) error
}

// DefaultNtfyBaseURL is the public ntfy instance.
const DefaultNtfyBaseURL = "https://ntfy.sh"

// NtfyNotifier publishes to an ntfy topic with a plain HTTP POST.
type NtfyNotifier struct {
	baseURL string
	header  string
	client  *http.Client

	// Delay paces consecutive posts so a run that finds a backlog of items
	// doesn't hammer the service.
	Delay time.Duration
}

// NewNtfyNotifier creates an ntfy notifier. An empty baseURL uses the
// public ntfy.sh instance.
func NewNtfyNotifier(baseURL string) *NtfyNotifier {
	if baseURL == "" {
		baseURL = DefaultNtfyBaseURL
	}
	return &NtfyNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		header:  "New Gov Order",
		client:  &http.Client{Timeout: 5 * time.Second},
		Delay:   500 * time.Millisecond,
	}
}

// Notify implements the Notifier interface. The body is the item title and
// link on separate lines, which ntfy renders as message text under the
// Title header.
func (n *NtfyNotifier) Notify(ctx context.Context, topic, title, link string) error {
	body := strings.NewReader(title + "\n" + link)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/"+topic, body)
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Title", n.header)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification failed for %s: %w", topic, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 100))
		return fmt.Errorf("ntfy returned %d for %s: %s", resp.StatusCode, topic, snippet)
	}

	if n.Delay > 0 {
		time.Sleep(n.Delay)
	}
	return nil
}
