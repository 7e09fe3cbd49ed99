package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tvshows/internal/config"
)

const userAgent = "tv-shows/1.0.0"

// Event names a notification the CLI can publish.
type Event string

const (
	EventOrganizeCompleted Event = "organize_completed"
	EventDeleteFailed      Event = "delete_failed"
	EventEpisodesRemoved   Event = "episodes_removed"
	EventPlexLinked        Event = "plex_linked"
	EventError             Event = "error"
	EventTest              Event = "test"
)

// Payload carries event-specific values. Keys are documented per event in
// format.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventOrganizeCompleted:
		moved := payload.count("moved")
		if moved == 0 {
			return message{}, false
		}
		body := fmt.Sprintf("Moved %d subtitle(s)", moved)
		if failed := payload.count("failedDeletes"); failed > 0 {
			body = fmt.Sprintf("%s\n%d input(s) could not be deleted", body, failed)
		}
		return message{
			title: "TV Shows - Subtitles Organized",
			body:  body,
			tags:  []string{"tv-shows", "organize", "completed"},
		}, true
	case EventDeleteFailed:
		return message{
			title: "TV Shows - Delete Failed",
			body:  fmt.Sprintf("Could not delete: %s\nThe subtitle was copied to %s", payload.text("input"), payload.text("output")),
			tags:  []string{"tv-shows", "organize", "warning"},
		}, true
	case EventEpisodesRemoved:
		removed := payload.count("removed")
		if removed == 0 {
			return message{}, false
		}
		body := fmt.Sprintf("Removed %d watched episode(s) from Plex", removed)
		if episodes := payload.list("episodes"); len(episodes) > 0 {
			body = body + "\n" + strings.Join(episodes, "\n")
		}
		return message{
			title: "TV Shows - Watched Episodes Removed",
			body:  body,
			tags:  []string{"tv-shows", "plex", "removed"},
		}, true
	case EventPlexLinked:
		return message{
			title: "TV Shows - Plex Linked",
			body:  "🔗 Plex account linked",
			tags:  []string{"tv-shows", "plex", "linked"},
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := payload.text("context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if text := payload.text("error"); text != "" {
			builder.WriteString(text)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "TV Shows - Error",
			body:     builder.String(),
			tags:     []string{"tv-shows", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "TV Shows - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"tv-shows", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p Payload) text(key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (p Payload) count(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return 0
}

func (p Payload) list(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case string:
		if v = strings.TrimSpace(v); v != "" {
			return []string{v}
		}
	}
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
