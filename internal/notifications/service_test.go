package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tvshows/internal/config"
	"tvshows/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventOrganizeCompleted, notifications.Payload{"moved": 2}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "organize completed",
			event:         notifications.EventOrganizeCompleted,
			payload:       notifications.Payload{"moved": 3},
			expectTitle:   "TV Shows - Subtitles Organized",
			expectMessage: "Moved 3 subtitle(s)",
			expectTags:    "tv-shows,organize,completed",
		},
		{
			name:          "organize completed with failed deletes",
			event:         notifications.EventOrganizeCompleted,
			payload:       notifications.Payload{"moved": 2, "failedDeletes": 1},
			expectTitle:   "TV Shows - Subtitles Organized",
			expectMessage: "Moved 2 subtitle(s)\n1 input(s) could not be deleted",
			expectTags:    "tv-shows,organize,completed",
		},
		{
			name:  "delete failed",
			event: notifications.EventDeleteFailed,
			payload: notifications.Payload{
				"input":  "/shows/a.srt",
				"output": "/shows/Show/a.srt",
			},
			expectTitle:   "TV Shows - Delete Failed",
			expectMessage: "Could not delete: /shows/a.srt\nThe subtitle was copied to /shows/Show/a.srt",
			expectTags:    "tv-shows,organize,warning",
		},
		{
			name:  "episodes removed",
			event: notifications.EventEpisodesRemoved,
			payload: notifications.Payload{
				"removed":  2,
				"episodes": []string{"Severance - Hello, Ms. Cobel", "Severance - Woe's Hollow"},
			},
			expectTitle:   "TV Shows - Watched Episodes Removed",
			expectMessage: "Removed 2 watched episode(s) from Plex\nSeverance - Hello, Ms. Cobel\nSeverance - Woe's Hollow",
			expectTags:    "tv-shows,plex,removed",
		},
		{
			name:  "error",
			event: notifications.EventError,
			payload: notifications.Payload{
				"context": "organize",
				"error":   errors.New("permission denied"),
			},
			expectTitle:    "TV Shows - Error",
			expectMessage:  "❌ Error with organize: permission denied",
			expectTags:     "tv-shows,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "TV Shows - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "tv-shows,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceSkipsEmptyOutcomes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for empty outcome: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	skipped := []struct {
		event   notifications.Event
		payload notifications.Payload
	}{
		{notifications.EventOrganizeCompleted, notifications.Payload{"moved": 0}},
		{notifications.EventEpisodesRemoved, notifications.Payload{"removed": 0}},
		{notifications.Event("unknown"), nil},
	}
	for _, tc := range skipped {
		if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
			t.Fatalf("expected no error for %s, got %v", tc.event, err)
		}
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic is read-only", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil {
		t.Fatal("expected error for forbidden topic")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "topic is read-only") {
		t.Fatalf("unexpected error: %v", err)
	}
}
