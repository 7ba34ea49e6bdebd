package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"assetlib/internal/config"
)

const userAgent = "assetlib/0.1.0"

// Export summarizes a finished export for a notice.
type Export struct {
	AssetID  string
	Name     string
	Category string
	Files    int
	Issues   int
}

// Service defines the notification surface used by the export pipeline.
type Service interface {
	NotifyExported(ctx context.Context, export Export) error
	NotifyExportFailed(ctx context.Context, name string, err error) error
	NotifyIngestionFailed(ctx context.Context, assetID, detail string) error
	TestNotification(ctx context.Context) error
}

// NewService posts to notifications.ntfy_topic, or discards every notice
// when no topic is configured.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{topic: topic, client: &http.Client{Timeout: timeout}}
}

// notice is one ntfy message. Priority "" leaves the server default.
type notice struct {
	title    string
	lines    []string
	tags     []string
	priority string
}

func (n notice) body() string { return strings.Join(n.lines, "\n") }

func exportedNotice(e Export) notice {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		name = e.AssetID
	}
	n := notice{
		title: "assetlib - Exported",
		lines: []string{fmt.Sprintf("📦 Exported: %s (%s)", name, e.AssetID)},
		tags:  []string{"assetlib", "export", "completed"},
	}
	if c := strings.TrimSpace(e.Category); c != "" {
		n.lines = append(n.lines, "Category: "+c)
	}
	n.lines = append(n.lines, fmt.Sprintf("Files: %d", e.Files))
	if e.Issues > 0 {
		n.lines = append(n.lines, fmt.Sprintf("Warnings: %d", e.Issues))
		n.tags = append(n.tags, "warning")
	}
	return n
}

func failedNotice(name string, err error) notice {
	subject := "❌ Export failed"
	if name = strings.TrimSpace(name); name != "" {
		subject += " for " + name
	}
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	return notice{
		title:    "assetlib - Export Failed",
		lines:    []string{subject + ": " + reason},
		tags:     []string{"assetlib", "error", "alert"},
		priority: "high",
	}
}

func ingestionNotice(assetID, detail string) notice {
	lines := []string{fmt.Sprintf("Asset %s is packaged but not in the index", strings.TrimSpace(assetID))}
	if detail = strings.TrimSpace(detail); detail != "" {
		lines = append(lines, detail)
	}
	lines = append(lines, "Replay with: assetlib ingest <metadata.json>")
	return notice{
		title: "assetlib - Ingestion Pending",
		lines: lines,
		tags:  []string{"assetlib", "ingest", "pending"},
	}
}

type ntfyService struct {
	topic  string
	client *http.Client
}

func (s *ntfyService) NotifyExported(ctx context.Context, e Export) error {
	return s.post(ctx, exportedNotice(e))
}

func (s *ntfyService) NotifyExportFailed(ctx context.Context, name string, err error) error {
	return s.post(ctx, failedNotice(name, err))
}

func (s *ntfyService) NotifyIngestionFailed(ctx context.Context, assetID, detail string) error {
	return s.post(ctx, ingestionNotice(assetID, detail))
}

func (s *ntfyService) TestNotification(ctx context.Context) error {
	return s.post(ctx, notice{
		title:    "assetlib - Test",
		lines:    []string{"🧪 Notification system test"},
		tags:     []string{"assetlib", "test"},
		priority: "low",
	})
}

// post publishes n using ntfy's header-based message fields.
func (s *ntfyService) post(ctx context.Context, n notice) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.topic, strings.NewReader(n.body()))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	h := req.Header
	h.Set("User-Agent", userAgent)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Title", n.title)
	if len(n.tags) > 0 {
		h.Set("Tags", strings.Join(n.tags, ","))
	}
	if n.priority != "" {
		h.Set("Priority", n.priority)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyExported(context.Context, Export) error                { return nil }
func (noopService) NotifyExportFailed(context.Context, string, error) error     { return nil }
func (noopService) NotifyIngestionFailed(context.Context, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
