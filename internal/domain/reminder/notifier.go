package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"salescrm/internal/pkg/metrics"
)

// WebhookNotifier posts text messages to a group-chat robot webhook.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (n *WebhookNotifier) Name() string { return "webhook" }

type webhookText struct {
	Content       string   `json:"content"`
	MentionedList []string `json:"mentioned_list"`
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

// Notify succeeds only on HTTP 200.
func (n *WebhookNotifier) Notify(ctx context.Context, msg Message) error {
	body, err := json.Marshal(webhookPayload{
		MsgType: "text",
		Text: webhookText{
			Content:       msg.Text(),
			MentionedList: []string{msg.Owner},
		},
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

// LogNotifier only writes the reminder to the log.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.log.Info().Int64("lead_id", msg.LeadID).Str("owner", msg.Owner).Msg(msg.Text())
	return nil
}

// MultiNotifier fans a reminder out to every channel.
// A failing channel does not stop the others.
type MultiNotifier struct {
	notifiers []Notifier
}

func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

func (m *MultiNotifier) Name() string { return "multi" }

func (m *MultiNotifier) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m.notifiers {
		err := n.Notify(ctx, msg)
		metrics.RecordReminder(n.Name(), err == nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
