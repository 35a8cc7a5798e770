package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/postloop/growthd/models"

	"golang.org/x/time/rate"
)

// Sends growth-controller notices to a Slack channel via "incoming webhook".
//
// The slack incoming webhook must be already configured in the slack workplace.
type SlackNotifier struct {
	WebhookURL string
	Client     *http.Client
	// optional; when set, messages over the limit are dropped with ErrThrottled
	Limiter *rate.Limiter
}

var ErrThrottled = errors.New("slack notification throttled")

func NewSlackNotifier(webhookURL string, client *http.Client) *SlackNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &SlackNotifier{
		WebhookURL: webhookURL,
		Client:     client,
	}
}

type SlackWebhookBody struct {
	Text string `json:"text"`
}

func backoffMessage(plan *models.GrowthPlan) string {
	msg := "⚠️ Growth controller backoff ⚠️\n"
	msg += fmt.Sprintf("Window: `%s`\n", plan.WindowStart.UTC().Format(time.RFC3339))
	msg += fmt.Sprintf("Reason: %s\n", plan.BackoffReason)
	msg += fmt.Sprintf("Targets: `%d` posts/hour, `%d` replies/hour\n", plan.TargetPosts, plan.TargetReplies)
	return msg
}

// NotifyBackoff posts a message about a plan whose cadence was cut because
// of platform resistance. Plans without backoff are ignored.
func (n *SlackNotifier) NotifyBackoff(ctx context.Context, plan *models.GrowthPlan) error {
	if !plan.BackoffApplied {
		return nil
	}
	if n.Limiter != nil && !n.Limiter.Allow() {
		return ErrThrottled
	}
	return n.sendSlackMsg(ctx, backoffMessage(plan))
}

func (n *SlackNotifier) sendSlackMsg(ctx context.Context, msg string) error {
	body, err := json.Marshal(SlackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	resp, err := n.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading slack webhook response: %w", err)
	}
	if resp.StatusCode != 200 || string(respBody) != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}
