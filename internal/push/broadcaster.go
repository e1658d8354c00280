package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"notification-service/internal/metrics"
	"notification-service/internal/notify"
)

const (
	messagingScope = "https://www.googleapis.com/auth/firebase.messaging"
	requestTimeout = 10 * time.Second
)

// DeliveryOutcome is the per-recipient result of a broadcast fan-out.
type DeliveryOutcome struct {
	Index    int
	Attempts []AttemptOutcome
	Err      error
}

func (o DeliveryOutcome) Delivered() bool { return o.Err == nil }

type BroadcasterConfig struct {
	CredentialsPath string
	ProjectID       string
	Endpoint        string
}

// Broadcaster sends one payload to many recipients over the FCM HTTP v1 API,
// one authenticated request per recipient, all concurrent, each with its own
// bounded retry.
type Broadcaster struct {
	endpoint  string
	projectID string
	client    *http.Client
	tokens    oauth2.TokenSource
	policy    RetryPolicy
}

func NewBroadcaster(ctx context.Context, cfg BroadcasterConfig) (*Broadcaster, error) {
	var (
		creds *google.Credentials
		err   error
	)
	if cfg.CredentialsPath != "" {
		data, readErr := os.ReadFile(cfg.CredentialsPath)
		if readErr != nil {
			return nil, fmt.Errorf("error reading credentials file: %v", readErr)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, messagingScope)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, messagingScope)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading application credentials: %v", err)
	}

	return &Broadcaster{
		endpoint:  cfg.Endpoint,
		projectID: cfg.ProjectID,
		client:    &http.Client{Timeout: requestTimeout},
		tokens:    creds.TokenSource,
		policy:    DefaultRetryPolicy(),
	}, nil
}

// Broadcast fans the payload out to every token. It returns an error only
// when the bearer credential cannot be acquired; per-recipient failures are
// reported in the outcomes and never abort the other recipients.
func (b *Broadcaster) Broadcast(ctx context.Context, tokens []string, payload notify.Payload) ([]DeliveryOutcome, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	// One short-lived bearer token covers the whole fan-out.
	bearer, err := b.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("error acquiring access token: %v", err)
	}

	start := time.Now()
	outcomes := make([]DeliveryOutcome, len(tokens))
	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(idx int, deviceToken string) {
			defer wg.Done()
			attempts := DoWithPolicy(ctx, b.policy, func(ctx context.Context) error {
				return b.send(ctx, bearer.AccessToken, deviceToken, payload)
			})
			outcomes[idx] = DeliveryOutcome{
				Index:    idx,
				Attempts: attempts,
				Err:      attempts[len(attempts)-1].Err,
			}
		}(i, token)
	}
	wg.Wait()
	metrics.BroadcastDuration.Observe(time.Since(start).Seconds())

	for _, outcome := range outcomes {
		if outcome.Delivered() {
			metrics.PushSends.WithLabelValues("broadcast", "success").Inc()
			slog.Info("broadcast send succeeded", "recipient_index", outcome.Index, "attempts", len(outcome.Attempts))
		} else {
			metrics.PushSends.WithLabelValues("broadcast", "failure").Inc()
			slog.Error("broadcast send failed", "recipient_index", outcome.Index, "attempts", len(outcome.Attempts), "error", outcome.Err.Error())
		}
	}
	return outcomes, nil
}

type v1Request struct {
	Message v1Message `json:"message"`
}

type v1Message struct {
	Notification v1Notification    `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Token        string            `json:"token"`
}

type v1Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// send issues one messages:send request. Errors are classified so the retry
// policy can tell no-response and permanent failures apart.
func (b *Broadcaster) send(ctx context.Context, accessToken, deviceToken string, payload notify.Payload) error {
	body, err := json.Marshal(v1Request{
		Message: v1Message{
			Notification: v1Notification{Title: payload.Title, Body: payload.Body},
			Data:         payload.Data,
			Token:        deviceToken,
		},
	})
	if err != nil {
		return Permanent(fmt.Errorf("error marshaling message: %v", err))
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", b.endpoint, b.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Permanent(fmt.Errorf("error building request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return NoResponse(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	sendErr := fmt.Errorf("fcm responded %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return Permanent(sendErr)
	}
	return sendErr
}
