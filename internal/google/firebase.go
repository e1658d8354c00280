package google

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"notification-service/internal/notify"
)

// SendReport carries the provider-reported per-token outcome of a direct send.
type SendReport struct {
	SuccessCount int
	FailureCount int
	Errors       []string
}

type FirebaseConfig struct {
	CredentialsPath string
	ProjectID       string
	DatabaseURL     string
}

// FirebaseService wraps the Admin SDK app and its messaging client. It is the
// direct-token send path; the admin broadcast uses the HTTP v1 path instead.
type FirebaseService struct {
	app    *firebase.App
	client *messaging.Client
	config *FirebaseConfig
}

func NewFirebaseService(cfg *FirebaseConfig) (*FirebaseService, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:   cfg.ProjectID,
		DatabaseURL: cfg.DatabaseURL,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %v", err)
	}

	return &FirebaseService{
		app:    app,
		client: client,
		config: cfg,
	}, nil
}

// App exposes the underlying Admin SDK app so other clients (database) can be
// built from the same credentials.
func (f *FirebaseService) App() *firebase.App {
	return f.app
}

// Send delivers one payload to the given tokens via the SDK's batch-send
// primitive. Per-token failures are reported, never returned as an error.
func (f *FirebaseService) Send(ctx context.Context, tokens []string, payload notify.Payload) (*SendReport, error) {
	if len(tokens) == 0 {
		return &SendReport{}, nil
	}
	if len(tokens) > 500 {
		return nil, fmt.Errorf("batch size exceeds FCM limit of 500")
	}

	messages := make([]*messaging.Message, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: payload.Title,
				Body:  payload.Body,
			},
			Data: payload.Data,
			Android: &messaging.AndroidConfig{
				Priority: "high",
				Notification: &messaging.AndroidNotification{
					Icon:        payload.Icon,
					Sound:       payload.Sound,
					ClickAction: payload.Data["click_action"],
				},
			},
			APNS: &messaging.APNSConfig{
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{
						Sound: payload.Sound,
					},
				},
			},
		})
	}

	response, err := f.client.SendEach(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("error sending batch: %v", err)
	}

	report := &SendReport{
		SuccessCount: response.SuccessCount,
		FailureCount: response.FailureCount,
	}
	for _, r := range response.Responses {
		if r.Error != nil {
			report.Errors = append(report.Errors, r.Error.Error())
		}
	}
	return report, nil
}
