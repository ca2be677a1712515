package services

import (
	"context"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"github.com/google/uuid"
	"github.com/techagentng/challanx/db"
	"github.com/techagentng/challanx/logger"
	"google.golang.org/api/option"
)

// Notifier delivers a push message to a device.
type Notifier interface {
	Notify(ctx context.Context, deviceToken, title, body string, data map[string]string) error
}

type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string, string, string, map[string]string) error {
	return nil
}

type firebaseNotifier struct {
	client *messaging.Client
}

// NewFirebaseNotifier builds a notifier from a service account file. An empty
// path disables push notifications.
func NewFirebaseNotifier(ctx context.Context, credentialsFile string) (Notifier, error) {
	if credentialsFile == "" {
		logger.Log.Info().Msg("firebase: no credentials configured, push notifications disabled")
		return NoopNotifier{}, nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Msg("firebase: messaging client initialized")
	return &firebaseNotifier{client: client}, nil
}

func (f *firebaseNotifier) Notify(ctx context.Context, deviceToken, title, body string, data map[string]string) error {
	message := &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	_, err := f.client.Send(ctx, message)
	return err
}

// notifyUser pushes to the user's registered device, if any. Failures are
// logged and dropped.
func notifyUser(ctx context.Context, profiles db.ProfileRepository, notifier Notifier, userID uuid.UUID, title, body string, data map[string]string) {
	if notifier == nil || profiles == nil {
		return
	}
	profile, err := profiles.GetProfile(ctx, userID)
	if err != nil || profile.DeviceToken == "" {
		return
	}
	if err := notifier.Notify(ctx, profile.DeviceToken, title, body, data); err != nil {
		logger.Log.Warn().Err(err).Str("user_id", userID.String()).Msg("push notification failed")
	}
}
