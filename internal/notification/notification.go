package notification

import (
	"context"
	"log/slog"
)

const (
	// KindSignup is sent once a new account has been registered.
	KindSignup = "signup"
	// KindLogin is sent after every successful login.
	KindLogin = "login"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger until an SMS
// provider is wired in.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger. The destination is
// masked so that phone numbers do not end up in logs.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		slog.String("kind", message.Kind),
		slog.String("destination", Mask(message.Destination)),
		slog.String("body", message.Body),
	)
	return nil
}

// Mask keeps the last four characters of a destination.
func Mask(destination string) string {
	const visible = 4
	if len(destination) <= visible {
		return destination
	}
	masked := make([]byte, len(destination))
	for i := range masked {
		if i < len(destination)-visible {
			masked[i] = '*'
		} else {
			masked[i] = destination[i]
		}
	}
	return string(masked)
}
