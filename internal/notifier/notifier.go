package notifier

import "context"

// Notifier delivers messages to the operator and relays their commands.
type Notifier interface {
	Send(ctx context.Context, text string) error
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
	// StartPolling blocks until ctx is cancelled, passing each received command to handler.
	StartPolling(ctx context.Context, handler CommandHandler)
}

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// NoopNotifier drops every message. Used when no bot token is configured.
type NoopNotifier struct{}

func (NoopNotifier) Send(context.Context, string) error               { return nil }
func (NoopNotifier) SendWithRetry(context.Context, string, int) error { return nil }

func (NoopNotifier) StartPolling(ctx context.Context, _ CommandHandler) {
	<-ctx.Done()
}
