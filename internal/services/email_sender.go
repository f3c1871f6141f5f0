package services

import "context"

// EmailSender delivers one message. Implementations must honour ctx deadlines.
type EmailSender interface {
	Send(ctx context.Context, to string, subject string, body string) error
}
