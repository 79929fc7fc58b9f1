package model

import "context"

// Mailer sends account notifications. Delivery is fire-and-forget: a send
// error fails the current request but nothing is retried.
type Mailer interface {
	SendActivationEmail(ctx context.Context, username, email, verificationCode string) error
	SendPasswordChangeCode(ctx context.Context, username, email, code string) error
}
