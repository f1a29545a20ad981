package service

import (
	"context"
	"log/slog"
	"time"
)

const (
	LoginTypeLocal  = "local"
	LoginTypeGoogle = "google"
)

type VerificationNotification struct {
	Email           string
	Nickname        string
	Token           string
	VerificationURL string
	IssuedAt        time.Time
}

type EmailVerificationNotifier interface {
	SendEmailVerification(ctx context.Context, notification VerificationNotification) error
}

// DevEmailNotifier logs the verification link instead of delivering it.
// Local and test environments run without an SMTP relay.
type DevEmailNotifier struct {
	logger *slog.Logger
}

func NewDevEmailNotifier(logger *slog.Logger) *DevEmailNotifier {
	return &DevEmailNotifier{logger: logger}
}

func (n *DevEmailNotifier) SendEmailVerification(ctx context.Context, notification VerificationNotification) error {
	n.logger.InfoContext(ctx, "email verification link issued",
		"email", notification.Email,
		"issued_at", notification.IssuedAt,
		"verification_url", notification.VerificationURL,
	)
	return nil
}
