package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/wingit-app/wingit-server/internal/model"
)

var _ model.Mailer = (*Mailer)(nil)

type Mailer struct {
	mock.Mock
}

func (m *Mailer) SendActivationEmail(ctx context.Context, username, email, verificationCode string) error {
	args := m.Called(ctx, username, email, verificationCode)
	return args.Error(0)
}

func (m *Mailer) SendPasswordChangeCode(ctx context.Context, username, email, code string) error {
	args := m.Called(ctx, username, email, code)
	return args.Error(0)
}
