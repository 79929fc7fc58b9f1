// Package mocks provides testify mocks for the model interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/wingit-app/wingit-server/internal/model"
)

var _ model.AccountStore = (*AccountStore)(nil)

type AccountStore struct {
	mock.Mock
}

func (m *AccountStore) Create(ctx context.Context, account model.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *AccountStore) GetByUsername(ctx context.Context, username string) (model.Account, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *AccountStore) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *AccountStore) ClearVerificationCode(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

func (m *AccountStore) UpdatePasswordHash(ctx context.Context, username, passwordHash string) error {
	args := m.Called(ctx, username, passwordHash)
	return args.Error(0)
}

func (m *AccountStore) SetPasswordChangeCode(ctx context.Context, username, code string, creationTime int64) error {
	args := m.Called(ctx, username, code, creationTime)
	return args.Error(0)
}

func (m *AccountStore) Delete(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}
