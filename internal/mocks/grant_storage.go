package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/wingit-app/wingit-server/internal/model"
)

var _ model.GrantStorage = (*GrantStorage)(nil)

type GrantStorage struct {
	mock.Mock
}

func (m *GrantStorage) PresignUploadPost(ctx context.Context, objectKey string) (model.UploadGrant, error) {
	args := m.Called(ctx, objectKey)
	return args.Get(0).(model.UploadGrant), args.Error(1)
}
