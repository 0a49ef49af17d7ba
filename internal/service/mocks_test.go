package service

import (
	"context"

	"serialvault/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockSerialKeyStore struct {
	mock.Mock
}

func (m *mockSerialKeyStore) InsertSerialKeys(ctx context.Context, keys []*models.SerialKey) (int, error) {
	args := m.Called(ctx, keys)
	return args.Int(0), args.Error(1)
}

type mockKeyGenerator struct {
	mock.Mock
	config models.SerialConfig
}

func (m *mockKeyGenerator) GenerateN(n int) ([]string, error) {
	args := m.Called(n)
	keys, _ := args.Get(0).([]string)
	return keys, args.Error(1)
}

func (m *mockKeyGenerator) Config() models.SerialConfig {
	return m.config
}
