package storage

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MockChunkStore is a testify mock of ChunkStore for service-level tests.
type MockChunkStore struct {
	mock.Mock
}

func (m *MockChunkStore) StoreChunk(uploadID string, index int, data []byte) error {
	args := m.Called(uploadID, index, data)
	return args.Error(0)
}

func (m *MockChunkStore) ChunkExists(uploadID string, index int) bool {
	args := m.Called(uploadID, index)
	return args.Bool(0)
}

func (m *MockChunkStore) ChunkSize(uploadID string, index int) (int64, bool) {
	args := m.Called(uploadID, index)
	return args.Get(0).(int64), args.Bool(1)
}

func (m *MockChunkStore) GetChunk(uploadID string, index int) ([]byte, error) {
	args := m.Called(uploadID, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockChunkStore) ListChunks(uploadID string) []int {
	args := m.Called(uploadID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]int)
}

func (m *MockChunkStore) ReassembleFile(uploadID string, totalChunks int, outputName string, expectedSize int64) (string, error) {
	args := m.Called(uploadID, totalChunks, outputName, expectedSize)
	return args.String(0), args.Error(1)
}

func (m *MockChunkStore) CleanupChunks(uploadID string) error {
	args := m.Called(uploadID)
	return args.Error(0)
}

func (m *MockChunkStore) FileChecksum(path string) (string, error) {
	args := m.Called(path)
	return args.String(0), args.Error(1)
}

func (m *MockChunkStore) StaleSessions(olderThan time.Duration) ([]string, error) {
	args := m.Called(olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
