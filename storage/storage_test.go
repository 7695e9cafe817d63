package storage

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sokoerp/etims-bridge/interfaces"
)

func testRecord(id string) interfaces.AuditRecord {
	return interfaces.AuditRecord{
		ID:         id,
		DocumentID: "INV/2024/0042",
		Operation:  "save_sales",
		Outcome:    "success",
		Request:    []byte(`{"invcNo":1}`),
		Response:   []byte(`{"curRcptNo":7}`),
		At:         time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileBackendRoundtrip(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), slog.Default())
	require.NoError(t, err)

	ctx := context.Background()
	record := testRecord("rec-1")
	require.NoError(t, backend.Store(ctx, record))

	fetched, err := backend.Fetch(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, record, fetched)

	assert.True(t, backend.Available(ctx))
}

func TestFileBackendNotFound(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), slog.Default())
	require.NoError(t, err)

	_, err = backend.Fetch(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrRecordNotFound)
}

func TestFactorySchemes(t *testing.T) {
	factory := NewAuditBackendFactory(slog.Default())

	fileBackend, err := factory.BackendFor(interfaces.AuditBackendLocation("file://" + t.TempDir()))
	require.NoError(t, err)
	assert.Contains(t, fileBackend.Name(), "file-")

	s3Backend, err := factory.BackendFor("s3://audit-bucket/etims?region=eu-west-1")
	require.NoError(t, err)
	assert.Equal(t, "s3-audit-bucket", s3Backend.Name())

	_, err = factory.BackendFor("ftp://nope")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

// MockAuditBackend implements interfaces.AuditBackend for testing.
type MockAuditBackend struct {
	mock.Mock
	name string
}

func (m *MockAuditBackend) Store(ctx context.Context, record interfaces.AuditRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAuditBackend) Fetch(ctx context.Context, id string) (interfaces.AuditRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(interfaces.AuditRecord), args.Error(1)
}

func (m *MockAuditBackend) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockAuditBackend) Name() string        { return m.name }
func (m *MockAuditBackend) LocationURI() string { return "mock:" }

func TestMultiBackendStoresToAllAvailable(t *testing.T) {
	ctx := context.Background()
	record := testRecord("rec-2")

	up := &MockAuditBackend{name: "up"}
	up.On("Available", mock.Anything).Return(true)
	up.On("Store", mock.Anything, record).Return(nil).Once()

	down := &MockAuditBackend{name: "down"}
	down.On("Available", mock.Anything).Return(false)

	multi := NewMultiBackend([]interfaces.AuditBackend{down, up}, slog.Default())
	require.NoError(t, multi.Store(ctx, record))
	up.AssertExpectations(t)
	down.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
}

func TestMultiBackendAllFail(t *testing.T) {
	ctx := context.Background()
	record := testRecord("rec-3")

	failing := &MockAuditBackend{name: "failing"}
	failing.On("Available", mock.Anything).Return(true)
	failing.On("Store", mock.Anything, record).Return(errors.New("disk full"))

	multi := NewMultiBackend([]interfaces.AuditBackend{failing}, slog.Default())
	err := multi.Store(ctx, record)
	assert.Error(t, err)
}

func TestMultiBackendFetchFallsThrough(t *testing.T) {
	ctx := context.Background()
	record := testRecord("rec-4")

	empty := &MockAuditBackend{name: "empty"}
	empty.On("Available", mock.Anything).Return(true)
	empty.On("Fetch", mock.Anything, "rec-4").Return(interfaces.AuditRecord{}, interfaces.ErrRecordNotFound)

	full := &MockAuditBackend{name: "full"}
	full.On("Available", mock.Anything).Return(true)
	full.On("Fetch", mock.Anything, "rec-4").Return(record, nil)

	multi := NewMultiBackend([]interfaces.AuditBackend{empty, full}, slog.Default())
	fetched, err := multi.Fetch(ctx, "rec-4")
	require.NoError(t, err)
	assert.Equal(t, record, fetched)
}
