package clients

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockDeviceCaller implements interfaces.DeviceCaller for testing. The
// behavior is determined by how the mock is configured in tests.
type MockDeviceCaller struct {
	mock.Mock
}

func (m *MockDeviceCaller) Call(ctx context.Context, operation string, payload map[string]any) (map[string]any, error) {
	args := m.Called(ctx, operation, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}
