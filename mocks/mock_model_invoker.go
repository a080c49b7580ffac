package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tickmill/internal/port"
)

// MockModelInvoker is a mock implementation of port.ModelInvoker.
type MockModelInvoker struct {
	mock.Mock
}

func (m *MockModelInvoker) Invoke(ctx context.Context, input port.InvokeInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}
