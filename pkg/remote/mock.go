package remote

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockDialer 是 Dialer 的 mock 实现，用于测试
type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) Dial(ctx context.Context, host string) (Session, error) {
	args := m.Called(ctx, host)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Session), args.Error(1)
}

// MockSession 是 Session 的 mock 实现，用于测试
type MockSession struct {
	mock.Mock
}

func (m *MockSession) Run(ctx context.Context, command string) (*Result, error) {
	args := m.Called(ctx, command)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

func (m *MockSession) Close() error {
	args := m.Called()
	return args.Error(0)
}

var (
	_ Dialer  = (*MockDialer)(nil)
	_ Session = (*MockSession)(nil)
)
