package libvirt

import (
	"github.com/stretchr/testify/mock"
)

// MockHostClient 是 HostClient 的 mock 实现，用于测试
type MockHostClient struct {
	mock.Mock
}

func (m *MockHostClient) DomainState(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func (m *MockHostClient) DomainHardware(name string) (int, uint64, error) {
	args := m.Called(name)
	return args.Int(0), args.Get(1).(uint64), args.Error(2)
}

func (m *MockHostClient) DomainDisks(name string) ([]DomainDisk, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]DomainDisk), args.Error(1)
}

func (m *MockHostClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ HostClient = (*MockHostClient)(nil)
