// Package libvirt 提供一个只读的 libvirt 探测客户端
// 收敛引擎在 diff 之前用它刷新 KVM VM 的实际状态（状态、CPU、内存、磁盘），
// 避免基于过期的库存数据做决策
package libvirt

import (
	"fmt"
	"net/url"

	golibvirt "github.com/digitalocean/go-libvirt"
)

// Client 基于 digitalocean/go-libvirt 的探测客户端
type Client struct {
	conn *golibvirt.Libvirt
}

// Connect 按 URI 连接 libvirtd
// 支持 qemu:///system、qemu+ssh://user@host/system、qemu+tcp://host/system
func Connect(uri string) (*Client, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse libvirt uri %s: %w", uri, err)
	}
	conn, err := golibvirt.ConnectToURI(parsed)
	if err != nil {
		return nil, fmt.Errorf("connect to libvirt %s: %w", uri, err)
	}
	return &Client{conn: conn}, nil
}

// DomainState 返回 domain 状态的可读形式
func (c *Client) DomainState(name string) (string, error) {
	domain, err := c.conn.DomainLookupByName(name)
	if err != nil {
		return "", fmt.Errorf("lookup domain %s: %w", name, err)
	}
	state, _, err := c.conn.DomainGetState(domain, 0)
	if err != nil {
		return "", fmt.Errorf("get domain state: %w", err)
	}
	return stateName(golibvirt.DomainState(state)), nil
}

// DomainHardware 返回 domain 的 vCPU 数和当前内存（KiB）
func (c *Client) DomainHardware(name string) (int, uint64, error) {
	domain, err := c.conn.DomainLookupByName(name)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup domain %s: %w", name, err)
	}
	_, _, memoryKB, vcpus, _, err := c.conn.DomainGetInfo(domain)
	if err != nil {
		return 0, 0, fmt.Errorf("get domain info: %w", err)
	}
	return int(vcpus), memoryKB, nil
}

// DomainDisks 解析 domain XML，返回当前挂载的磁盘设备
func (c *Client) DomainDisks(name string) ([]DomainDisk, error) {
	domain, err := c.conn.DomainLookupByName(name)
	if err != nil {
		return nil, fmt.Errorf("lookup domain %s: %w", name, err)
	}
	xmlDesc, err := c.conn.DomainGetXMLDesc(domain, 0)
	if err != nil {
		return nil, fmt.Errorf("get domain XML: %w", err)
	}
	return ParseDomainDisks(xmlDesc)
}

// Close 断开连接
func (c *Client) Close() error {
	return c.conn.Disconnect()
}

func stateName(state golibvirt.DomainState) string {
	switch state {
	case golibvirt.DomainRunning:
		return "running"
	case golibvirt.DomainPaused:
		return "paused"
	case golibvirt.DomainShutdown:
		return "shutting down"
	case golibvirt.DomainShutoff:
		return "shut off"
	case golibvirt.DomainCrashed:
		return "crashed"
	case golibvirt.DomainPmsuspended:
		return "suspended"
	case golibvirt.DomainBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

var _ HostClient = (*Client)(nil)
