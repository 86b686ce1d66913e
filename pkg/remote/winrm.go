package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/masterzen/winrm"
)

// WinRMDialer 基于 WinRM 的 Dialer，用于 Hyper-V 宿主机
// 渲染好的 PowerShell 命令会被编码为 EncodedCommand 执行
type WinRMDialer struct {
	// User 登录用户，默认 administrator
	User string
	// Password 登录密码
	Password string
	// Port WinRM 端口，默认 5986（HTTPS）
	Port int
	// UseHTTPS 是否使用 HTTPS，默认 true
	UseHTTPS bool
	// Insecure 跳过证书校验（内部网络的自签证书）
	Insecure bool
	// Timeout 单条命令的传输超时，默认 30 分钟（分区扩容可能很慢）
	Timeout time.Duration
}

// NewWinRMDialer 创建 WinRM Dialer
func NewWinRMDialer(user, password string) *WinRMDialer {
	return &WinRMDialer{
		User:     user,
		Password: password,
		UseHTTPS: true,
		Insecure: true,
	}
}

// Dial 创建到 Hyper-V 宿主机的 WinRM 客户端
// WinRM 本身是按命令建连的，这里的 Session 只是客户端的薄包装
func (d *WinRMDialer) Dial(_ context.Context, host string) (Session, error) {
	user := d.User
	if user == "" {
		user = "administrator"
	}
	port := d.Port
	if port == 0 {
		port = 5986
	}
	timeout := d.Timeout
	if timeout == 0 {
		timeout = 30 * time.Minute
	}

	endpoint := winrm.NewEndpoint(host, port, d.UseHTTPS, d.Insecure, nil, nil, nil, timeout)
	client, err := winrm.NewClient(endpoint, user, d.Password)
	if err != nil {
		return nil, fmt.Errorf("create winrm client for %s: %w", host, err)
	}
	return &winrmSession{client: client}, nil
}

type winrmSession struct {
	client *winrm.Client
}

func (s *winrmSession) Run(ctx context.Context, command string) (*Result, error) {
	stdout, stderr, exitCode, err := s.client.RunWithContextWithString(ctx, winrm.Powershell(command), "")
	if err != nil {
		return nil, fmt.Errorf("run winrm command: %w", err)
	}
	return &Result{
		ExitCode: exitCode,
		Stdout:   stdout,
		Stderr:   stderr,
	}, nil
}

// Close WinRM 没有长连接可关
func (s *winrmSession) Close() error {
	return nil
}

var _ Dialer = (*WinRMDialer)(nil)
