package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHDialer 基于 SSH 私钥认证的 Dialer，用于 KVM 宿主机
type SSHDialer struct {
	// User 登录用户，默认 administrator
	User string
	// KeyPath 私钥路径，默认 ~/.ssh/id_rsa
	KeyPath string
	// Port SSH 端口，默认 22
	Port int
	// Timeout 建连超时，默认 30 秒
	Timeout time.Duration
}

// NewSSHDialer 创建 SSH Dialer，零值字段使用默认配置
func NewSSHDialer(user, keyPath string) *SSHDialer {
	return &SSHDialer{User: user, KeyPath: keyPath}
}

// Dial 连接到宿主机并返回会话
// host 可以是 IPv4/IPv6 地址或主机名，IPv6 地址会被正确地加上方括号
func (d *SSHDialer) Dial(ctx context.Context, host string) (Session, error) {
	user := d.User
	if user == "" {
		user = "administrator"
	}
	keyPath := d.KeyPath
	if keyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory for default ssh key: %w", err)
		}
		keyPath = home + "/.ssh/id_rsa"
	}
	port := d.Port
	if port == 0 {
		port = 22
	}
	timeout := d.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read ssh private key %s: %w", keyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, fmt.Errorf("parse ssh private key %s: %w", keyPath, err)
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // 宿主机由内部网络管理，沿用原有的 auto-add 策略
		Timeout:         timeout,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("dial ssh %s: %w", addr, err)
	}
	return &sshSession{client: client}, nil
}

// sshSession 包装一条 SSH 连接，每条命令开一个新的 ssh session
type sshSession struct {
	client *ssh.Client
}

func (s *sshSession) Run(ctx context.Context, command string) (*Result, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("open ssh session: %w", err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	// ssh 包本身不接受 context，用 goroutine + 关连接的方式支持取消
	done := make(chan error, 1)
	go func() {
		done <- sess.Run(command)
	}()

	select {
	case <-ctx.Done():
		_ = sess.Signal(ssh.SIGKILL)
		_ = s.client.Close()
		return nil, fmt.Errorf("run remote command: %w", ctx.Err())
	case err = <-done:
	}

	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			// 命令执行了但退出码非零，带结果返回，由上层归因
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}
		return nil, fmt.Errorf("run remote command: %w", err)
	}
	return result, nil
}

func (s *sshSession) Close() error {
	return s.client.Close()
}

var _ Dialer = (*SSHDialer)(nil)
