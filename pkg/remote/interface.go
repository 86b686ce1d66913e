package remote

import "context"

// Result 一次远程命令的执行结果
type Result struct {
	// ExitCode 远程进程退出码，0 表示成功
	ExitCode int
	// Stdout 标准输出
	Stdout string
	// Stderr 标准错误
	Stderr string
}

// Session 到单台宿主机的会话
// Plan Executor 是会话的唯一所有者，运行结束（无论成败）必须 Close
type Session interface {
	// Run 在宿主机上执行一条命令，返回退出码和捕获的输出
	// 命令失败（非零退出码）时返回 Result 而不是 error；
	// error 表示传输层问题（连接断开、超时等）
	Run(ctx context.Context, command string) (*Result, error)
	// Close 释放会话持有的连接
	Close() error
}

// Dialer 建立到宿主机的会话
type Dialer interface {
	Dial(ctx context.Context, host string) (Session, error)
}
