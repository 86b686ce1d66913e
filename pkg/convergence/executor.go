package convergence

import (
	"context"

	"github.com/jimyag/vmconverge/pkg/remote"
	"github.com/rs/zerolog"
)

// Outcome 一次 Plan 执行的结构化结果
// 供外部通知/日志协作方消费，核心不发邮件也不落盘
type Outcome struct {
	// Completed 成功执行的操作（按执行顺序）
	Completed []Operation
	// Failed 失败的操作，全部成功时为 nil
	Failed *Operation
	// Err 失败原因：*PartialConvergenceError 包装了 *RemoteOperationError
	Err error
}

// Succeeded 判断整个 Plan 是否全部执行成功
func (o *Outcome) Succeeded() bool {
	return o.Failed == nil && o.Err == nil
}

// Executor 按顺序执行 Plan 的操作
// 严格顺序、遇错即停，从不重试——重试策略属于外部调度器
type Executor struct{}

// NewExecutor 创建 Executor
func NewExecutor() *Executor {
	return &Executor{}
}

// Apply 在给定会话上执行整个 Plan
//
// 操作 k 失败时结果里恰好有 k-1 个 Completed，k+1..n 不会被尝试。
// 中止时 VM 保持停机状态留给运维检查，而不是猜测一个安全的重启点。
// 会话由调用方负责 Close，本方法不关闭它。
func (e *Executor) Apply(ctx context.Context, sess remote.Session, plan *Plan) *Outcome {
	logger := zerolog.Ctx(ctx)
	outcome := &Outcome{}

	for _, op := range plan.Operations() {
		logger.Debug().
			Str("vm", string(plan.VM())).
			Str("kind", string(op.Kind)).
			Str("drive", op.Drive).
			Msg("Executing operation")

		result, err := sess.Run(ctx, op.Command)
		if err != nil {
			// 传输层失败（超时、连接断开），远程协作方已经归因
			remoteErr := &RemoteOperationError{Op: op, Err: err}
			outcome.Failed = &op
			outcome.Err = &PartialConvergenceError{Completed: outcome.Completed, Cause: remoteErr}
			logger.Error().Err(err).
				Str("vm", string(plan.VM())).
				Str("kind", string(op.Kind)).
				Msg("Remote operation transport failure, aborting plan")
			return outcome
		}
		if result.ExitCode != 0 {
			remoteErr := &RemoteOperationError{
				Op:       op,
				ExitCode: result.ExitCode,
				Output:   result.Stderr,
			}
			outcome.Failed = &op
			outcome.Err = &PartialConvergenceError{Completed: outcome.Completed, Cause: remoteErr}
			logger.Error().
				Str("vm", string(plan.VM())).
				Str("kind", string(op.Kind)).
				Int("exit_code", result.ExitCode).
				Str("stderr", result.Stderr).
				Msg("Remote operation failed, aborting plan")
			return outcome
		}

		if result.Stderr != "" {
			logger.Warn().
				Str("vm", string(plan.VM())).
				Str("kind", string(op.Kind)).
				Str("stderr", result.Stderr).
				Msg("Operation succeeded with stderr output")
		}
		outcome.Completed = append(outcome.Completed, op)
	}
	return outcome
}
