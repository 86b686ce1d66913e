package convergence

import (
	"fmt"
	"strings"
)

// ValidationError 输入校验失败（负数大小、不支持的缩容等）
// 在任何远程操作之前抛出，此时远程主机没有被触碰
type ValidationError struct {
	// DriveID 出错的磁盘（可能为空，表示 VM 级别的问题）
	DriveID string
	// Reason 失败原因
	Reason string
}

func (e *ValidationError) Error() string {
	if e.DriveID == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed for drive %s: %s", e.DriveID, e.Reason)
}

// AllocationError 设备槽位分配失败（字母表耗尽或磁盘计数不一致）
// 同样在任何远程操作之前抛出
type AllocationError struct {
	TotalDrives int
	Creations   int
	Reason      string
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("device slot allocation failed (total_drives=%d, creations=%d): %s",
		e.TotalDrives, e.Creations, e.Reason)
}

// RemoteOperationError 单个后端操作执行失败
// 包含失败的操作、退出码和远程输出，供外部告警/重试层定位问题
type RemoteOperationError struct {
	Op       Operation
	ExitCode int
	Output   string
	Err      error
}

func (e *RemoteOperationError) Error() string {
	msg := fmt.Sprintf("remote operation %s failed", e.Op.Kind)
	if e.Op.Drive != "" {
		msg += fmt.Sprintf(" for drive %s", e.Op.Drive)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	} else {
		msg += fmt.Sprintf(": exit code %d", e.ExitCode)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += fmt.Sprintf(", output: %s", out)
	}
	return msg
}

func (e *RemoteOperationError) Unwrap() error {
	return e.Err
}

// PartialConvergenceError 包装 RemoteOperationError，并携带失败前已成功的操作列表
// 调用方应基于实际状态重新 diff 并构造后续 Plan，而不是盲目重放原 Plan
type PartialConvergenceError struct {
	// Completed 失败前已成功执行的操作
	Completed []Operation
	// Cause 导致中止的远程操作错误
	Cause *RemoteOperationError
}

func (e *PartialConvergenceError) Error() string {
	return fmt.Sprintf("plan aborted after %d completed operations: %v", len(e.Completed), e.Cause)
}

func (e *PartialConvergenceError) Unwrap() error {
	return e.Cause
}
