package entity

// Run 状态
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// Run 一次收敛任务
type Run struct {
	RunID      string         `json:"runID"` // run-{递增 ID}
	VMID       string         `json:"vmID"`
	Status     string         `json:"status"`
	Operations []RunOperation `json:"operations,omitempty"` // 已执行的操作
	Error      string         `json:"error,omitempty"`
	CreateAt   string         `json:"createAt"`
	UpdateAt   string         `json:"updateAt"`
}

// RunOperation 收敛计划中的一个操作及其执行结果
type RunOperation struct {
	Kind    string `json:"kind"`
	Drive   string `json:"drive,omitempty"`
	Command string `json:"command"`
	Done    bool   `json:"done"`
}

// ConvergeRequest 发起收敛请求
// CPU、RAMMB 为 nil 表示保持不变
type ConvergeRequest struct {
	VMID     string        `json:"vmID" binding:"required"`
	CPU      *int          `json:"cpu,omitempty"`
	RAMMB    *int          `json:"ramMB,omitempty"`
	Storages []DriveTarget `json:"storages,omitempty"`
}

// ConvergeResponse 发起收敛响应
type ConvergeResponse struct {
	Run *Run `json:"run"`
}

// DescribeRunsRequest 描述收敛任务请求
type DescribeRunsRequest struct {
	RunIDs []string `json:"runIDs,omitempty"`
	VMID   string   `json:"vmID,omitempty"`
	Status string   `json:"status,omitempty"`
}

// DescribeRunsResponse 描述收敛任务响应
type DescribeRunsResponse struct {
	Runs []Run `json:"runs"`
}
