package model

import (
	"time"

	"gorm.io/gorm"
)

// Run 收敛任务表
type Run struct {
	ID         string         `gorm:"primaryKey;type:text;column:id" json:"id"`                          // run-{递增 ID}
	VMID       string         `gorm:"type:text;not null;index:idx_runs_vm_id;column:vm_id" json:"vm_id"` // 关联 vms.id
	Status     string         `gorm:"type:text;not null;index:idx_runs_status;column:status" json:"status"`
	Request    string         `gorm:"type:text;not null;column:request" json:"request"` // 期望状态（JSON）
	Operations string         `gorm:"type:text;column:operations" json:"operations"`    // 执行过的操作（JSON）
	Error      string         `gorm:"type:text;column:error" json:"error"`
	CreatedAt  time.Time      `gorm:"type:datetime;not null;index:idx_runs_created_at;column:created_at" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"type:datetime;not null;column:updated_at" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"type:datetime;index:idx_runs_deleted_at;column:deleted_at" json:"deleted_at,omitempty"` // 软删除
}

// TableName 指定表名
func (Run) TableName() string {
	return "runs"
}
