package model

import (
	"time"

	"gorm.io/gorm"
)

// VM 虚拟机库存表
type VM struct {
	ID        string         `gorm:"primaryKey;type:text;column:id" json:"id"` // vm-{递增 ID}
	Name      string         `gorm:"type:text;not null;column:name" json:"name"`
	Backend   string         `gorm:"type:text;not null;index:idx_vms_backend;column:backend" json:"backend"` // kvm, hyperv
	Host      string         `gorm:"type:text;not null;column:host" json:"host"`                             // 宿主机地址
	CPU       int            `gorm:"type:integer;not null;column:cpu" json:"cpu"`
	RAMMB     int            `gorm:"type:integer;not null;column:ram_mb" json:"ram_mb"`
	State     string         `gorm:"type:text;not null;index:idx_vms_state;column:state" json:"state"` // running, shut off, unknown
	CreatedAt time.Time      `gorm:"type:datetime;not null;column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"type:datetime;not null;column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"type:datetime;index:idx_vms_deleted_at;column:deleted_at" json:"deleted_at,omitempty"` // 软删除
}

// TableName 指定表名
func (VM) TableName() string {
	return "vms"
}
