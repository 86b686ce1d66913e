package model

import (
	"time"
)

// Drive 虚拟机磁盘表
// 磁盘 ID 在 VM 内唯一，主键为 (vm_id, drive_id)
type Drive struct {
	VMID      string    `gorm:"primaryKey;type:text;column:vm_id" json:"vm_id"` // 关联 vms.id
	DriveID   string    `gorm:"primaryKey;type:text;column:drive_id" json:"drive_id"`
	SizeGB    int       `gorm:"type:integer;not null;column:size_gb" json:"size_gb"`
	IsPrimary bool      `gorm:"type:boolean;default:0;column:is_primary" json:"is_primary"` // 系统盘
	Device    string    `gorm:"type:text;column:device" json:"device"`                      // 设备尾字母，如 a、b
	CreatedAt time.Time `gorm:"type:datetime;not null;column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;column:updated_at" json:"updated_at"`
}

// TableName 指定表名
func (Drive) TableName() string {
	return "drives"
}
