package repository

import (
	"context"

	"github.com/jimyag/vmconverge/internal/converge/repository/model"
	"gorm.io/gorm"
)

// VMRepository 虚拟机库存仓库接口
type VMRepository interface {
	Create(ctx context.Context, vm *model.VM, drives []*model.Drive) error
	GetByID(ctx context.Context, id string) (*model.VM, error)
	GetByHostName(ctx context.Context, host, name string) (*model.VM, error)
	List(ctx context.Context, filters map[string]interface{}) ([]*model.VM, error)
	Update(ctx context.Context, vm *model.VM) error
	Delete(ctx context.Context, id string) error
	ListDrives(ctx context.Context, vmID string) ([]*model.Drive, error)
	ReplaceDrives(ctx context.Context, vmID string, drives []*model.Drive) error
}

type vmRepository struct {
	db *gorm.DB
}

// NewVMRepository 创建虚拟机库存仓库
func NewVMRepository(db *gorm.DB) VMRepository {
	return &vmRepository{db: db}
}

// Create 创建 VM 记录及其磁盘
func (r *vmRepository) Create(ctx context.Context, vm *model.VM, drives []*model.Drive) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(vm).Error; err != nil {
			return err
		}
		for _, drive := range drives {
			drive.VMID = vm.ID
			if err := tx.Create(drive).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID 根据 ID 获取 VM
func (r *vmRepository) GetByID(ctx context.Context, id string) (*model.VM, error) {
	var vm model.VM
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&vm).Error; err != nil {
		return nil, err
	}
	return &vm, nil
}

// GetByHostName 根据宿主机和 VM 名获取 VM
func (r *vmRepository) GetByHostName(ctx context.Context, host, name string) (*model.VM, error) {
	var vm model.VM
	if err := r.db.WithContext(ctx).Where("host = ? AND name = ?", host, name).First(&vm).Error; err != nil {
		return nil, err
	}
	return &vm, nil
}

// List 列出 VM
func (r *vmRepository) List(ctx context.Context, filters map[string]interface{}) ([]*model.VM, error) {
	var vms []*model.VM
	query := r.db.WithContext(ctx).Model(&model.VM{})

	// 应用过滤器
	if backend, ok := filters["backend"]; ok {
		query = query.Where("backend = ?", backend)
	}
	if state, ok := filters["state"]; ok {
		query = query.Where("state = ?", state)
	}
	if ids, ok := filters["ids"]; ok {
		query = query.Where("id IN ?", ids)
	}

	if err := query.Order("created_at").Find(&vms).Error; err != nil {
		return nil, err
	}

	return vms, nil
}

// Update 更新 VM
func (r *vmRepository) Update(ctx context.Context, vm *model.VM) error {
	return r.db.WithContext(ctx).Save(vm).Error
}

// Delete 软删除 VM，同时清理其磁盘记录
func (r *vmRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.VM{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Drive{}, "vm_id = ?", id).Error
	})
}

// ListDrives 列出 VM 的磁盘
// 按设备字母排序，保证主盘在前、分配顺序稳定
func (r *vmRepository) ListDrives(ctx context.Context, vmID string) ([]*model.Drive, error) {
	var drives []*model.Drive
	if err := r.db.WithContext(ctx).
		Where("vm_id = ?", vmID).
		Order("device").
		Find(&drives).Error; err != nil {
		return nil, err
	}
	return drives, nil
}

// ReplaceDrives 用给定的磁盘集合替换 VM 的磁盘记录
// 收敛成功后用计划的结果整体覆盖
func (r *vmRepository) ReplaceDrives(ctx context.Context, vmID string, drives []*model.Drive) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Drive{}, "vm_id = ?", vmID).Error; err != nil {
			return err
		}
		for _, drive := range drives {
			drive.VMID = vmID
			if err := tx.Create(drive).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
