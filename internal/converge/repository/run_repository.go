package repository

import (
	"context"

	"github.com/jimyag/vmconverge/internal/converge/repository/model"
	"gorm.io/gorm"
)

// RunRepository 收敛任务仓库接口
type RunRepository interface {
	Create(ctx context.Context, run *model.Run) error
	GetByID(ctx context.Context, id string) (*model.Run, error)
	List(ctx context.Context, filters map[string]interface{}) ([]*model.Run, error)
	Update(ctx context.Context, run *model.Run) error
	ListPending(ctx context.Context) ([]*model.Run, error)
}

type runRepository struct {
	db *gorm.DB
}

// NewRunRepository 创建收敛任务仓库
func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

// Create 创建收敛任务
func (r *runRepository) Create(ctx context.Context, run *model.Run) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// GetByID 根据 ID 获取收敛任务
func (r *runRepository) GetByID(ctx context.Context, id string) (*model.Run, error) {
	var run model.Run
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// List 列出收敛任务
func (r *runRepository) List(ctx context.Context, filters map[string]interface{}) ([]*model.Run, error) {
	var runs []*model.Run
	query := r.db.WithContext(ctx).Model(&model.Run{})

	// 应用过滤器
	if vmID, ok := filters["vm_id"]; ok {
		query = query.Where("vm_id = ?", vmID)
	}
	if status, ok := filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if ids, ok := filters["ids"]; ok {
		query = query.Where("id IN ?", ids)
	}

	if err := query.Order("created_at").Find(&runs).Error; err != nil {
		return nil, err
	}

	return runs, nil
}

// Update 更新收敛任务
func (r *runRepository) Update(ctx context.Context, run *model.Run) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// ListPending 列出待执行的收敛任务，按创建时间排序
func (r *runRepository) ListPending(ctx context.Context) ([]*model.Run, error) {
	var runs []*model.Run
	if err := r.db.WithContext(ctx).
		Where("status = ?", "pending").
		Order("created_at").
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
