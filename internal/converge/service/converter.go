package service

import (
	"encoding/json"
	"time"

	"github.com/jimyag/vmconverge/internal/converge/entity"
	"github.com/jimyag/vmconverge/internal/converge/repository/model"
	"github.com/jimyag/vmconverge/pkg/convergence"
	"github.com/jinzhu/copier"
)

// vmModelToEntity 将 model.VM 及其磁盘转换为 entity.VM
func vmModelToEntity(m *model.VM, drives []*model.Drive) (*entity.VM, error) {
	e := &entity.VM{}
	if err := copier.Copy(e, m); err != nil {
		return nil, err
	}
	e.VMID = m.ID

	e.Storages = make([]entity.Drive, 0, len(drives))
	for _, d := range drives {
		e.Storages = append(e.Storages, entity.Drive{
			DriveID: d.DriveID,
			SizeGB:  d.SizeGB,
			Primary: d.IsPrimary,
			Device:  d.Device,
		})
	}

	// 处理时间字段
	e.CreateAt = m.CreatedAt.Format(time.RFC3339)
	e.UpdateAt = m.UpdatedAt.Format(time.RFC3339)

	return e, nil
}

// runModelToEntity 将 model.Run 转换为 entity.Run
func runModelToEntity(m *model.Run) (*entity.Run, error) {
	e := &entity.Run{}
	if err := copier.Copy(e, m); err != nil {
		return nil, err
	}
	e.RunID = m.ID

	if m.Operations != "" {
		if err := json.Unmarshal([]byte(m.Operations), &e.Operations); err != nil {
			return nil, err
		}
	}

	// 处理时间字段
	e.CreateAt = m.CreatedAt.Format(time.RFC3339)
	e.UpdateAt = m.UpdatedAt.Format(time.RFC3339)

	return e, nil
}

// currentTarget 把库存记录转换为当前状态快照
// 每块磁盘 OldSizeGB == NewSizeGB == 实际大小
func currentTarget(vm *model.VM, drives []*model.Drive) *convergence.ResourceTarget {
	cpu := vm.CPU
	ram := vm.RAMMB
	target := &convergence.ResourceTarget{
		CPU:   &cpu,
		RAMMB: &ram,
	}
	for _, d := range drives {
		target.Storages = append(target.Storages, convergence.DriveChange{
			ID:        d.DriveID,
			OldSizeGB: d.SizeGB,
			NewSizeGB: d.SizeGB,
			Primary:   d.IsPrimary,
			Device:    d.Device,
		})
	}
	return target
}

// desiredTarget 把收敛请求转换为期望状态
func desiredTarget(req *entity.ConvergeRequest) *convergence.ResourceTarget {
	target := &convergence.ResourceTarget{
		CPU:   req.CPU,
		RAMMB: req.RAMMB,
	}
	for _, s := range req.Storages {
		target.Storages = append(target.Storages, convergence.DriveChange{
			ID:        s.DriveID,
			NewSizeGB: s.SizeGB,
			Primary:   s.Primary,
		})
	}
	return target
}

// planOperations 把 Plan 的操作和执行结果编码为可持久化的列表
func planOperations(plan *convergence.Plan, completed []convergence.Operation) []entity.RunOperation {
	done := make(map[convergence.Operation]bool, len(completed))
	for _, op := range completed {
		done[op] = true
	}
	ops := make([]entity.RunOperation, 0, plan.Len())
	for _, op := range plan.Operations() {
		ops = append(ops, entity.RunOperation{
			Kind:    string(op.Kind),
			Drive:   op.Drive,
			Command: op.Command,
			Done:    done[op],
		})
	}
	return ops
}
