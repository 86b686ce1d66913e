package service

import (
	"context"
	"fmt"

	"github.com/jimyag/vmconverge/internal/converge/entity"
	"github.com/jimyag/vmconverge/internal/converge/repository/model"
	"github.com/jimyag/vmconverge/pkg/convergence"
	"github.com/rs/zerolog"
)

// 设备槽位字母表，下标即槽位序号
const deviceLetters = "abcdefghijklmnopqrstuvwxyz"

// RegisterVM 注册一台 VM 到库存
// 磁盘按声明顺序分配设备槽位字母（a、b、c...）
func (s *ConvergeService) RegisterVM(ctx context.Context, req *entity.RegisterVMRequest) (*entity.VM, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("name", req.Name).
		Str("backend", req.Backend).
		Str("host", req.Host).
		Msg("Registering VM")

	if !convergence.Backend(req.Backend).Valid() {
		return nil, &convergence.ValidationError{Reason: fmt.Sprintf("unsupported backend %q", req.Backend)}
	}
	if len(req.Storages) == 0 {
		return nil, &convergence.ValidationError{Reason: "at least one storage is required"}
	}
	if len(req.Storages) > len(deviceLetters) {
		return nil, &convergence.ValidationError{Reason: fmt.Sprintf("too many storages: %d", len(req.Storages))}
	}
	primaries := 0
	for _, storage := range req.Storages {
		if storage.SizeGB <= 0 {
			return nil, &convergence.ValidationError{DriveID: storage.DriveID, Reason: "storage size must be positive"}
		}
		if storage.Primary {
			primaries++
		}
	}
	if primaries != 1 {
		return nil, &convergence.ValidationError{Reason: fmt.Sprintf("exactly one primary storage is required, got %d", primaries)}
	}

	vmID, err := s.idGen.GenerateVMID()
	if err != nil {
		return nil, fmt.Errorf("generate vm ID: %w", err)
	}

	vm := &model.VM{
		ID:      vmID,
		Name:    req.Name,
		Backend: req.Backend,
		Host:    req.Host,
		CPU:     req.CPU,
		RAMMB:   req.RAMMB,
		State:   "running",
	}

	drives := make([]*model.Drive, 0, len(req.Storages))
	for i, storage := range req.Storages {
		driveID := storage.DriveID
		if driveID == "" {
			driveID, err = s.idGen.GenerateDriveID()
			if err != nil {
				return nil, fmt.Errorf("generate drive ID: %w", err)
			}
		}
		drives = append(drives, &model.Drive{
			DriveID:   driveID,
			SizeGB:    storage.SizeGB,
			IsPrimary: storage.Primary,
			Device:    string(deviceLetters[i]),
		})
	}

	if err := s.vmRepo.Create(ctx, vm, drives); err != nil {
		return nil, fmt.Errorf("create vm: %w", err)
	}

	logger.Info().Str("vmID", vmID).Msg("VM registered successfully")

	return vmModelToEntity(vm, drives)
}

// DescribeVMs 按条件查询 VM 库存
func (s *ConvergeService) DescribeVMs(ctx context.Context, req *entity.DescribeVMsRequest) ([]entity.VM, error) {
	filters := map[string]interface{}{}
	if len(req.VMIDs) > 0 {
		filters["ids"] = req.VMIDs
	}
	if req.Backend != "" {
		filters["backend"] = req.Backend
	}

	vms, err := s.vmRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list vms: %w", err)
	}

	result := make([]entity.VM, 0, len(vms))
	for _, vm := range vms {
		drives, err := s.vmRepo.ListDrives(ctx, vm.ID)
		if err != nil {
			return nil, fmt.Errorf("list drives of %s: %w", vm.ID, err)
		}
		e, err := vmModelToEntity(vm, drives)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}

	return result, nil
}
