package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jimyag/vmconverge/internal/converge/entity"
	"github.com/jimyag/vmconverge/internal/converge/repository/model"
	"github.com/jimyag/vmconverge/pkg/convergence"
	"github.com/rs/zerolog"
)

// RequestConvergence 创建一个收敛任务
// 校验错误（缩容、槽位耗尽等）在这里直接返回，不会产生任务记录，
// 保证非法请求永远不会触碰远程主机
func (s *ConvergeService) RequestConvergence(ctx context.Context, req *entity.ConvergeRequest) (*entity.Run, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("vmID", req.VMID).Msg("Requesting convergence")

	vm, err := s.vmRepo.GetByID(ctx, req.VMID)
	if err != nil {
		return nil, fmt.Errorf("get vm %s: %w", req.VMID, err)
	}
	drives, err := s.vmRepo.ListDrives(ctx, vm.ID)
	if err != nil {
		return nil, fmt.Errorf("list drives of %s: %w", vm.ID, err)
	}

	if req.CPU != nil && *req.CPU <= 0 {
		return nil, &convergence.ValidationError{Reason: "cpu must be positive"}
	}
	if req.RAMMB != nil && *req.RAMMB <= 0 {
		return nil, &convergence.ValidationError{Reason: "ramMB must be positive"}
	}

	// 空 driveID 表示新建磁盘，和注册时一样由服务端生成 ID；
	// 同一请求里重复引用同一块磁盘是歧义输入，直接拒绝
	seen := make(map[string]bool, len(req.Storages))
	for i := range req.Storages {
		storage := &req.Storages[i]
		if storage.DriveID == "" {
			driveID, err := s.idGen.GenerateDriveID()
			if err != nil {
				return nil, fmt.Errorf("generate drive ID: %w", err)
			}
			storage.DriveID = driveID
		}
		if seen[storage.DriveID] {
			return nil, &convergence.ValidationError{DriveID: storage.DriveID, Reason: "duplicate drive ID in request"}
		}
		seen[storage.DriveID] = true
	}

	// 收敛完成后必须仍然恰好一块主盘：多块主盘会让系统盘镜像路径
	// 产生冲突，零块则没有可引导的磁盘
	if primaries := primariesAfter(drives, req.Storages); primaries != 1 {
		return nil, &convergence.ValidationError{
			Reason: fmt.Sprintf("convergence must leave exactly one primary storage, got %d", primaries),
		}
	}

	// 预演 diff -> 分类 -> 槽位分配，把校验错误拦截在任务入库之前
	diff := convergence.ComputeDiff(currentTarget(vm, drives), desiredTarget(req))
	actions, err := convergence.ClassifyAll(diff.Storages)
	if err != nil {
		return nil, err
	}
	if _, err := convergence.AllocateSlots(diff.TotalDrives, actions); err != nil {
		return nil, err
	}

	runID, err := s.idGen.GenerateRunID()
	if err != nil {
		return nil, fmt.Errorf("generate run ID: %w", err)
	}
	request, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	run := &model.Run{
		ID:      runID,
		VMID:    vm.ID,
		Status:  entity.RunStatusPending,
		Request: string(request),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	logger.Info().Str("runID", runID).Str("vmID", vm.ID).Msg("Convergence run created")

	return runModelToEntity(run)
}

// primariesAfter 计算收敛完成后的主盘数量
// 已有主盘不会被降级（和 diff 的 primary 合并语义一致），
// 删除会释放其主盘标记，新建按请求标记计入
func primariesAfter(drives []*model.Drive, storages []entity.DriveTarget) int {
	existing := make(map[string]bool, len(drives))
	primaryOf := make(map[string]bool, len(drives))
	for _, d := range drives {
		existing[d.DriveID] = true
		primaryOf[d.DriveID] = d.IsPrimary
	}
	for _, storage := range storages {
		switch {
		case existing[storage.DriveID] && storage.SizeGB == 0:
			delete(primaryOf, storage.DriveID)
		case existing[storage.DriveID]:
			if storage.Primary {
				primaryOf[storage.DriveID] = true
			}
		case storage.SizeGB > 0:
			primaryOf[storage.DriveID] = storage.Primary
		}
	}
	primaries := 0
	for _, primary := range primaryOf {
		if primary {
			primaries++
		}
	}
	return primaries
}

// DescribeRuns 按条件查询收敛任务
func (s *ConvergeService) DescribeRuns(ctx context.Context, req *entity.DescribeRunsRequest) ([]entity.Run, error) {
	filters := map[string]interface{}{}
	if len(req.RunIDs) > 0 {
		filters["ids"] = req.RunIDs
	}
	if req.VMID != "" {
		filters["vm_id"] = req.VMID
	}
	if req.Status != "" {
		filters["status"] = req.Status
	}

	runs, err := s.runRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	result := make([]entity.Run, 0, len(runs))
	for _, run := range runs {
		e, err := runModelToEntity(run)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}

	return result, nil
}

// PendingRuns 返回所有待执行的收敛任务，按创建时间排序
func (s *ConvergeService) PendingRuns(ctx context.Context) ([]entity.Run, error) {
	runs, err := s.runRepo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending runs: %w", err)
	}

	result := make([]entity.Run, 0, len(runs))
	for _, run := range runs {
		e, err := runModelToEntity(run)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}

	return result, nil
}

// Converge 执行一个收敛任务
//
// 流程：加载任务和 VM -> 探测实际状态（可选）-> diff -> 编译 Plan ->
// 连接宿主机 -> 顺序执行 -> 持久化结果并更新库存。
// 执行失败时任务标记为 failed，错误信息含已完成的操作数，
// VM 保持停机状态留给运维检查。
func (s *ConvergeService) Converge(ctx context.Context, runID string) error {
	logger := zerolog.Ctx(ctx)

	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("get run %s: %w", runID, err)
	}
	if run.Status != entity.RunStatusPending {
		return fmt.Errorf("run %s is %s, not pending", runID, run.Status)
	}

	run.Status = entity.RunStatusRunning
	if err := s.runRepo.Update(ctx, run); err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}

	err = s.converge(ctx, run)
	if err != nil {
		run.Status = entity.RunStatusFailed
		run.Error = err.Error()
		logger.Error().Err(err).Str("runID", run.ID).Msg("Convergence failed")
	} else {
		run.Status = entity.RunStatusSucceeded
		logger.Info().Str("runID", run.ID).Msg("Convergence succeeded")
	}
	if updateErr := s.runRepo.Update(ctx, run); updateErr != nil {
		logger.Error().Err(updateErr).Str("runID", run.ID).Msg("Persist run outcome failed")
		if err == nil {
			err = fmt.Errorf("persist run outcome: %w", updateErr)
		}
	}
	return err
}

// converge 执行收敛的核心流程，run 的操作记录由本方法写入
func (s *ConvergeService) converge(ctx context.Context, run *model.Run) error {
	logger := zerolog.Ctx(ctx)

	vm, err := s.vmRepo.GetByID(ctx, run.VMID)
	if err != nil {
		return fmt.Errorf("get vm %s: %w", run.VMID, err)
	}
	drives, err := s.vmRepo.ListDrives(ctx, vm.ID)
	if err != nil {
		return fmt.Errorf("list drives of %s: %w", vm.ID, err)
	}

	var req entity.ConvergeRequest
	if err := json.Unmarshal([]byte(run.Request), &req); err != nil {
		return fmt.Errorf("unmarshal request: %w", err)
	}

	backend := convergence.Backend(vm.Backend)
	s.refreshFromHost(ctx, vm, backend)

	diff := convergence.ComputeDiff(currentTarget(vm, drives), desiredTarget(&req))
	cs, ok := s.commandSets[backend]
	if !ok {
		return fmt.Errorf("no command set for backend %s", backend)
	}
	plan, err := convergence.BuildPlan(cs, convergence.VmIdentity(vm.Name), diff)
	if err != nil {
		return err
	}
	if plan.Len() == 0 {
		logger.Info().Str("vmID", vm.ID).Msg("Already converged, nothing to do")
		return nil
	}

	dialer, ok := s.dialers[backend]
	if !ok {
		return fmt.Errorf("no dialer for backend %s", backend)
	}
	sess, err := dialer.Dial(ctx, vm.Host)
	if err != nil {
		return fmt.Errorf("dial %s: %w", vm.Host, err)
	}
	defer sess.Close()

	outcome := s.executor.Apply(ctx, sess, plan)

	ops, marshalErr := json.Marshal(planOperations(plan, outcome.Completed))
	if marshalErr != nil {
		return fmt.Errorf("marshal operations: %w", marshalErr)
	}
	run.Operations = string(ops)

	if !outcome.Succeeded() {
		return outcome.Err
	}

	return s.persistConverged(ctx, vm, drives, diff, plan)
}

// refreshFromHost 用宿主机实际状态刷新库存快照（目前仅 KVM）
// 探测失败只降级为警告，继续以库存记录为准
func (s *ConvergeService) refreshFromHost(ctx context.Context, vm *model.VM, backend convergence.Backend) {
	if s.probeFactory == nil || backend != convergence.BackendKVM {
		return
	}
	logger := zerolog.Ctx(ctx)

	client, err := s.probeFactory(vm.Host)
	if err != nil {
		logger.Warn().Err(err).Str("host", vm.Host).Msg("Probe connection failed, using inventory state")
		return
	}
	defer client.Close()

	vcpus, memoryKB, err := client.DomainHardware(vm.Name)
	if err != nil {
		logger.Warn().Err(err).Str("vm", vm.Name).Msg("Probe hardware failed, using inventory state")
		return
	}
	vm.CPU = vcpus
	vm.RAMMB = int(memoryKB / 1024)

	if state, err := client.DomainState(vm.Name); err == nil {
		vm.State = state
	}
}

// persistConverged 收敛成功后把期望状态写回库存
func (s *ConvergeService) persistConverged(ctx context.Context, vm *model.VM, drives []*model.Drive, diff *convergence.ResourceTarget, plan *convergence.Plan) error {
	if diff.CPU != nil {
		vm.CPU = *diff.CPU
	}
	if diff.RAMMB != nil {
		vm.RAMMB = *diff.RAMMB
	}
	// 计划以 start 结尾说明执行过停机重启，VM 最终处于运行态；
	// 未停机的计划（如 Hyper-V 在线调 CPU/RAM）不改动状态记录
	if ops := plan.Operations(); len(ops) > 0 && ops[len(ops)-1].Kind == convergence.OpStart {
		vm.State = "running"
	}
	if err := s.vmRepo.Update(ctx, vm); err != nil {
		return fmt.Errorf("update vm: %w", err)
	}

	if !diff.HasStorageChange() {
		return nil
	}

	// 复算槽位分配，新建磁盘落库时带上分配到的设备字母
	actions, err := convergence.ClassifyAll(diff.Storages)
	if err != nil {
		return err
	}
	slots, err := convergence.AllocateSlots(diff.TotalDrives, actions)
	if err != nil {
		return err
	}
	slotByDrive := make(map[string]convergence.DeviceSlot, len(slots))
	for _, slot := range slots {
		slotByDrive[slot.DriveID] = slot
	}

	final := make(map[string]*model.Drive, len(drives))
	for _, d := range drives {
		final[d.DriveID] = d
	}
	for _, a := range actions {
		switch a.Kind {
		case convergence.ActionGrow:
			final[a.Drive.ID].SizeGB = a.Drive.NewSizeGB
		case convergence.ActionDelete:
			delete(final, a.Drive.ID)
		case convergence.ActionCreate:
			final[a.Drive.ID] = &model.Drive{
				DriveID:   a.Drive.ID,
				SizeGB:    a.SizeGB,
				IsPrimary: a.Drive.Primary,
				Device:    slotByDrive[a.Drive.ID].Letter,
			}
		}
	}

	result := make([]*model.Drive, 0, len(final))
	for _, d := range final {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Device < result[j].Device })

	return s.vmRepo.ReplaceDrives(ctx, vm.ID, result)
}
