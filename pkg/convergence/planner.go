package convergence

// CommandSet 后端能力接口
// 每个虚拟化后端（KVM、Hyper-V）提供一个实现，把分类好的动作渲染成
// 后端原生命令。新增一种 hypervisor 意味着新增一个实现，而不是在
// 共享逻辑里加条件分支。
type CommandSet interface {
	// Backend 返回该实现对应的后端类型
	Backend() Backend
	// RequiresShutdown 判断应用 diff 前是否必须先停机
	RequiresShutdown(diff *ResourceTarget) bool
	// Shutdown 停机并等待 VM 上报 stopped 状态
	Shutdown(vm VmIdentity) []Operation
	// Start 启动 VM
	Start(vm VmIdentity) []Operation
	// SetCPU 设置最大和当前 vCPU 数
	SetCPU(vm VmIdentity, cores int) []Operation
	// SetRAM 设置最大和当前（或启动）内存，入参单位为 MB
	SetRAM(vm VmIdentity, megabytes int) []Operation
	// ResizeDrive 扩展底层镜像到新大小
	ResizeDrive(vm VmIdentity, action StorageAction) []Operation
	// ExpandPartition 把客户机可见分区扩展到新支持的最大值（幂等）
	ExpandPartition(vm VmIdentity, action StorageAction) []Operation
	// DeleteDrive 确认脱离后删除底层镜像文件
	DeleteDrive(vm VmIdentity, action StorageAction) []Operation
	// CreateDrive 按请求大小分配新的底层镜像
	CreateDrive(vm VmIdentity, action StorageAction, slot DeviceSlot) []Operation
	// AttachDrive 把新镜像挂载到分配的设备槽位
	AttachDrive(vm VmIdentity, action StorageAction, slot DeviceSlot) []Operation
}

// BuildPlan 把 diff 编译为一份有序、不可变的操作计划
//
// 所有后端共享同一份顺序契约：
//
//  1. 需要停机时先 shutdown（并等待 stopped）
//  2. CPU 变更
//  3. RAM 变更
//  4. 磁盘动作，固定子顺序：先全部 Grow（扩镜像 + 扩分区），
//     再全部 Delete，最后全部 Create（建镜像 + 挂载）
//  5. 第 1 步停过机则最后 start
//
// 校验错误（ValidationError）和槽位分配错误（AllocationError）在此
// 返回，保证这两类错误永远不会触碰远程主机。空 diff 产生空 Plan。
func BuildPlan(cs CommandSet, vm VmIdentity, diff *ResourceTarget) (*Plan, error) {
	if diff.Empty() {
		return NewPlan(vm, cs.Backend(), nil), nil
	}

	actions, err := ClassifyAll(diff.Storages)
	if err != nil {
		return nil, err
	}
	slots, err := AllocateSlots(diff.TotalDrives, actions)
	if err != nil {
		return nil, err
	}
	slotByDrive := make(map[string]DeviceSlot, len(slots))
	for _, s := range slots {
		slotByDrive[s.DriveID] = s
	}

	var ops []Operation
	stopped := cs.RequiresShutdown(diff)
	if stopped {
		ops = append(ops, cs.Shutdown(vm)...)
	}
	if diff.CPU != nil {
		ops = append(ops, cs.SetCPU(vm, *diff.CPU)...)
	}
	if diff.RAMMB != nil {
		ops = append(ops, cs.SetRAM(vm, *diff.RAMMB)...)
	}

	for _, a := range actions {
		if a.Kind != ActionGrow {
			continue
		}
		ops = append(ops, cs.ResizeDrive(vm, a)...)
		ops = append(ops, cs.ExpandPartition(vm, a)...)
	}
	for _, a := range actions {
		if a.Kind != ActionDelete {
			continue
		}
		ops = append(ops, cs.DeleteDrive(vm, a)...)
	}
	for _, a := range actions {
		if a.Kind != ActionCreate {
			continue
		}
		slot := slotByDrive[a.Drive.ID]
		ops = append(ops, cs.CreateDrive(vm, a, slot)...)
		ops = append(ops, cs.AttachDrive(vm, a, slot)...)
	}

	if stopped {
		ops = append(ops, cs.Start(vm)...)
	}
	return NewPlan(vm, cs.Backend(), ops), nil
}
