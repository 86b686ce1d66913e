package convergence

// Backend 标识虚拟化后端类型
type Backend string

const (
	// BackendKVM KVM/libvirt 宿主机，通过 SSH 执行 virsh/qemu-img 命令
	BackendKVM Backend = "kvm"
	// BackendHyperV Hyper-V 宿主机，通过 WinRM 执行 PowerShell 命令
	BackendHyperV Backend = "hyperv"
)

// Valid 检查后端类型是否合法
func (b Backend) Valid() bool {
	return b == BackendKVM || b == BackendHyperV
}

// VmIdentity VM 的稳定唯一标识，一旦分配不再变化
// 所有后端查找都以它为主键（例如 libvirt domain name、Hyper-V VM name）
type VmIdentity string

// UnsetSize 表示磁盘在变更前不存在
// 沿用上游 API 的约定：old_size 为 0 意味着这是一块尚未创建的磁盘
const UnsetSize = 0

// DriveChange 描述一块磁盘的 (旧大小, 新大小) 变更对
//
// 分类规则（见 Classify）：
//   - OldSizeGB == UnsetSize 且 NewSizeGB > 0  -> 创建
//   - OldSizeGB > 0 且 NewSizeGB == 0          -> 删除
//   - NewSizeGB > OldSizeGB                     -> 扩容
//   - NewSizeGB == OldSizeGB                    -> 无操作
//
// 把已存在的磁盘缩小到非零值是不支持的，会返回 ValidationError。
type DriveChange struct {
	// ID 磁盘的稳定标识
	ID string
	// OldSizeGB 变更前大小（GB），UnsetSize 表示磁盘尚不存在
	OldSizeGB int
	// NewSizeGB 变更后大小（GB），0 表示删除已存在的磁盘
	NewSizeGB int
	// Primary 是否为系统盘
	Primary bool
	// Device 已存在磁盘当前占用的设备槽位字母（如 "a"）
	// 新建磁盘留空，由 AllocateSlots 分配
	Device string
}

// ResourceTarget 描述一台 VM 的资源目标
// CPU 和 RAMMB 为 nil 表示该维度不要求变更
type ResourceTarget struct {
	// CPU 期望的 vCPU 核数
	CPU *int
	// RAMMB 期望的内存大小（MB）
	RAMMB *int
	// Storages 磁盘变更列表，顺序即分类顺序
	Storages []DriveChange
	// TotalDrives 变更完成后 VM 应有的磁盘总数
	// 包含本次要删除的磁盘（它们的槽位在删除操作执行前仍被占用），
	// 槽位分配依赖这个数字做碰撞规避
	TotalDrives int
}

// Empty 判断目标是否为空（没有任何需要执行的变更）
// 下游组件必须把空目标当作 "nothing to do"
func (t *ResourceTarget) Empty() bool {
	return t.CPU == nil && t.RAMMB == nil && len(t.Storages) == 0
}

// HasStorageChange 判断是否包含磁盘变更
func (t *ResourceTarget) HasStorageChange() bool {
	return len(t.Storages) > 0
}

// DeviceSlot 新建磁盘的设备槽位分配结果
// 只在一次收敛内有效，Plan 生成后即丢弃，从不持久化
type DeviceSlot struct {
	// DriveID 被分配的磁盘
	DriveID string
	// Index 槽位在字母表中的下标（0 -> 'a'）
	Index int
	// Letter 槽位字母
	Letter string
}
