package convergence

import (
	"fmt"
	"path"
	"strings"
)

// KVMCommandSet KVM/libvirt 后端的命令渲染实现
// 渲染出的命令通过 SSH 在宿主机上执行（virsh / qemu-img / virt-customize）
type KVMCommandSet struct {
	// vmsPath 宿主机上存放 VM 镜像文件的目录
	vmsPath string
}

// NewKVMCommandSet 创建 KVM 命令集
// vmsPath 为空时使用默认的 /var/lib/vmconverge/vms
func NewKVMCommandSet(vmsPath string) *KVMCommandSet {
	if vmsPath == "" {
		vmsPath = "/var/lib/vmconverge/vms"
	}
	return &KVMCommandSet{vmsPath: vmsPath}
}

func (k *KVMCommandSet) Backend() Backend { return BackendKVM }

// RequiresShutdown KVM 的 CPU/RAM/磁盘变更都要求 domain 处于停机状态
// （setvcpus/setmaxmem --config 只对停机后的下一次定义生效，镜像文件
// 也不能在运行中安全地 resize），所以任何变更都先停机
func (k *KVMCommandSet) RequiresShutdown(diff *ResourceTarget) bool {
	return !diff.Empty()
}

// drivePath 返回磁盘镜像在宿主机上的路径
// 系统盘命名为 <vm>.img，数据盘为 <vm>_<drive>.img
func (k *KVMCommandSet) drivePath(vm VmIdentity, d DriveChange) string {
	if d.Primary {
		return path.Join(k.vmsPath, fmt.Sprintf("%s.img", vm))
	}
	return path.Join(k.vmsPath, fmt.Sprintf("%s_%s.img", vm, d.ID))
}

// deviceName 渲染 virtio 设备名，槽位字母拼在 vd 之后
func deviceName(letter string) string {
	return "vd" + letter
}

// Shutdown 停机并轮询 domstate 直到 domain 上报 shut off
// 轮询没有自带时钟，超时由远程执行协作方的命令超时兜底
func (k *KVMCommandSet) Shutdown(vm VmIdentity) []Operation {
	cmd := fmt.Sprintf(
		"virsh shutdown %s || true; until virsh domstate %s | grep -q 'shut off'; do sleep 2; done",
		vm, vm)
	return []Operation{{Kind: OpShutdown, Command: cmd}}
}

func (k *KVMCommandSet) Start(vm VmIdentity) []Operation {
	return []Operation{{Kind: OpStart, Command: fmt.Sprintf("virsh start %s", vm)}}
}

// SetCPU KVM 需要两次调用：先设最大值再设当前值
func (k *KVMCommandSet) SetCPU(vm VmIdentity, cores int) []Operation {
	return []Operation{
		{Kind: OpSetCPU, Command: fmt.Sprintf("virsh setvcpus %s %d --config --maximum", vm, cores)},
		{Kind: OpSetCPU, Command: fmt.Sprintf("virsh setvcpus %s %d --config", vm, cores)},
	}
}

// SetRAM 同样两次调用：setmaxmem 和 setmem，单位用 M 后缀传给 virsh
func (k *KVMCommandSet) SetRAM(vm VmIdentity, megabytes int) []Operation {
	return []Operation{
		{Kind: OpSetRAM, Command: fmt.Sprintf("virsh setmaxmem %s %dM --config", vm, megabytes)},
		{Kind: OpSetRAM, Command: fmt.Sprintf("virsh setmem %s %dM --config", vm, megabytes)},
	}
}

func (k *KVMCommandSet) ResizeDrive(vm VmIdentity, action StorageAction) []Operation {
	cmd := fmt.Sprintf("qemu-img resize %s %dG", k.drivePath(vm, action.Drive), action.Drive.NewSizeGB)
	return []Operation{{Kind: OpResizeDrive, Drive: action.Drive.ID, Command: cmd}}
}

// ExpandPartition 用 libguestfs 把末尾分区扩到镜像支持的最大值
// growpart 在分区已是最大时返回 NOCHANGE（退出码 1），视为成功，
// 因此对同一大小执行两次是无害的
func (k *KVMCommandSet) ExpandPartition(vm VmIdentity, action StorageAction) []Operation {
	cmd := fmt.Sprintf(
		"virt-customize -a %s --run-command 'growpart /dev/sda 1 || [ $? -eq 1 ]' --run-command 'resize2fs /dev/sda1'",
		k.drivePath(vm, action.Drive))
	return []Operation{{Kind: OpExpandPartition, Drive: action.Drive.ID, Command: cmd}}
}

// DeleteDrive 先从 domain 定义里脱离设备，再删除镜像文件
func (k *KVMCommandSet) DeleteDrive(vm VmIdentity, action StorageAction) []Operation {
	parts := []string{}
	if action.Drive.Device != "" {
		parts = append(parts, fmt.Sprintf("virsh detach-disk %s %s --config || true",
			vm, deviceName(action.Drive.Device)))
	}
	parts = append(parts, fmt.Sprintf("rm -f %s", k.drivePath(vm, action.Drive)))
	return []Operation{{Kind: OpDeleteDrive, Drive: action.Drive.ID, Command: strings.Join(parts, "; ")}}
}

func (k *KVMCommandSet) CreateDrive(vm VmIdentity, action StorageAction, _ DeviceSlot) []Operation {
	cmd := fmt.Sprintf("qemu-img create -f qcow2 %s %dG", k.drivePath(vm, action.Drive), action.SizeGB)
	return []Operation{{Kind: OpCreateDrive, Drive: action.Drive.ID, Command: cmd}}
}

func (k *KVMCommandSet) AttachDrive(vm VmIdentity, action StorageAction, slot DeviceSlot) []Operation {
	cmd := fmt.Sprintf("virsh attach-disk %s %s %s --config --subdriver qcow2",
		vm, k.drivePath(vm, action.Drive), deviceName(slot.Letter))
	return []Operation{{Kind: OpAttachDrive, Drive: action.Drive.ID, Command: cmd}}
}

var _ CommandSet = (*KVMCommandSet)(nil)
