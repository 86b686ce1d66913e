package convergence

import (
	"fmt"
	"strings"
)

// HyperVCommandSet Hyper-V 后端的命令渲染实现
// 渲染出的 PowerShell 命令通过 WinRM 在宿主机上执行
type HyperVCommandSet struct {
	// vmsPath 宿主机上存放 VHDX 文件的目录（Windows 路径）
	vmsPath string
}

// NewHyperVCommandSet 创建 Hyper-V 命令集
// vmsPath 为空时使用默认的 C:\vmconverge\vms
func NewHyperVCommandSet(vmsPath string) *HyperVCommandSet {
	if vmsPath == "" {
		vmsPath = `C:\vmconverge\vms`
	}
	return &HyperVCommandSet{vmsPath: strings.TrimRight(vmsPath, `\`)}
}

func (h *HyperVCommandSet) Backend() Backend { return BackendHyperV }

// RequiresShutdown Hyper-V 可以对运行中的 VM 调整 CPU/RAM（动态内存、
// 热加 CPU），但磁盘挂载/脱离和分区操作必须停机，所以只要包含磁盘
// 变更就先停机
func (h *HyperVCommandSet) RequiresShutdown(diff *ResourceTarget) bool {
	return diff.HasStorageChange()
}

func (h *HyperVCommandSet) drivePath(vm VmIdentity, d DriveChange) string {
	if d.Primary {
		return fmt.Sprintf(`%s\%s.vhdx`, h.vmsPath, vm)
	}
	return fmt.Sprintf(`%s\%s_%s.vhdx`, h.vmsPath, vm, d.ID)
}

// Shutdown 强制停机并轮询直到状态为 Off
func (h *HyperVCommandSet) Shutdown(vm VmIdentity) []Operation {
	cmd := fmt.Sprintf(
		"Stop-VM -Name '%s' -Force; while ((Get-VM -Name '%s').State -ne 'Off') { Start-Sleep -Seconds 2 }",
		vm, vm)
	return []Operation{{Kind: OpShutdown, Command: cmd}}
}

func (h *HyperVCommandSet) Start(vm VmIdentity) []Operation {
	return []Operation{{Kind: OpStart, Command: fmt.Sprintf("Start-VM -Name '%s'", vm)}}
}

// SetCPU Hyper-V 一次调用同时覆盖最大和当前核数
func (h *HyperVCommandSet) SetCPU(vm VmIdentity, cores int) []Operation {
	return []Operation{{
		Kind:    OpSetCPU,
		Command: fmt.Sprintf("Set-VMProcessor -VMName '%s' -Count %d", vm, cores),
	}}
}

// SetRAM 设置启动内存，MB 换算用 PowerShell 的 MB 字面量保持一致
func (h *HyperVCommandSet) SetRAM(vm VmIdentity, megabytes int) []Operation {
	return []Operation{{
		Kind:    OpSetRAM,
		Command: fmt.Sprintf("Set-VMMemory -VMName '%s' -StartupBytes %dMB", vm, megabytes),
	}}
}

func (h *HyperVCommandSet) ResizeDrive(vm VmIdentity, action StorageAction) []Operation {
	cmd := fmt.Sprintf("Resize-VHD -Path '%s' -SizeBytes %dGB",
		h.drivePath(vm, action.Drive), action.Drive.NewSizeGB)
	return []Operation{{Kind: OpResizeDrive, Drive: action.Drive.ID, Command: cmd}}
}

// ExpandPartition 挂载 VHDX，把末尾分区扩到支持的最大值后再卸载
// 分区已是最大时跳过 Resize-Partition，保证幂等
func (h *HyperVCommandSet) ExpandPartition(vm VmIdentity, action StorageAction) []Operation {
	p := h.drivePath(vm, action.Drive)
	cmd := fmt.Sprintf(
		"$disk = Mount-VHD -Path '%s' -Passthru | Get-Disk; "+
			"$part = Get-Partition -DiskNumber $disk.Number | Sort-Object PartitionNumber | Select-Object -Last 1; "+
			"$max = (Get-PartitionSupportedSize -DiskNumber $disk.Number -PartitionNumber $part.PartitionNumber).SizeMax; "+
			"if ($part.Size -lt $max) { Resize-Partition -DiskNumber $disk.Number -PartitionNumber $part.PartitionNumber -Size $max }; "+
			"Dismount-VHD -Path '%s'",
		p, p)
	return []Operation{{Kind: OpExpandPartition, Drive: action.Drive.ID, Command: cmd}}
}

// DeleteDrive 按路径找到对应的 VMHardDiskDrive 脱离后删除文件
func (h *HyperVCommandSet) DeleteDrive(vm VmIdentity, action StorageAction) []Operation {
	p := h.drivePath(vm, action.Drive)
	cmd := fmt.Sprintf(
		"Get-VMHardDiskDrive -VMName '%s' | Where-Object { $_.Path -eq '%s' } | Remove-VMHardDiskDrive; "+
			"Remove-Item -Path '%s' -Force",
		vm, p, p)
	return []Operation{{Kind: OpDeleteDrive, Drive: action.Drive.ID, Command: cmd}}
}

func (h *HyperVCommandSet) CreateDrive(vm VmIdentity, action StorageAction, _ DeviceSlot) []Operation {
	cmd := fmt.Sprintf("New-VHD -Path '%s' -SizeBytes %dGB -Dynamic",
		h.drivePath(vm, action.Drive), action.SizeGB)
	return []Operation{{Kind: OpCreateDrive, Drive: action.Drive.ID, Command: cmd}}
}

// AttachDrive 槽位下标映射为 SCSI 控制器位置
func (h *HyperVCommandSet) AttachDrive(vm VmIdentity, action StorageAction, slot DeviceSlot) []Operation {
	cmd := fmt.Sprintf(
		"Add-VMHardDiskDrive -VMName '%s' -Path '%s' -ControllerType SCSI -ControllerLocation %d",
		vm, h.drivePath(vm, action.Drive), slot.Index)
	return []Operation{{Kind: OpAttachDrive, Drive: action.Drive.ID, Command: cmd}}
}

var _ CommandSet = (*HyperVCommandSet)(nil)
