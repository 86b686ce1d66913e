package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	// Address 是 API 服务绑定地址
	// 可以通过环境变量 VMCONVERGE_ADDRESS 配置
	Address string

	// DBPath 是 SQLite 数据库文件路径
	// 用于存储 VM 库存和收敛任务记录
	// 可以通过环境变量 VMCONVERGE_DB_PATH 配置
	// 默认：~/.local/share/vmconverge/vmconverge.db
	DBPath string

	// LibvirtURI 是 KVM 宿主机状态探测用的 libvirt 连接 URI
	// 支持以下格式：
	// - qemu:///system (本地系统连接，默认)
	// - qemu+ssh://user@host/system (SSH 远程连接)
	// - qemu+tcp://host/system (TCP 远程连接)
	// 可以通过环境变量 LIBVIRT_URI 或 VMCONVERGE_LIBVIRT_URI 配置
	LibvirtURI string

	// SSHUser 是 KVM 宿主机 SSH 用户名
	// 可以通过环境变量 VMCONVERGE_SSH_USER 配置
	SSHUser string

	// SSHKeyPath 是 SSH 私钥路径
	// 可以通过环境变量 VMCONVERGE_SSH_KEY 配置
	SSHKeyPath string

	// WinRMUser 是 Hyper-V 宿主机 WinRM 用户名
	// 可以通过环境变量 VMCONVERGE_WINRM_USER 配置
	WinRMUser string

	// WinRMPassword 是 Hyper-V 宿主机 WinRM 密码
	// 可以通过环境变量 VMCONVERGE_WINRM_PASSWORD 配置
	WinRMPassword string

	// KVMVMsPath 是 KVM 宿主机上的镜像目录
	// 可以通过环境变量 VMCONVERGE_KVM_VMS_PATH 配置
	KVMVMsPath string

	// HyperVVMsPath 是 Hyper-V 宿主机上的 VHDX 目录
	// 可以通过环境变量 VMCONVERGE_HYPERV_VMS_PATH 配置
	HyperVVMsPath string

	// DispatchInterval 是调度器扫描待执行任务的间隔
	// 可以通过环境变量 VMCONVERGE_DISPATCH_INTERVAL 配置（Go duration 格式）
	DispatchInterval time.Duration

	// Workers 是同时执行收敛任务的 worker 数
	// 可以通过环境变量 VMCONVERGE_WORKERS 配置
	Workers int

	// InventoryPath 是可选的 YAML 库存文件
	// 启动时导入其中的 VM 记录，为空则跳过
	// 可以通过环境变量 VMCONVERGE_INVENTORY 配置
	InventoryPath string
}

func New() (*Config, error) {
	cfg := &Config{
		Address:          getAddress(),
		DBPath:           getDBPath(),
		LibvirtURI:       getLibvirtURI(),
		SSHUser:          getEnv("VMCONVERGE_SSH_USER", "administrator"),
		SSHKeyPath:       getSSHKeyPath(),
		WinRMUser:        getEnv("VMCONVERGE_WINRM_USER", "administrator"),
		WinRMPassword:    os.Getenv("VMCONVERGE_WINRM_PASSWORD"),
		KVMVMsPath:       getEnv("VMCONVERGE_KVM_VMS_PATH", "/var/lib/vmconverge/vms"),
		HyperVVMsPath:    getEnv("VMCONVERGE_HYPERV_VMS_PATH", `C:\vmconverge\vms`),
		DispatchInterval: getDispatchInterval(),
		Workers:          getWorkers(),
		InventoryPath:    os.Getenv("VMCONVERGE_INVENTORY"),
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getAddress 获取绑定地址，优先使用环境变量 VMCONVERGE_ADDRESS
func getAddress() string {
	if addr := os.Getenv("VMCONVERGE_ADDRESS"); addr != "" {
		return addr
	}

	return "0.0.0.0:7700"
}

// getDBPath 获取数据库路径，优先使用环境变量
func getDBPath() string {
	// 1. 优先使用环境变量 VMCONVERGE_DB_PATH
	if path := os.Getenv("VMCONVERGE_DB_PATH"); path != "" {
		return path
	}

	// 2. 使用用户主目录下的 .local/share/vmconverge
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "vmconverge", "vmconverge.db")
	}

	// 3. 如果无法获取主目录，使用当前目录下的 data
	return filepath.Join(".", "data", "vmconverge.db")
}

// getLibvirtURI 获取 libvirt URI，优先使用环境变量
func getLibvirtURI() string {
	// 1. 优先使用环境变量 LIBVIRT_URI
	if uri := os.Getenv("LIBVIRT_URI"); uri != "" {
		return uri
	}

	// 2. 尝试使用 VMCONVERGE_LIBVIRT_URI
	if uri := os.Getenv("VMCONVERGE_LIBVIRT_URI"); uri != "" {
		return uri
	}

	// 3. 默认使用本地系统连接
	return "qemu:///system"
}

// getSSHKeyPath 获取 SSH 私钥路径，优先使用环境变量 VMCONVERGE_SSH_KEY
func getSSHKeyPath() string {
	if path := os.Getenv("VMCONVERGE_SSH_KEY"); path != "" {
		return path
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".ssh", "id_rsa")
	}

	return "/root/.ssh/id_rsa"
}

// getDispatchInterval 获取调度间隔，非法值回退到默认 30s
func getDispatchInterval() time.Duration {
	if v := os.Getenv("VMCONVERGE_DISPATCH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}

	return 30 * time.Second
}

// getWorkers 获取 worker 数，非法值回退到默认 4
func getWorkers() int {
	if v := os.Getenv("VMCONVERGE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}

	return 4
}
