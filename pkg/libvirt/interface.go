package libvirt

// HostClient 定义 KVM 宿主机状态探测接口
// 只读：收敛前用它核对 VM 的实际状态，资源变更本身走渲染好的远程命令
type HostClient interface {
	// DomainState 返回 domain 的状态（running / shut off 等）
	DomainState(name string) (string, error)
	// DomainHardware 返回 domain 的 vCPU 数和当前内存（KiB）
	DomainHardware(name string) (vcpus int, memoryKB uint64, err error)
	// DomainDisks 返回 domain 当前挂载的磁盘设备
	DomainDisks(name string) ([]DomainDisk, error)
	// Close 断开与 libvirtd 的连接
	Close() error
}
