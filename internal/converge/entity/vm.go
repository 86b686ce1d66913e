package entity

// VM 虚拟机库存记录
type VM struct {
	VMID     string  `json:"vmID"` // vm-{递增 ID}
	Name     string  `json:"name"` // 虚拟化平台上的 domain/VM 名
	Backend  string  `json:"backend"`
	Host     string  `json:"host"` // 宿主机地址
	CPU      int     `json:"cpu"`
	RAMMB    int     `json:"ramMB"`
	State    string  `json:"state"` // running, shut off, unknown
	Storages []Drive `json:"storages"`
	CreateAt string  `json:"createAt"`
	UpdateAt string  `json:"updateAt"`
}

// Drive 虚拟机的一块磁盘
type Drive struct {
	DriveID string `json:"driveID"`
	SizeGB  int    `json:"sizeGB"`
	Primary bool   `json:"primary"`
	Device  string `json:"device,omitempty"` // 设备尾字母，如 a、b
}

// DriveTarget 收敛请求中单块磁盘的期望状态
// SizeGB 为 0 表示删除该盘；请求中未出现的存量盘保持不变
type DriveTarget struct {
	DriveID string `json:"driveID,omitempty"` // 为空表示新建
	SizeGB  int    `json:"sizeGB"`
	Primary bool   `json:"primary,omitempty"`
}

// RegisterVMRequest 注册 VM 请求
type RegisterVMRequest struct {
	Name     string        `json:"name" binding:"required"`
	Backend  string        `json:"backend" binding:"required"`
	Host     string        `json:"host" binding:"required"`
	CPU      int           `json:"cpu" binding:"required"`
	RAMMB    int           `json:"ramMB" binding:"required"`
	Storages []DriveTarget `json:"storages" binding:"required"`
}

// RegisterVMResponse 注册 VM 响应
type RegisterVMResponse struct {
	VM *VM `json:"vm"`
}

// DescribeVMsRequest 描述 VM 请求
type DescribeVMsRequest struct {
	VMIDs   []string `json:"vmIDs,omitempty"`
	Backend string   `json:"backend,omitempty"`
}

// DescribeVMsResponse 描述 VM 响应
type DescribeVMsResponse struct {
	VMs []VM `json:"vms"`
}
