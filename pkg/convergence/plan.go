package convergence

// OperationKind 后端原生操作类型
type OperationKind string

const (
	OpShutdown        OperationKind = "shutdown"
	OpSetCPU          OperationKind = "set-cpu"
	OpSetRAM          OperationKind = "set-ram"
	OpResizeDrive     OperationKind = "resize-drive"
	OpExpandPartition OperationKind = "expand-partition"
	OpDeleteDrive     OperationKind = "delete-drive"
	OpCreateDrive     OperationKind = "create-drive"
	OpAttachDrive     OperationKind = "attach-drive"
	OpStart           OperationKind = "start"
)

// Operation 一条已经为目标宿主机渲染好的后端原生操作
type Operation struct {
	// Kind 操作类型
	Kind OperationKind
	// Drive 关联的磁盘 ID（非磁盘操作为空）
	Drive string
	// Command 渲染后的命令文本，由远程执行协作方原样运行
	Command string
}

// Plan 一次收敛生成的有序操作列表
// 构建完成后不可变，由 Executor 精确消费一次
type Plan struct {
	vm      VmIdentity
	backend Backend
	ops     []Operation
}

// NewPlan 构建 Plan，入参切片会被拷贝以保证不可变性
func NewPlan(vm VmIdentity, backend Backend, ops []Operation) *Plan {
	copied := make([]Operation, len(ops))
	copy(copied, ops)
	return &Plan{vm: vm, backend: backend, ops: copied}
}

// VM 返回目标 VM 标识
func (p *Plan) VM() VmIdentity { return p.vm }

// Backend 返回目标后端
func (p *Plan) Backend() Backend { return p.backend }

// Len 返回操作数量
func (p *Plan) Len() int { return len(p.ops) }

// Operations 返回操作列表的拷贝
func (p *Plan) Operations() []Operation {
	copied := make([]Operation, len(p.ops))
	copy(copied, p.ops)
	return copied
}
