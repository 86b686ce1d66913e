// Package service 提供业务逻辑层的服务实现
package service

import (
	"github.com/jimyag/vmconverge/internal/converge/repository"
	"github.com/jimyag/vmconverge/pkg/convergence"
	"github.com/jimyag/vmconverge/pkg/idgen"
	"github.com/jimyag/vmconverge/pkg/libvirt"
	"github.com/jimyag/vmconverge/pkg/remote"
)

// ProbeFactory 按宿主机地址创建 libvirt 探测客户端
// 为 nil 时跳过探测，直接使用库存中记录的状态
type ProbeFactory func(host string) (libvirt.HostClient, error)

// ConvergeService 资源收敛服务
// 负责 VM 库存管理、收敛任务的创建与执行
type ConvergeService struct {
	vmRepo       repository.VMRepository
	runRepo      repository.RunRepository
	dialers      map[convergence.Backend]remote.Dialer
	commandSets  map[convergence.Backend]convergence.CommandSet
	probeFactory ProbeFactory
	executor     *convergence.Executor
	idGen        *idgen.Generator
}

// NewConvergeService 创建资源收敛服务
func NewConvergeService(
	vmRepo repository.VMRepository,
	runRepo repository.RunRepository,
	dialers map[convergence.Backend]remote.Dialer,
	commandSets map[convergence.Backend]convergence.CommandSet,
	probeFactory ProbeFactory,
) *ConvergeService {
	return &ConvergeService{
		vmRepo:       vmRepo,
		runRepo:      runRepo,
		dialers:      dialers,
		commandSets:  commandSets,
		probeFactory: probeFactory,
		executor:     convergence.NewExecutor(),
		idGen:        idgen.New(),
	}
}
