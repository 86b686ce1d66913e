package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/vmconverge/internal/converge/entity"
	"github.com/jimyag/vmconverge/internal/converge/service"
	"github.com/jimyag/vmconverge/pkg/ginx"
	"github.com/rs/zerolog"
)

// VMServiceInterface 定义 VM 库存服务的接口
type VMServiceInterface interface {
	RegisterVM(ctx context.Context, req *entity.RegisterVMRequest) (*entity.VM, error)
	DescribeVMs(ctx context.Context, req *entity.DescribeVMsRequest) ([]entity.VM, error)
}

type VM struct {
	vmService VMServiceInterface
}

func NewVM(vmService *service.ConvergeService) *VM {
	return &VM{
		vmService: vmService,
	}
}

func (v *VM) RegisterRoutes(router *gin.RouterGroup) {
	vmRouter := router.Group("/vms")
	vmRouter.POST("/register", ginx.Adapt(v.RegisterVM))
	vmRouter.POST("/describe", ginx.Adapt(v.DescribeVMs))
}

func (v *VM) RegisterVM(ctx *gin.Context, req *entity.RegisterVMRequest) (*entity.RegisterVMResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("name", req.Name).
		Str("backend", req.Backend).
		Msg("RegisterVM called")

	vm, err := v.vmService.RegisterVM(ctx, req)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("Failed to register VM")
		return nil, err
	}

	logger.Info().
		Str("vmID", vm.VMID).
		Msg("VM registered successfully")

	return &entity.RegisterVMResponse{
		VM: vm,
	}, nil
}

func (v *VM) DescribeVMs(ctx *gin.Context, req *entity.DescribeVMsRequest) (*entity.DescribeVMsResponse, error) {
	logger := zerolog.Ctx(ctx)

	vms, err := v.vmService.DescribeVMs(ctx, req)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("Failed to describe VMs")
		return nil, err
	}

	return &entity.DescribeVMsResponse{
		VMs: vms,
	}, nil
}
