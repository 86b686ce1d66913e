package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/vmconverge/internal/converge/entity"
	"github.com/jimyag/vmconverge/internal/converge/service"
	"github.com/jimyag/vmconverge/pkg/ginx"
	"github.com/rs/zerolog"
)

// RunServiceInterface 定义收敛任务服务的接口
type RunServiceInterface interface {
	RequestConvergence(ctx context.Context, req *entity.ConvergeRequest) (*entity.Run, error)
	DescribeRuns(ctx context.Context, req *entity.DescribeRunsRequest) ([]entity.Run, error)
}

type Run struct {
	runService RunServiceInterface
}

func NewRun(runService *service.ConvergeService) *Run {
	return &Run{
		runService: runService,
	}
}

func (r *Run) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/vms/converge", ginx.Adapt(r.RequestConvergence))
	router.POST("/runs/describe", ginx.Adapt(r.DescribeRuns))
}

func (r *Run) RequestConvergence(ctx *gin.Context, req *entity.ConvergeRequest) (*entity.ConvergeResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("vmID", req.VMID).
		Msg("RequestConvergence called")

	run, err := r.runService.RequestConvergence(ctx, req)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("Failed to request convergence")
		return nil, err
	}

	logger.Info().
		Str("runID", run.RunID).
		Msg("Convergence run created successfully")

	return &entity.ConvergeResponse{
		Run: run,
	}, nil
}

func (r *Run) DescribeRuns(ctx *gin.Context, req *entity.DescribeRunsRequest) (*entity.DescribeRunsResponse, error) {
	logger := zerolog.Ctx(ctx)

	runs, err := r.runService.DescribeRuns(ctx, req)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("Failed to describe runs")
		return nil, err
	}

	return &entity.DescribeRunsResponse{
		Runs: runs,
	}, nil
}
