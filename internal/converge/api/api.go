package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/vmconverge/internal/converge/service"
	"github.com/jimyag/vmconverge/pkg/convergence"
	"github.com/jimyag/vmconverge/pkg/ginx"
	"gorm.io/gorm"
)

type API struct {
	engine *gin.Engine
	server *http.Server

	vm  *VM
	run *Run
}

func New(address string, svc *service.ConvergeService) (*API, error) {
	ginx.SetErrorStatus(errorStatus)

	engine := gin.Default()
	api := &API{
		engine: engine,
		vm:     NewVM(svc),
		run:    NewRun(svc),
	}
	group := engine.Group("/api")
	api.vm.RegisterRoutes(group)
	api.run.RegisterRoutes(group)
	api.server = &http.Server{
		Addr:    address,
		Handler: engine,
	}
	return api, nil
}

// errorStatus 把业务错误映射为 HTTP 状态码
// 校验和槽位分配错误是调用方的问题，库存查不到是 404，其余都是 500
func errorStatus(err error) int {
	var verr *convergence.ValidationError
	var aerr *convergence.AllocationError
	switch {
	case errors.As(err, &verr), errors.As(err, &aerr):
		return http.StatusBadRequest
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) Run(ctx context.Context) error {
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *API) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Name 实现 grace.Grace 接口
func (a *API) Name() string {
	return "API Server"
}
