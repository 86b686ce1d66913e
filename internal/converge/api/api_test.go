package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/vmconverge/internal/converge/entity"
	"github.com/jimyag/vmconverge/pkg/convergence"
	"github.com/jimyag/vmconverge/pkg/ginx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNew(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("create API registers routes", func(t *testing.T) {
		api, err := New("127.0.0.1:0", nil)
		require.NoError(t, err)
		assert.NotNil(t, api.engine)
		assert.NotNil(t, api.server)
		assert.NotNil(t, api.vm)
		assert.NotNil(t, api.run)

		routePaths := make(map[string]bool)
		for _, route := range api.engine.Routes() {
			routePaths[route.Path] = true
		}
		assert.True(t, routePaths["/api/vms/register"], "should have register route")
		assert.True(t, routePaths["/api/vms/describe"], "should have describe route")
		assert.True(t, routePaths["/api/vms/converge"], "should have converge route")
		assert.True(t, routePaths["/api/runs/describe"], "should have runs describe route")
	})

	t.Run("returns correct name", func(t *testing.T) {
		api, err := New("127.0.0.1:0", nil)
		require.NoError(t, err)
		assert.Equal(t, "API Server", api.Name())
	})
}

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name string
		err  error
		want int
	}{
		{"validation error", &convergence.ValidationError{Reason: "bad"}, http.StatusBadRequest},
		{"allocation error", &convergence.AllocationError{Reason: "exhausted"}, http.StatusBadRequest},
		{"record not found", gorm.ErrRecordNotFound, http.StatusNotFound},
		{"other error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, errorStatus(tc.err))
		})
	}
}

// mockVMService 是 VMServiceInterface 的 mock 实现
type mockVMService struct {
	mock.Mock
}

func (m *mockVMService) RegisterVM(ctx context.Context, req *entity.RegisterVMRequest) (*entity.VM, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.VM), args.Error(1)
}

func (m *mockVMService) DescribeVMs(ctx context.Context, req *entity.DescribeVMsRequest) ([]entity.VM, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.VM), args.Error(1)
}

// mockRunService 是 RunServiceInterface 的 mock 实现
type mockRunService struct {
	mock.Mock
}

func (m *mockRunService) RequestConvergence(ctx context.Context, req *entity.ConvergeRequest) (*entity.Run, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Run), args.Error(1)
}

func (m *mockRunService) DescribeRuns(ctx context.Context, req *entity.DescribeRunsRequest) ([]entity.Run, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Run), args.Error(1)
}

func setupHandlerRouter(vmSvc VMServiceInterface, runSvc RunServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ginx.SetErrorStatus(errorStatus)

	engine := gin.New()
	group := engine.Group("/api")
	(&VM{vmService: vmSvc}).RegisterRoutes(group)
	(&Run{runService: runSvc}).RegisterRoutes(group)
	return engine
}

func doPost(engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestVMHandlers(t *testing.T) {
	t.Run("register success", func(t *testing.T) {
		vmSvc := &mockVMService{}
		vmSvc.On("RegisterVM", mock.Anything, mock.Anything).
			Return(&entity.VM{VMID: "vm-1", Name: "10_205", Backend: "kvm"}, nil)
		engine := setupHandlerRouter(vmSvc, &mockRunService{})

		w := doPost(engine, "/api/vms/register", `{
			"name":"10_205","backend":"kvm","host":"fd00::205",
			"cpu":2,"ramMB":2048,
			"storages":[{"driveID":"os","sizeGB":20,"primary":true}]
		}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"vmID":"vm-1"`)
	})

	t.Run("register missing fields returns 400", func(t *testing.T) {
		vmSvc := &mockVMService{}
		engine := setupHandlerRouter(vmSvc, &mockRunService{})

		w := doPost(engine, "/api/vms/register", `{"name":"x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		vmSvc.AssertNotCalled(t, "RegisterVM", mock.Anything, mock.Anything)
	})

	t.Run("register validation error returns 400", func(t *testing.T) {
		vmSvc := &mockVMService{}
		vmSvc.On("RegisterVM", mock.Anything, mock.Anything).
			Return(nil, &convergence.ValidationError{Reason: "unsupported backend"})
		engine := setupHandlerRouter(vmSvc, &mockRunService{})

		w := doPost(engine, "/api/vms/register", `{
			"name":"x","backend":"vmware","host":"h",
			"cpu":1,"ramMB":1024,
			"storages":[{"sizeGB":20,"primary":true}]
		}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unsupported backend")
	})

	t.Run("describe with empty body", func(t *testing.T) {
		vmSvc := &mockVMService{}
		vmSvc.On("DescribeVMs", mock.Anything, mock.Anything).
			Return([]entity.VM{{VMID: "vm-1"}}, nil)
		engine := setupHandlerRouter(vmSvc, &mockRunService{})

		w := doPost(engine, "/api/vms/describe", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"vm-1"`)
	})
}

func TestRunHandlers(t *testing.T) {
	t.Run("converge success", func(t *testing.T) {
		runSvc := &mockRunService{}
		runSvc.On("RequestConvergence", mock.Anything, mock.Anything).
			Return(&entity.Run{RunID: "run-1", VMID: "vm-1", Status: entity.RunStatusPending}, nil)
		engine := setupHandlerRouter(&mockVMService{}, runSvc)

		w := doPost(engine, "/api/vms/converge", `{"vmID":"vm-1","cpu":4}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"runID":"run-1"`)
	})

	t.Run("converge unknown vm returns 404", func(t *testing.T) {
		runSvc := &mockRunService{}
		runSvc.On("RequestConvergence", mock.Anything, mock.Anything).
			Return(nil, gorm.ErrRecordNotFound)
		engine := setupHandlerRouter(&mockVMService{}, runSvc)

		w := doPost(engine, "/api/vms/converge", `{"vmID":"vm-missing"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("converge without vmID returns 400", func(t *testing.T) {
		runSvc := &mockRunService{}
		engine := setupHandlerRouter(&mockVMService{}, runSvc)

		w := doPost(engine, "/api/vms/converge", `{"cpu":4}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		runSvc.AssertNotCalled(t, "RequestConvergence", mock.Anything, mock.Anything)
	})

	t.Run("describe runs by status", func(t *testing.T) {
		runSvc := &mockRunService{}
		runSvc.On("DescribeRuns", mock.Anything, mock.MatchedBy(func(req *entity.DescribeRunsRequest) bool {
			return req.Status == entity.RunStatusFailed
		})).Return([]entity.Run{{RunID: "run-2", Status: entity.RunStatusFailed}}, nil)
		engine := setupHandlerRouter(&mockVMService{}, runSvc)

		w := doPost(engine, "/api/runs/describe", `{"status":"failed"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"run-2"`)
	})
}
