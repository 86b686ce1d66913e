package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jimyag/vmconverge/internal/converge/repository"
	"github.com/jimyag/vmconverge/pkg/convergence"
	"github.com/jimyag/vmconverge/pkg/idgen"
	"github.com/jimyag/vmconverge/pkg/remote"
	"github.com/stretchr/testify/require"
)

// TestServices 包含测试所需的所有服务和依赖
type TestServices struct {
	Repo         *repository.Repository
	VMRepo       repository.VMRepository
	RunRepo      repository.RunRepository
	KVMDialer    *remote.MockDialer
	HyperVDialer *remote.MockDialer
	Service      *ConvergeService
	TempDir      string
}

// setupTestServices 为每个测试用例创建独立的测试环境
// 每个测试用例都会获得自己的数据库、mock dialer 和 service 实例
func setupTestServices(t *testing.T) *TestServices {
	t.Helper()

	// 创建临时目录和数据库（每个测试用例都有独立的数据库文件）
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := repository.New(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = repo.Close()
		_ = os.RemoveAll(tmpDir)
	})

	vmRepo := repository.NewVMRepository(repo.DB())
	runRepo := repository.NewRunRepository(repo.DB())

	kvmDialer := &remote.MockDialer{}
	hypervDialer := &remote.MockDialer{}

	svc := &ConvergeService{
		vmRepo:  vmRepo,
		runRepo: runRepo,
		dialers: map[convergence.Backend]remote.Dialer{
			convergence.BackendKVM:    kvmDialer,
			convergence.BackendHyperV: hypervDialer,
		},
		commandSets: map[convergence.Backend]convergence.CommandSet{
			convergence.BackendKVM:    convergence.NewKVMCommandSet(""),
			convergence.BackendHyperV: convergence.NewHyperVCommandSet(""),
		},
		executor: convergence.NewExecutor(),
		idGen:    idgen.New(),
	}

	return &TestServices{
		Repo:         repo,
		VMRepo:       vmRepo,
		RunRepo:      runRepo,
		KVMDialer:    kvmDialer,
		HyperVDialer: hypervDialer,
		Service:      svc,
		TempDir:      tmpDir,
	}
}
