// Package converge 提供 vmconverge 服务器的主入口和初始化逻辑
package converge

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jimmicro/grace"
	"github.com/jimyag/vmconverge/internal/converge/api"
	"github.com/jimyag/vmconverge/internal/converge/config"
	"github.com/jimyag/vmconverge/internal/converge/dispatcher"
	"github.com/jimyag/vmconverge/internal/converge/repository"
	"github.com/jimyag/vmconverge/internal/converge/service"
	"github.com/jimyag/vmconverge/pkg/convergence"
	"github.com/jimyag/vmconverge/pkg/libvirt"
	"github.com/jimyag/vmconverge/pkg/remote"
	"github.com/rs/zerolog"
)

type Server struct {
	cfg        *config.Config
	repo       *repository.Repository
	svc        *service.ConvergeService
	api        *api.API
	dispatcher *dispatcher.Dispatcher
}

func New(cfg *config.Config) (*Server, error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger

	// 1. 创建持久化层
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}
	vmRepo := repository.NewVMRepository(repo.DB())
	runRepo := repository.NewRunRepository(repo.DB())

	// 2. 每个后端一个远程传输
	sshDialer := remote.NewSSHDialer(cfg.SSHUser, cfg.SSHKeyPath)
	winrmDialer := remote.NewWinRMDialer(cfg.WinRMUser, cfg.WinRMPassword)
	dialers := map[convergence.Backend]remote.Dialer{
		convergence.BackendKVM:    sshDialer,
		convergence.BackendHyperV: winrmDialer,
	}

	// 3. 每个后端一套命令渲染
	commandSets := map[convergence.Backend]convergence.CommandSet{
		convergence.BackendKVM:    convergence.NewKVMCommandSet(cfg.KVMVMsPath),
		convergence.BackendHyperV: convergence.NewHyperVCommandSet(cfg.HyperVVMsPath),
	}

	// 4. KVM 宿主机状态探测，复用 SSH 身份
	probeFactory := func(host string) (libvirt.HostClient, error) {
		return libvirt.Connect(fmt.Sprintf("qemu+ssh://%s@%s/system", cfg.SSHUser, uriHost(host)))
	}

	// 5. 创建收敛服务
	svc := service.NewConvergeService(vmRepo, runRepo, dialers, commandSets, probeFactory)

	server := &Server{
		cfg:        cfg,
		repo:       repo,
		svc:        svc,
		dispatcher: dispatcher.New(svc, cfg.DispatchInterval, cfg.Workers),
	}

	// 6. 可选：从 YAML 库存文件导入 VM
	if cfg.InventoryPath != "" {
		ctx := logger.WithContext(context.Background())
		if err := server.seedInventory(ctx, cfg.InventoryPath); err != nil {
			return nil, fmt.Errorf("seed inventory: %w", err)
		}
	}

	// 7. 创建 API
	apiInstance, err := api.New(cfg.Address, svc)
	if err != nil {
		return nil, fmt.Errorf("create api: %w", err)
	}
	server.api = apiInstance

	return server, nil
}

// uriHost 把宿主机地址转成可嵌入 URI 的形式（IPv6 加方括号）
func uriHost(host string) string {
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		return "[" + host + "]"
	}
	return host
}

func (s *Server) Run(ctx context.Context) error {
	// 使用 grace.Shepherd 管理服务生命周期
	services := []grace.Grace{
		s.api,
		s.dispatcher,
	}

	shepherd := grace.NewShepherd(
		services,
		grace.WithTimeout(30*time.Second),
		grace.WithLogger(&zerologLogger{}),
	)

	shepherd.Start(ctx)
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.api.Shutdown(ctx); err != nil {
		return err
	}
	if err := s.dispatcher.Shutdown(ctx); err != nil {
		return err
	}
	return s.repo.Close()
}

// Name 实现 grace.Grace 接口
func (s *Server) Name() string {
	return "VMConverge Server"
}

// zerologLogger 实现 grace.Logger 接口
type zerologLogger struct{}

func (l *zerologLogger) Info(msg string, args ...interface{}) {
	logger := zerolog.DefaultContextLogger.Info()
	// 如果有参数，使用 Msgf 格式化消息
	if len(args) > 0 {
		logger.Msgf(msg, args...)
	} else {
		logger.Msg(msg)
	}
}

func (l *zerologLogger) Error(msg string, args ...interface{}) {
	logger := zerolog.DefaultContextLogger.Error()
	// 如果有参数，使用 Msgf 格式化消息
	if len(args) > 0 {
		logger.Msgf(msg, args...)
	} else {
		logger.Msg(msg)
	}
}
