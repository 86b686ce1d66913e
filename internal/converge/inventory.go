package converge

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jimyag/vmconverge/internal/converge/entity"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// inventoryFile YAML 库存文件结构
type inventoryFile struct {
	VMs []inventoryVM `yaml:"vms"`
}

type inventoryVM struct {
	Name     string           `yaml:"name"`
	Backend  string           `yaml:"backend"`
	Host     string           `yaml:"host"`
	CPU      int              `yaml:"cpu"`
	RAMMB    int              `yaml:"ramMB"`
	Storages []inventoryDrive `yaml:"storages"`
}

type inventoryDrive struct {
	DriveID string `yaml:"driveID"`
	SizeGB  int    `yaml:"sizeGB"`
	Primary bool   `yaml:"primary"`
}

// loadInventory 读取并解析 YAML 库存文件
func loadInventory(path string) ([]entity.RegisterVMRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory %s: %w", path, err)
	}

	var file inventoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse inventory %s: %w", path, err)
	}

	reqs := make([]entity.RegisterVMRequest, 0, len(file.VMs))
	for _, vm := range file.VMs {
		req := entity.RegisterVMRequest{
			Name:    vm.Name,
			Backend: vm.Backend,
			Host:    vm.Host,
			CPU:     vm.CPU,
			RAMMB:   vm.RAMMB,
		}
		for _, drive := range vm.Storages {
			req.Storages = append(req.Storages, entity.DriveTarget{
				DriveID: drive.DriveID,
				SizeGB:  drive.SizeGB,
				Primary: drive.Primary,
			})
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// seedInventory 启动时把库存文件中的 VM 注册进库
// 已注册的（同宿主机同名）跳过，单条失败中止启动
func (s *Server) seedInventory(ctx context.Context, path string) error {
	logger := zerolog.Ctx(ctx)

	reqs, err := loadInventory(path)
	if err != nil {
		return err
	}

	registered := 0
	for i := range reqs {
		req := &reqs[i]
		if _, err := s.svc.RegisterVM(ctx, req); err != nil {
			if isDuplicateVM(err) {
				logger.Debug().
					Str("name", req.Name).
					Str("host", req.Host).
					Msg("VM already registered, skipping")
				continue
			}
			return fmt.Errorf("register %s on %s: %w", req.Name, req.Host, err)
		}
		registered++
	}

	logger.Info().
		Int("total", len(reqs)).
		Int("registered", registered).
		Str("path", path).
		Msg("Inventory seeded")
	return nil
}

// isDuplicateVM 判断错误是否为唯一索引冲突（VM 已注册）
func isDuplicateVM(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
