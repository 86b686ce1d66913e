package idgen

import (
	"fmt"
	"sync"
	"time"

	"github.com/sony/sonyflake"
)

// Generator 递增 ID 生成器
// 使用 Sonyflake 算法生成全局唯一且递增的 ID
type Generator struct {
	sf *sonyflake.Sonyflake
}

var (
	defaultGenerator     *Generator
	defaultGeneratorOnce sync.Once
)

// DefaultGenerator 返回默认的 ID 生成器
func DefaultGenerator() *Generator {
	defaultGeneratorOnce.Do(func() {
		defaultGenerator = New()
	})
	return defaultGenerator
}

// New 创建新的 ID 生成器
func New() *Generator {
	sf := sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if sf == nil {
		// 机器 ID 推断失败时退化为以当前时间为起点
		sf = sonyflake.NewSonyflake(sonyflake.Settings{
			StartTime: time.Now(),
		})
	}

	return &Generator{
		sf: sf,
	}
}

// generateIDWithPrefix 生成带前缀的 ID
func (g *Generator) generateIDWithPrefix(prefix, errorMsg string) (string, error) {
	id, err := g.sf.NextID()
	if err != nil {
		return "", fmt.Errorf("%s: %w", errorMsg, err)
	}
	return fmt.Sprintf("%s-%d", prefix, id), nil
}

// GenerateRunID 生成收敛任务 ID（格式：run-{递增 ID}）
func (g *Generator) GenerateRunID() (string, error) {
	return g.generateIDWithPrefix("run", "generate run ID")
}

// GenerateVMID 生成 VM 记录 ID（格式：vm-{递增 ID}）
func (g *Generator) GenerateVMID() (string, error) {
	return g.generateIDWithPrefix("vm", "generate vm ID")
}

// GenerateDriveID 生成磁盘 ID（格式：drv-{递增 ID}）
func (g *Generator) GenerateDriveID() (string, error) {
	return g.generateIDWithPrefix("drv", "generate drive ID")
}

// GenerateID 生成通用递增 ID
func (g *Generator) GenerateID() (uint64, error) {
	return g.sf.NextID()
}

// 包级别的便捷函数，使用默认生成器

// GenerateRunID 使用默认生成器生成收敛任务 ID
func GenerateRunID() (string, error) {
	return DefaultGenerator().GenerateRunID()
}

// GenerateVMID 使用默认生成器生成 VM 记录 ID
func GenerateVMID() (string, error) {
	return DefaultGenerator().GenerateVMID()
}

// GenerateDriveID 使用默认生成器生成磁盘 ID
func GenerateDriveID() (string, error) {
	return DefaultGenerator().GenerateDriveID()
}

// GenerateID 使用默认生成器生成通用递增 ID
func GenerateID() (uint64, error) {
	return DefaultGenerator().GenerateID()
}
