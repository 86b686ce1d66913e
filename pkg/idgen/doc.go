// Package idgen 提供递增 ID 生成器
//
// 使用 Sonyflake 算法生成全局唯一且递增的 ID。
// Sonyflake 是 Snowflake 算法的改进版本，生成的 ID 具有以下特性：
//   - 全局唯一
//   - 时间有序（递增）
//   - 64 位整数
//   - 分布式友好
//
// 生成的 ID 格式：
//   - 收敛任务 ID: run-{递增数字}
//   - VM 记录 ID: vm-{递增数字}
//   - 磁盘 ID: drv-{递增数字}
//
// 使用方式：
//
// 方式一：使用包级别的便捷函数（推荐，使用默认生成器）
//
//	// 生成收敛任务 ID
//	runID, err := idgen.GenerateRunID()
//	// runID: "run-1234567890"
//
//	// 生成 VM 记录 ID
//	vmID, err := idgen.GenerateVMID()
//	// vmID: "vm-1234567891"
//
// 方式二：使用默认生成器
//
//	gen := idgen.DefaultGenerator()
//	runID, err := gen.GenerateRunID()
//
// 方式三：创建自定义生成器
//
//	gen := idgen.New()
//	runID, err := gen.GenerateRunID()
package idgen
