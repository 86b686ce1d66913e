// Package convergence 实现 VM 资源收敛引擎的核心逻辑
//
// 一次收敛（convergence run）把一台 VM 从当前资源状态带到期望状态，
// 流程固定为：diff -> classify -> allocate -> plan -> execute。
//
//   - ComputeDiff 比较当前与期望状态，只保留真正发生变化的维度
//   - ClassifyAll 把每个磁盘变更归类为 NoOp / Grow / Delete / Create
//   - AllocateSlots 为新建磁盘分配不冲突的设备槽位（a-z）
//   - BuildPlan 按照固定顺序生成后端原生操作序列（KVM 或 Hyper-V）
//   - Executor 按顺序执行 Plan，遇到第一个失败立即停止
//
// 本包不持有任何共享可变状态，也不做重试和锁：同一 VM 的并发收敛
// 必须由外部调度器串行化。
package convergence
