package convergence

import "fmt"

// ActionKind 磁盘动作类型
type ActionKind string

const (
	// ActionNoOp 无需变更
	ActionNoOp ActionKind = "noop"
	// ActionGrow 扩容已存在的磁盘
	ActionGrow ActionKind = "grow"
	// ActionDelete 删除已存在的磁盘
	ActionDelete ActionKind = "delete"
	// ActionCreate 创建并挂载新磁盘
	ActionCreate ActionKind = "create"
)

// StorageAction 一块磁盘的分类结果
// 由 DriveChange 确定性推导，不依赖任何先前的计划状态
type StorageAction struct {
	Kind  ActionKind
	Drive DriveChange
	// DeltaGB 扩容量（仅 Grow）
	DeltaGB int
	// SizeGB 新磁盘大小（仅 Create）
	SizeGB int
}

// Classify 把单个磁盘变更归类为 NoOp / Grow / Delete / Create 之一
//
// 对满足校验不变量的输入恒成功且恰好返回一种动作。
// 负数大小和缩容到非零值返回 ValidationError，此时不应继续构建 Plan。
func Classify(d DriveChange) (StorageAction, error) {
	if d.NewSizeGB < 0 {
		return StorageAction{}, &ValidationError{
			DriveID: d.ID,
			Reason:  fmt.Sprintf("negative new size %d", d.NewSizeGB),
		}
	}
	if d.OldSizeGB < 0 {
		return StorageAction{}, &ValidationError{
			DriveID: d.ID,
			Reason:  fmt.Sprintf("negative old size %d", d.OldSizeGB),
		}
	}

	switch {
	case d.OldSizeGB == UnsetSize && d.NewSizeGB == 0:
		// 从未创建过的磁盘，目标又是 0：什么都不用做
		return StorageAction{Kind: ActionNoOp, Drive: d}, nil
	case d.OldSizeGB == UnsetSize:
		return StorageAction{Kind: ActionCreate, Drive: d, SizeGB: d.NewSizeGB}, nil
	case d.NewSizeGB == 0:
		return StorageAction{Kind: ActionDelete, Drive: d}, nil
	case d.NewSizeGB == d.OldSizeGB:
		return StorageAction{Kind: ActionNoOp, Drive: d}, nil
	case d.NewSizeGB > d.OldSizeGB:
		return StorageAction{Kind: ActionGrow, Drive: d, DeltaGB: d.NewSizeGB - d.OldSizeGB}, nil
	default:
		// 缩小到非零值不在支持的动作集合里
		return StorageAction{}, &ValidationError{
			DriveID: d.ID,
			Reason: fmt.Sprintf("shrinking an existing drive from %dGB to %dGB is not supported",
				d.OldSizeGB, d.NewSizeGB),
		}
	}
}

// ClassifyAll 按输入顺序分类全部磁盘变更
// 磁盘 ID 必须非空且互不重复：重复 ID 会让槽位分配和镜像路径
// 塌缩到同一块磁盘上，属于畸形输入
// 任何一项校验失败都会使整个收敛在触碰远程主机之前终止
// 多个 Create 的相对顺序跟随输入顺序，而不是磁盘 ID 排序
func ClassifyAll(changes []DriveChange) ([]StorageAction, error) {
	seen := make(map[string]bool, len(changes))
	actions := make([]StorageAction, 0, len(changes))
	for _, d := range changes {
		if d.ID == "" {
			return nil, &ValidationError{Reason: "drive ID must not be empty"}
		}
		if seen[d.ID] {
			return nil, &ValidationError{DriveID: d.ID, Reason: "duplicate drive ID"}
		}
		seen[d.ID] = true
		action, err := Classify(d)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}
