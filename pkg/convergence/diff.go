package convergence

// ComputeDiff 比较当前状态和期望状态，返回只包含实际差异的目标
//
// current 是 VM 的当前快照：CPU/RAMMB 为实际值，
// Storages 中每项 OldSizeGB == NewSizeGB == 实际大小，Device 为已占用的槽位字母。
// desired 是期望状态：CPU/RAMMB 为 nil 表示不要求变更，
// Storages 中每项的 NewSizeGB 为期望大小（0 表示删除）。
//
// 返回值中 CPU/RAMMB 仅在发生变化时非 nil，Storages 只保留非 no-op 的变更，
// 但 TotalDrives 仍然覆盖全部磁盘（含待删除的），供槽位分配做碰撞规避。
// 纯函数，不做 I/O，永不失败；没有任何差异时返回空目标。
func ComputeDiff(current, desired *ResourceTarget) *ResourceTarget {
	diff := &ResourceTarget{}

	if desired.CPU != nil {
		cur := 0
		if current.CPU != nil {
			cur = *current.CPU
		}
		if *desired.CPU != cur {
			v := *desired.CPU
			diff.CPU = &v
		}
	}

	if desired.RAMMB != nil {
		cur := 0
		if current.RAMMB != nil {
			cur = *current.RAMMB
		}
		if *desired.RAMMB != cur {
			v := *desired.RAMMB
			diff.RAMMB = &v
		}
	}

	// 按 ID 索引当前磁盘
	existing := make(map[string]DriveChange, len(current.Storages))
	for _, d := range current.Storages {
		existing[d.ID] = d
	}

	creations := 0
	for _, want := range desired.Storages {
		old := UnsetSize
		device := ""
		primary := want.Primary
		if cur, ok := existing[want.ID]; ok {
			old = cur.NewSizeGB
			device = cur.Device
			primary = primary || cur.Primary
		}
		if old == want.NewSizeGB {
			// 未变化的磁盘不进入变更列表
			continue
		}
		if old == UnsetSize && want.NewSizeGB > 0 {
			creations++
		}
		diff.Storages = append(diff.Storages, DriveChange{
			ID:        want.ID,
			OldSizeGB: old,
			NewSizeGB: want.NewSizeGB,
			Primary:   primary,
			Device:    device,
		})
	}

	// 全量磁盘计数：当前已挂载的全部磁盘 + 本次新建的磁盘
	// 待删除磁盘的槽位在删除操作执行前仍被占用，因此不从计数中扣除
	diff.TotalDrives = len(current.Storages) + creations

	return diff
}
