package convergence

// slotAlphabet 设备槽位字母表，下标即槽位序号
const slotAlphabet = "abcdefghijklmnopqrstuvwxyz"

// AllocateSlots 为本次收敛中所有 Create 动作分配设备槽位
//
// totalDrives 是变更完成后 VM 的磁盘总数（含待删除磁盘，它们的槽位
// 在删除执行前仍被占用）。新磁盘的起始槽位为 totalDrives - 创建数，
// 之后按 Create 动作的产生顺序依次取下一个字母。这样新磁盘的槽位
// 永远落在存量磁盘占用的槽位之后，不会产生碰撞：例如 3 块存量磁盘
// 加 2 个创建，两块新磁盘拿到 5 槽连续块的最后两个字母（d、e）。
//
// 字母表耗尽或计数不一致（创建数超过总数）返回 AllocationError。
func AllocateSlots(totalDrives int, actions []StorageAction) ([]DeviceSlot, error) {
	created := 0
	for _, a := range actions {
		if a.Kind == ActionCreate {
			created++
		}
	}
	if created == 0 {
		return nil, nil
	}

	base := totalDrives - created
	if base < 0 {
		return nil, &AllocationError{
			TotalDrives: totalDrives,
			Creations:   created,
			Reason:      "more creations than the total drive accounting allows",
		}
	}
	if totalDrives > len(slotAlphabet) {
		return nil, &AllocationError{
			TotalDrives: totalDrives,
			Creations:   created,
			Reason:      "device name alphabet exhausted",
		}
	}

	slots := make([]DeviceSlot, 0, created)
	next := base
	for _, a := range actions {
		if a.Kind != ActionCreate {
			continue
		}
		slots = append(slots, DeviceSlot{
			DriveID: a.Drive.ID,
			Index:   next,
			Letter:  string(slotAlphabet[next]),
		})
		next++
	}
	return slots, nil
}
