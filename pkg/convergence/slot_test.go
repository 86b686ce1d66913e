package convergence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAction(id string, sizeGB int) StorageAction {
	return StorageAction{
		Kind:   ActionCreate,
		Drive:  DriveChange{ID: id, OldSizeGB: UnsetSize, NewSizeGB: sizeGB},
		SizeGB: sizeGB,
	}
}

func TestAllocateSlots(t *testing.T) {
	t.Parallel()

	t.Run("no creations yields no slots", func(t *testing.T) {
		slots, err := AllocateSlots(3, []StorageAction{
			{Kind: ActionGrow, Drive: DriveChange{ID: "a", OldSizeGB: 10, NewSizeGB: 20}},
		})
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("two creations on a vm with one existing drive", func(t *testing.T) {
		// 存量 1 块（占用 'a'），新建 2 块，总数 3：
		// 新磁盘拿到 3 槽连续块的最后两个字母 b、c
		slots, err := AllocateSlots(3, []StorageAction{
			createAction("drive-b", 50),
			createAction("drive-c", 80),
		})
		require.NoError(t, err)
		require.Len(t, slots, 2)
		assert.Equal(t, DeviceSlot{DriveID: "drive-b", Index: 1, Letter: "b"}, slots[0])
		assert.Equal(t, DeviceSlot{DriveID: "drive-c", Index: 2, Letter: "c"}, slots[1])
	})

	t.Run("three existing drives and two creations", func(t *testing.T) {
		slots, err := AllocateSlots(5, []StorageAction{
			createAction("d4", 10),
			createAction("d5", 10),
		})
		require.NoError(t, err)
		require.Len(t, slots, 2)
		assert.Equal(t, "d", slots[0].Letter)
		assert.Equal(t, "e", slots[1].Letter)
	})

	t.Run("slots are pairwise distinct", func(t *testing.T) {
		actions := make([]StorageAction, 0, 10)
		for i := 0; i < 10; i++ {
			actions = append(actions, createAction(string(rune('a'+i)), 10))
		}
		slots, err := AllocateSlots(16, actions)
		require.NoError(t, err)

		seen := make(map[string]bool)
		for _, s := range slots {
			assert.False(t, seen[s.Letter], "duplicate slot %s", s.Letter)
			seen[s.Letter] = true
			// 前 6 个槽位被存量磁盘占用
			assert.GreaterOrEqual(t, s.Index, 6)
		}
	})

	t.Run("alphabet exhaustion", func(t *testing.T) {
		_, err := AllocateSlots(27, []StorageAction{createAction("d", 10)})
		require.Error(t, err)
		var aerr *AllocationError
		assert.True(t, errors.As(err, &aerr))
	})

	t.Run("inconsistent accounting", func(t *testing.T) {
		_, err := AllocateSlots(1, []StorageAction{
			createAction("d1", 10),
			createAction("d2", 10),
		})
		require.Error(t, err)
		var aerr *AllocationError
		require.True(t, errors.As(err, &aerr))
		assert.Equal(t, 2, aerr.Creations)
	})
}
