package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jimyag/vmconverge/internal/converge/repository/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	repo, err := New(dbPath)
	require.NoError(t, err)

	// 使用 t.Cleanup 确保在测试真正结束时清理，支持并发测试
	t.Cleanup(func() {
		_ = repo.Close()
		_ = os.RemoveAll(tmpDir)
	})

	return repo
}

func TestVMRepository(t *testing.T) {
	t.Parallel()

	repo := setupTestDB(t)

	vmRepo := NewVMRepository(repo.DB())
	ctx := context.Background()

	t.Run("Create and GetByID with drives", func(t *testing.T) {
		vm := &model.VM{
			ID:        "vm-123",
			Name:      "10_205",
			Backend:   "kvm",
			Host:      "fd00::205",
			CPU:       2,
			RAMMB:     2048,
			State:     "running",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		drives := []*model.Drive{
			{DriveID: "os", SizeGB: 20, IsPrimary: true, Device: "a", CreatedAt: time.Now(), UpdatedAt: time.Now()},
			{DriveID: "data1", SizeGB: 100, Device: "b", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		}

		err := vmRepo.Create(ctx, vm, drives)
		assert.NoError(t, err)

		got, err := vmRepo.GetByID(ctx, "vm-123")
		assert.NoError(t, err)
		assert.Equal(t, vm.Name, got.Name)
		assert.Equal(t, vm.Backend, got.Backend)
		assert.Equal(t, 2, got.CPU)

		gotDrives, err := vmRepo.ListDrives(ctx, "vm-123")
		assert.NoError(t, err)
		require.Len(t, gotDrives, 2)
		// 按 device 排序：a 在 b 之前
		assert.Equal(t, "os", gotDrives[0].DriveID)
		assert.True(t, gotDrives[0].IsPrimary)
		assert.Equal(t, "data1", gotDrives[1].DriveID)
	})

	t.Run("GetByHostName", func(t *testing.T) {
		vm := &model.VM{
			ID:        "vm-456",
			Name:      "win-205",
			Backend:   "hyperv",
			Host:      "192.168.1.205",
			CPU:       4,
			RAMMB:     8192,
			State:     "running",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		require.NoError(t, vmRepo.Create(ctx, vm, nil))

		got, err := vmRepo.GetByHostName(ctx, "192.168.1.205", "win-205")
		assert.NoError(t, err)
		assert.Equal(t, "vm-456", got.ID)
	})

	t.Run("duplicate host and name rejected", func(t *testing.T) {
		vm := &model.VM{
			ID:        "vm-dup-1",
			Name:      "dup",
			Backend:   "kvm",
			Host:      "host-a",
			CPU:       1,
			RAMMB:     1024,
			State:     "running",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		require.NoError(t, vmRepo.Create(ctx, vm, nil))

		dup := &model.VM{
			ID:        "vm-dup-2",
			Name:      "dup",
			Backend:   "kvm",
			Host:      "host-a",
			CPU:       1,
			RAMMB:     1024,
			State:     "running",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		err := vmRepo.Create(ctx, dup, nil)
		assert.Error(t, err)
	})

	t.Run("Update", func(t *testing.T) {
		vm := &model.VM{
			ID:        "vm-789",
			Name:      "upd",
			Backend:   "kvm",
			Host:      "host-b",
			CPU:       2,
			RAMMB:     2048,
			State:     "running",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		require.NoError(t, vmRepo.Create(ctx, vm, nil))

		vm.CPU = 4
		vm.RAMMB = 4096
		err := vmRepo.Update(ctx, vm)
		assert.NoError(t, err)

		got, err := vmRepo.GetByID(ctx, "vm-789")
		assert.NoError(t, err)
		assert.Equal(t, 4, got.CPU)
		assert.Equal(t, 4096, got.RAMMB)
	})

	t.Run("ReplaceDrives", func(t *testing.T) {
		vm := &model.VM{
			ID:        "vm-replace",
			Name:      "rep",
			Backend:   "kvm",
			Host:      "host-c",
			CPU:       2,
			RAMMB:     2048,
			State:     "running",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		drives := []*model.Drive{
			{DriveID: "os", SizeGB: 20, IsPrimary: true, Device: "a", CreatedAt: time.Now(), UpdatedAt: time.Now()},
			{DriveID: "gone", SizeGB: 10, Device: "b", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		}
		require.NoError(t, vmRepo.Create(ctx, vm, drives))

		// 收敛后：gone 被删除，新增 data2
		err := vmRepo.ReplaceDrives(ctx, "vm-replace", []*model.Drive{
			{DriveID: "os", SizeGB: 40, IsPrimary: true, Device: "a", CreatedAt: time.Now(), UpdatedAt: time.Now()},
			{DriveID: "data2", SizeGB: 50, Device: "c", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		})
		assert.NoError(t, err)

		got, err := vmRepo.ListDrives(ctx, "vm-replace")
		assert.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "os", got[0].DriveID)
		assert.Equal(t, 40, got[0].SizeGB)
		assert.Equal(t, "data2", got[1].DriveID)
	})

	t.Run("List with filters", func(t *testing.T) {
		vms := []*model.VM{
			{ID: "vm-filter-1", Name: "f1", Backend: "kvm", Host: "h1", CPU: 1, RAMMB: 1024, State: "running", CreatedAt: time.Now(), UpdatedAt: time.Now()},
			{ID: "vm-filter-2", Name: "f2", Backend: "hyperv", Host: "h2", CPU: 1, RAMMB: 1024, State: "shut off", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		}
		for _, vm := range vms {
			require.NoError(t, vmRepo.Create(ctx, vm, nil))
		}

		kvms, err := vmRepo.List(ctx, map[string]interface{}{"backend": "kvm"})
		assert.NoError(t, err)
		for _, vm := range kvms {
			assert.Equal(t, "kvm", vm.Backend)
		}

		byIDs, err := vmRepo.List(ctx, map[string]interface{}{"ids": []string{"vm-filter-1", "vm-filter-2"}})
		assert.NoError(t, err)
		assert.Len(t, byIDs, 2)
	})

	t.Run("Delete removes vm and drives", func(t *testing.T) {
		vm := &model.VM{
			ID:        "vm-delete",
			Name:      "del",
			Backend:   "kvm",
			Host:      "host-d",
			CPU:       1,
			RAMMB:     1024,
			State:     "running",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		drives := []*model.Drive{
			{DriveID: "os", SizeGB: 20, IsPrimary: true, Device: "a", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		}
		require.NoError(t, vmRepo.Create(ctx, vm, drives))

		err := vmRepo.Delete(ctx, "vm-delete")
		assert.NoError(t, err)

		_, err = vmRepo.GetByID(ctx, "vm-delete")
		assert.Error(t, err)

		gotDrives, err := vmRepo.ListDrives(ctx, "vm-delete")
		assert.NoError(t, err)
		assert.Empty(t, gotDrives)
	})
}
