package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jimyag/vmconverge/internal/converge/repository/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRepository(t *testing.T) {
	t.Parallel()

	repo := setupTestDB(t)

	runRepo := NewRunRepository(repo.DB())
	ctx := context.Background()

	t.Run("Create and GetByID", func(t *testing.T) {
		run := &model.Run{
			ID:        "run-123",
			VMID:      "vm-1",
			Status:    "pending",
			Request:   `{"vmID":"vm-1","cpu":4}`,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		err := runRepo.Create(ctx, run)
		assert.NoError(t, err)

		got, err := runRepo.GetByID(ctx, "run-123")
		assert.NoError(t, err)
		assert.Equal(t, "vm-1", got.VMID)
		assert.Equal(t, "pending", got.Status)
		assert.Contains(t, got.Request, `"cpu":4`)
	})

	t.Run("Update status and operations", func(t *testing.T) {
		run := &model.Run{
			ID:        "run-456",
			VMID:      "vm-1",
			Status:    "running",
			Request:   `{"vmID":"vm-1"}`,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		require.NoError(t, runRepo.Create(ctx, run))

		run.Status = "failed"
		run.Operations = `[{"kind":"shutdown","done":true}]`
		run.Error = "resize-drive failed with exit code 1"
		err := runRepo.Update(ctx, run)
		assert.NoError(t, err)

		got, err := runRepo.GetByID(ctx, "run-456")
		assert.NoError(t, err)
		assert.Equal(t, "failed", got.Status)
		assert.Contains(t, got.Operations, "shutdown")
		assert.Contains(t, got.Error, "exit code 1")
	})

	t.Run("ListPending returns oldest first", func(t *testing.T) {
		runs := []*model.Run{
			{ID: "run-pending-2", VMID: "vm-2", Status: "pending", Request: "{}", CreatedAt: time.Now().Add(time.Second), UpdatedAt: time.Now()},
			{ID: "run-pending-1", VMID: "vm-2", Status: "pending", Request: "{}", CreatedAt: time.Now(), UpdatedAt: time.Now()},
			{ID: "run-done", VMID: "vm-2", Status: "succeeded", Request: "{}", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		}
		for _, run := range runs {
			require.NoError(t, runRepo.Create(ctx, run))
		}

		pending, err := runRepo.ListPending(ctx)
		assert.NoError(t, err)

		var ids []string
		for _, run := range pending {
			if run.VMID == "vm-2" {
				ids = append(ids, run.ID)
			}
		}
		assert.Equal(t, []string{"run-pending-1", "run-pending-2"}, ids)
	})

	t.Run("List with filters", func(t *testing.T) {
		runs := []*model.Run{
			{ID: "run-filter-1", VMID: "vm-3", Status: "succeeded", Request: "{}", CreatedAt: time.Now(), UpdatedAt: time.Now()},
			{ID: "run-filter-2", VMID: "vm-4", Status: "failed", Request: "{}", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		}
		for _, run := range runs {
			require.NoError(t, runRepo.Create(ctx, run))
		}

		byVM, err := runRepo.List(ctx, map[string]interface{}{"vm_id": "vm-3"})
		assert.NoError(t, err)
		require.Len(t, byVM, 1)
		assert.Equal(t, "run-filter-1", byVM[0].ID)

		failed, err := runRepo.List(ctx, map[string]interface{}{"status": "failed"})
		assert.NoError(t, err)
		for _, run := range failed {
			assert.Equal(t, "failed", run.Status)
		}
	})
}
