package dispatcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jimyag/vmconverge/internal/converge/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService 可控的收敛服务桩
type fakeService struct {
	mu       sync.Mutex
	pending  []entity.Run
	started  chan string   // Converge 开始时写入 runID
	release  chan struct{} // Converge 阻塞直到收到信号
	inflight int
	maxSeen  int
}

func newFakeService(runs ...entity.Run) *fakeService {
	return &fakeService{
		pending: runs,
		started: make(chan string, len(runs)+8),
		release: make(chan struct{}),
	}
}

func (f *fakeService) PendingRuns(ctx context.Context) ([]entity.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	runs := make([]entity.Run, len(f.pending))
	copy(runs, f.pending)
	return runs, nil
}

func (f *fakeService) Converge(ctx context.Context, runID string) error {
	f.mu.Lock()
	f.inflight++
	if f.inflight > f.maxSeen {
		f.maxSeen = f.inflight
	}
	// 从待执行列表中移除，模拟任务状态迁移
	for i, run := range f.pending {
		if run.RunID == runID {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			break
		}
	}
	f.mu.Unlock()

	f.started <- runID
	<-f.release

	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()
	return nil
}

func waitStarted(t *testing.T, f *fakeService) string {
	t.Helper()
	select {
	case id := <-f.started:
		return id
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a run to start")
		return ""
	}
}

func TestDispatcherRunsPending(t *testing.T) {
	t.Parallel()

	svc := newFakeService(
		entity.Run{RunID: "run-1", VMID: "vm-1", Status: entity.RunStatusPending},
		entity.Run{RunID: "run-2", VMID: "vm-2", Status: entity.RunStatusPending},
	)
	close(svc.release) // 任务立即完成

	d := New(svc, 10*time.Millisecond, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	got := map[string]bool{}
	got[waitStarted(t, svc)] = true
	got[waitStarted(t, svc)] = true
	assert.True(t, got["run-1"])
	assert.True(t, got["run-2"])

	require.NoError(t, d.Shutdown(context.Background()))
}

func TestDispatcherSerializesPerVM(t *testing.T) {
	t.Parallel()

	// 同一台 VM 的两个任务不会并发执行
	svc := newFakeService(
		entity.Run{RunID: "run-1", VMID: "vm-1", Status: entity.RunStatusPending},
		entity.Run{RunID: "run-2", VMID: "vm-1", Status: entity.RunStatusPending},
	)

	d := New(svc, 10*time.Millisecond, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	first := waitStarted(t, svc)
	assert.Equal(t, "run-1", first)

	// run-1 还在执行，多个扫描周期内 run-2 不应启动
	select {
	case id := <-svc.started:
		t.Fatalf("run %s started while %s was in flight", id, first)
	case <-time.After(100 * time.Millisecond):
	}

	close(svc.release)
	second := waitStarted(t, svc)
	assert.Equal(t, "run-2", second)

	require.NoError(t, d.Shutdown(context.Background()))
}

func TestDispatcherWorkerLimit(t *testing.T) {
	t.Parallel()

	svc := newFakeService(
		entity.Run{RunID: "run-1", VMID: "vm-1", Status: entity.RunStatusPending},
		entity.Run{RunID: "run-2", VMID: "vm-2", Status: entity.RunStatusPending},
		entity.Run{RunID: "run-3", VMID: "vm-3", Status: entity.RunStatusPending},
	)

	d := New(svc, 10*time.Millisecond, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	waitStarted(t, svc)
	waitStarted(t, svc)

	// 池容量 2，第三个任务要等前面的完成
	select {
	case id := <-svc.started:
		t.Fatalf("run %s exceeded worker limit", id)
	case <-time.After(100 * time.Millisecond):
	}

	close(svc.release)
	waitStarted(t, svc)

	svc.mu.Lock()
	maxSeen := svc.maxSeen
	svc.mu.Unlock()
	assert.LessOrEqual(t, maxSeen, 2)

	require.NoError(t, d.Shutdown(context.Background()))
}

func TestDispatcherShutdownWaitsForInflight(t *testing.T) {
	t.Parallel()

	svc := newFakeService(
		entity.Run{RunID: "run-1", VMID: "vm-1", Status: entity.RunStatusPending},
	)

	d := New(svc, 10*time.Millisecond, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	waitStarted(t, svc)

	// 任务还没结束时带超时的 Shutdown 会失败
	shortCtx, shortCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer shortCancel()
	err := d.Shutdown(shortCtx)
	require.Error(t, err)

	close(svc.release)
	require.NoError(t, d.Shutdown(context.Background()))
}
