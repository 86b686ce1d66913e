// Package dispatcher 提供收敛任务的后台调度
//
// 周期性扫描待执行的任务，交给有限大小的 worker 池执行。
// 同一台 VM 同时只会有一个收敛任务在执行，避免两个 Plan
// 交错操作同一台宿主机上的同一个 domain。
package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/jimyag/vmconverge/internal/converge/entity"
	"github.com/rs/zerolog"
)

// Service 调度器依赖的收敛服务能力
type Service interface {
	PendingRuns(ctx context.Context) ([]entity.Run, error)
	Converge(ctx context.Context, runID string) error
}

// Dispatcher 收敛任务调度器
type Dispatcher struct {
	svc      Service
	interval time.Duration

	sem      chan struct{} // worker 池容量
	mu       sync.Mutex
	inflight map[string]bool // vmID -> 是否有任务在执行
	wg       sync.WaitGroup

	stopOnce sync.Once
	done     chan struct{}
}

// New 创建调度器
// interval 是扫描间隔，workers 是并发执行的任务上限
func New(svc Service, interval time.Duration, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		svc:      svc,
		interval: interval,
		sem:      make(chan struct{}, workers),
		inflight: make(map[string]bool),
		done:     make(chan struct{}),
	}
}

// Run 周期性扫描并派发待执行任务，直到 Shutdown 或 ctx 取消
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	// 启动时先扫一次，不等第一个 tick
	d.dispatch(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.done:
			return nil
		case <-ticker.C:
			d.dispatch(ctx)
		}
	}
}

// Shutdown 停止扫描并等待在执行的任务结束
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.stopOnce.Do(func() {
		close(d.done)
	})

	finished := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Name 实现 grace.Grace 接口
func (d *Dispatcher) Name() string {
	return "Convergence Dispatcher"
}

// dispatch 扫描一轮待执行任务并派发
// worker 池满或 VM 已有任务在执行时跳过，留给下一轮
func (d *Dispatcher) dispatch(ctx context.Context) {
	logger := zerolog.Ctx(ctx)

	runs, err := d.svc.PendingRuns(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("List pending runs failed")
		return
	}

	for _, run := range runs {
		run := run

		d.mu.Lock()
		if d.inflight[run.VMID] {
			d.mu.Unlock()
			continue
		}
		select {
		case d.sem <- struct{}{}:
		default:
			// worker 池满
			d.mu.Unlock()
			return
		}
		d.inflight[run.VMID] = true
		d.mu.Unlock()

		d.wg.Add(1)
		go func() {
			defer func() {
				d.mu.Lock()
				delete(d.inflight, run.VMID)
				d.mu.Unlock()
				<-d.sem
				d.wg.Done()
			}()

			logger.Info().
				Str("runID", run.RunID).
				Str("vmID", run.VMID).
				Msg("Dispatching convergence run")
			if err := d.svc.Converge(ctx, run.RunID); err != nil {
				// 失败详情已由服务层落库，这里只记录调度结果
				logger.Warn().Err(err).Str("runID", run.RunID).Msg("Convergence run failed")
			}
		}()
	}
}
