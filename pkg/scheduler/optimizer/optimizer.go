// Package optimizer 以多随机种子并行寻优
//
// 每个种子是一次独立的完整求解尝试，默认在子进程中执行以隔离
// 内存与崩溃；进程内执行器用于测试与不允许派生进程的环境。
// 最终取得分最低的成功尝试，平分时取先完成者。
package optimizer

import (
	"context"
	"runtime"
	"sync"

	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler"
)

// Launcher 单次求解尝试的执行方式
type Launcher interface {
	// Launch 执行一次尝试，失败返回错误而非空结果
	Launch(ctx context.Context, req *WorkerRequest) (*scheduler.AttemptResult, error)
}

// WorkerRequest 传给执行器的完整输入
type WorkerRequest struct {
	People []model.Person     `json:"people"`
	Config model.SolverConfig `json:"config"`
}

// Optimizer 多种子寻优器
type Optimizer struct {
	launcher Launcher
	attempts int
	parallel int
}

// Option 寻优器选项
type Option func(*Optimizer)

// WithAttempts 设定种子数量
func WithAttempts(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.attempts = n
		}
	}
}

// WithParallelism 设定并发尝试数
func WithParallelism(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.parallel = n
		}
	}
}

// New 创建寻优器，launcher 为 nil 时使用进程内执行器
func New(launcher Launcher, opts ...Option) *Optimizer {
	if launcher == nil {
		launcher = &InprocLauncher{}
	}
	o := &Optimizer{
		launcher: launcher,
		attempts: 4,
		parallel: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.parallel > o.attempts {
		o.parallel = o.attempts
	}
	return o
}

// attemptOutcome 带完成序号的尝试结果
type attemptOutcome struct {
	order  int
	result *scheduler.AttemptResult
	err    error
}

// Run 并行执行全部种子并返回最优结果
//
// 种子为 base, base+1, ... base+attempts-1。引擎内部线程数按并发
// 尝试数均摊，避免超额占核。所有尝试都失败时返回一个状态为
// 无解的空结果，绝不返回 nil。
func (o *Optimizer) Run(ctx context.Context, people []model.Person, cfg model.SolverConfig) *scheduler.AttemptResult {
	cfg = cfg.Normalize()

	perAttempt := cfg.Workers / o.parallel
	if perAttempt < 1 {
		perAttempt = 1
	}

	logger.Info().
		Int("attempts", o.attempts).
		Int("parallel", o.parallel).
		Int("workers_per_attempt", perAttempt).
		Int64("base_seed", cfg.Seed).
		Msg("多种子寻优开始")

	sem := make(chan struct{}, o.parallel)
	outcomes := make(chan attemptOutcome, o.attempts)
	var wg sync.WaitGroup

	var orderMu sync.Mutex
	order := 0

	for i := 0; i < o.attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			attemptCfg := cfg
			attemptCfg.Seed = cfg.Seed + int64(i)
			attemptCfg.Workers = perAttempt

			result, err := o.launcher.Launch(ctx, &WorkerRequest{People: people, Config: attemptCfg})

			orderMu.Lock()
			seq := order
			order++
			orderMu.Unlock()

			if err != nil {
				logger.Error().
					Err(err).
					Int64("seed", attemptCfg.Seed).
					Msg("求解尝试失败")
			}
			outcomes <- attemptOutcome{order: seq, result: result, err: err}
		}(i)
	}

	wg.Wait()
	close(outcomes)

	var best *scheduler.AttemptResult
	bestOrder := 0
	var fallback *scheduler.AttemptResult
	failures := 0
	for out := range outcomes {
		if out.err != nil || out.result == nil {
			failures++
			continue
		}
		// 无解或未知的尝试不参与比分，只留一个兜底
		if !out.result.Solved() {
			if fallback == nil {
				fallback = out.result
			}
			continue
		}
		if best == nil ||
			out.result.Score < best.Score ||
			(out.result.Score == best.Score && out.order < bestOrder) {
			best, bestOrder = out.result, out.order
		}
	}
	if best == nil {
		best = fallback
	}

	if best == nil {
		logger.Error().Int("failures", failures).Msg("全部求解尝试失败，返回无解结果")
		best = &scheduler.AttemptResult{
			Seed:       cfg.Seed,
			Status:     model.StatusInfeasible,
			Schedule:   model.NewSchedule(cfg.Weeks, model.StatusInfeasible),
			Weekend:    model.NewWeekendResult(cfg.Weeks),
			Validation: &model.ValidationResult{},
			Fairness:   &model.FairnessMetrics{},
		}
		best.Weekend.Status = model.StatusInfeasible
	}

	logger.Info().
		Int64("seed", best.Seed).
		Str("status", string(best.Status)).
		Float64("score", best.Score).
		Int("failures", failures).
		Msg("多种子寻优完成")

	return best
}
