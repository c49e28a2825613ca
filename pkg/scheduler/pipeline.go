// Package scheduler 串联一次完整求解的各个阶段
//
// 阶段顺序固定：轮休分配 → 人力推导 → 工作日求解 → 周末求解 →
// 独立校验 → 公平性统计 → 评分。上游产物是下游的只读输入。
package scheduler

import (
	"context"
	"time"

	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler/edo"
	"github.com/lunban/lunban/pkg/scheduler/staffing"
	"github.com/lunban/lunban/pkg/scheduler/weekday"
	"github.com/lunban/lunban/pkg/scheduler/weekend"
	"github.com/lunban/lunban/pkg/stats"
	"github.com/lunban/lunban/pkg/validator"
)

// AttemptResult 单次求解尝试的完整产物
type AttemptResult struct {
	Seed       int64                   `json:"seed"`
	Status     model.SolveStatus       `json:"status"`
	Score      float64                 `json:"score"`
	Schedule   *model.Schedule         `json:"schedule"`
	Weekend    *model.WeekendResult    `json:"weekend"`
	Validation *model.ValidationResult `json:"validation"`
	Fairness   *model.FairnessMetrics  `json:"fairness"`
	Coverage   *stats.CoverageMetrics  `json:"coverage"`
	Elapsed    time.Duration           `json:"elapsed"`
}

// Solved 判断该次尝试是否产出了可用方案
func (r *AttemptResult) Solved() bool {
	return r.Status == model.StatusOptimal || r.Status == model.StatusFeasible
}

// RunAttempt 以给定种子执行一次完整求解
func RunAttempt(ctx context.Context, people []model.Person, cfg model.SolverConfig) *AttemptResult {
	cfg = cfg.Normalize()
	start := time.Now()

	slog := logger.NewSolveLogger(cfg.Seed)
	logger.Info().
		Int64("seed", cfg.Seed).
		Int("people", len(people)).
		Int("weeks", cfg.Weeks).
		Msg("开始求解尝试")

	slog.StageStart("prepare")
	plan := edo.Allocate(people, cfg.Weeks)
	weeks := staffing.Derive(people, plan, cfg.Staffing, cfg.Weeks)
	slog.StageDone("prepare", time.Since(start))

	stageStart := time.Now()
	slog.StageStart("weekday")
	wd := weekday.Solve(ctx, people, cfg, plan, weeks)
	slog.StageDone("weekday", time.Since(stageStart))

	stageStart = time.Now()
	slog.StageStart("weekend")
	we := weekend.Solve(ctx, people, cfg, wd.FridayNights)
	slog.StageDone("weekend", time.Since(stageStart))

	stageStart = time.Now()
	slog.StageStart("evaluate")
	checker := validator.NewChecker(people, cfg, plan, weeks)
	validation := checker.Validate(wd.Schedule, we)

	fairness := stats.NewFairnessCalculator(cfg.Fairness).Calculate(people, wd.Schedule)
	coverage := stats.AnalyzeCoverage(wd.Schedule, weeks)
	slog.StageDone("evaluate", time.Since(stageStart))

	result := &AttemptResult{
		Seed:       cfg.Seed,
		Status:     model.WorstStatus(wd.Schedule.Status, we.Status),
		Score:      stats.Score(cfg.Score, validation, fairness),
		Schedule:   wd.Schedule,
		Weekend:    we,
		Validation: validation,
		Fairness:   fairness,
		Coverage:   coverage,
		Elapsed:    time.Since(start),
	}

	slog.AttemptDone(string(result.Status), result.Score, result.Elapsed)

	return result
}
