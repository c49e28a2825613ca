// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lunban/lunban/internal/metrics"
	"github.com/lunban/lunban/internal/repository"
	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler/edo"
	"github.com/lunban/lunban/pkg/scheduler/optimizer"
	"github.com/lunban/lunban/pkg/scheduler/staffing"
	"github.com/lunban/lunban/pkg/stats"
	"github.com/lunban/lunban/pkg/validator"
)

// TrialStore 试验存档能力，数据库不可用时可为 nil
type TrialStore interface {
	Save(ctx context.Context, trial *repository.Trial, attempts []repository.AttemptSummary) error
}

// RosterHandler 排班求解处理器
type RosterHandler struct {
	launcher optimizer.Launcher
	store    TrialStore
	attempts int
	parallel int
}

// NewRosterHandler 创建排班处理器
func NewRosterHandler(launcher optimizer.Launcher, store TrialStore, attempts, parallel int) *RosterHandler {
	return &RosterHandler{
		launcher: launcher,
		store:    store,
		attempts: attempts,
		parallel: parallel,
	}
}

// SolveRequest 求解请求
type SolveRequest struct {
	People   []model.Person      `json:"people"`
	Config   *model.SolverConfig `json:"config,omitempty"`
	Attempts int                 `json:"attempts,omitempty"`
}

// SolveResponse 求解响应
type SolveResponse struct {
	TrialID    string                   `json:"trial_id,omitempty"`
	Seed       int64                    `json:"seed"`
	Status     model.SolveStatus        `json:"status"`
	Score      float64                  `json:"score"`
	Schedule   *model.Schedule          `json:"schedule"`
	Weekend    *model.WeekendResult     `json:"weekend"`
	Validation map[string]interface{}   `json:"validation"`
	Violations []model.Violation        `json:"violations,omitempty"`
	Fairness   *model.FairnessMetrics   `json:"fairness"`
	Coverage   *stats.CoverageMetrics   `json:"coverage"`
}

// Solve 执行多种子求解并存档结果
func (h *RosterHandler) Solve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if err := validatePeople(req.People); err != nil {
		respondError(w, err)
		return
	}

	cfg := model.DefaultSolverConfig()
	if req.Config != nil {
		cfg = req.Config.Normalize()
	}
	attempts := h.attempts
	if req.Attempts > 0 {
		attempts = req.Attempts
	}

	metrics.SolveStarted()
	opt := optimizer.New(h.launcher,
		optimizer.WithAttempts(attempts),
		optimizer.WithParallelism(h.parallel))
	best := opt.Run(r.Context(), req.People, cfg)
	metrics.SolveFinished()
	metrics.RecordSolveAttempt(string(best.Status), best.Elapsed)
	metrics.SetBestScore(best.Score)
	if best.Validation != nil {
		metrics.SetUnfilledSlots(best.Validation.UnfilledSlots)
	}

	resp := &SolveResponse{
		Seed:       best.Seed,
		Status:     best.Status,
		Score:      best.Score,
		Schedule:   best.Schedule,
		Weekend:    best.Weekend,
		Validation: best.Validation.Summary(),
		Violations: best.Validation.Violations,
		Fairness:   best.Fairness,
		Coverage:   best.Coverage,
	}

	if h.store != nil {
		trial := repository.FromAttempt(best)
		if err := h.store.Save(r.Context(), trial, nil); err != nil {
			logger.Error().Err(err).Msg("存档试验失败")
		} else {
			resp.TrialID = trial.ID.String()
		}
	}

	status := http.StatusOK
	if best.Status == model.StatusInfeasible || best.Status == model.StatusUnknown {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, resp)
}

// ValidateRequest 校验请求：对外部提交的排班结果做独立复核
type ValidateRequest struct {
	People   []model.Person       `json:"people"`
	Config   *model.SolverConfig  `json:"config,omitempty"`
	Schedule *model.Schedule      `json:"schedule"`
	Weekend  *model.WeekendResult `json:"weekend,omitempty"`
}

// ValidateResponse 校验响应
type ValidateResponse struct {
	Clean      bool                   `json:"clean"`
	Score      float64                `json:"score"`
	Summary    map[string]interface{} `json:"summary"`
	Violations []model.Violation      `json:"violations,omitempty"`
	Fairness   *model.FairnessMetrics `json:"fairness"`
}

// Validate 对提交的排班结果执行独立校验与评分
func (h *RosterHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if err := validatePeople(req.People); err != nil {
		respondError(w, err)
		return
	}
	if req.Schedule == nil {
		respondError(w, errors.InvalidInput("schedule", "不能为空"))
		return
	}

	cfg := model.DefaultSolverConfig()
	if req.Config != nil {
		cfg = req.Config.Normalize()
	}
	if req.Schedule.Weeks > 0 {
		cfg.Weeks = req.Schedule.Weeks
	}

	plan := edo.Allocate(req.People, cfg.Weeks)
	weeks := staffing.Derive(req.People, plan, cfg.Staffing, cfg.Weeks)

	checker := validator.NewChecker(req.People, cfg, plan, weeks)
	result := checker.Validate(req.Schedule, req.Weekend)
	fairness := stats.NewFairnessCalculator(cfg.Fairness).Calculate(req.People, req.Schedule)

	respondJSON(w, http.StatusOK, &ValidateResponse{
		Clean:      result.Clean(),
		Score:      stats.Score(cfg.Score, result, fairness),
		Summary:    result.Summary(),
		Violations: result.Violations,
		Fairness:   fairness,
	})
}

// validatePeople 检查人员输入
func validatePeople(people []model.Person) *errors.AppError {
	if len(people) == 0 {
		return errors.InvalidInput("people", "不能为空")
	}
	seen := make(map[string]bool, len(people))
	for _, p := range people {
		if p.Name == "" {
			return errors.InvalidInput("people.name", "不能为空")
		}
		if seen[p.Name] {
			return errors.InvalidInput("people.name", "姓名重复: "+p.Name)
		}
		seen[p.Name] = true
		if p.WorkdaysPerWeek < 1 || p.WorkdaysPerWeek > 7 {
			return errors.InvalidInput("people.workdays_per_week", "必须在 1-7 之间")
		}
		if p.EDOFixedDay != model.EDONoFixedDay && (p.EDOFixedDay < 0 || p.EDOFixedDay >= model.DaysPerWeek) {
			return errors.InvalidInput("people.edo_fixed_day", "必须在 0-4 之间或为 -1")
		}
	}
	return nil
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
	})
}
