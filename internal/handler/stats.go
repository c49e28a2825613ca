package handler

import (
	"encoding/json"
	"net/http"

	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler/edo"
	"github.com/lunban/lunban/pkg/scheduler/staffing"
	"github.com/lunban/lunban/pkg/stats"
)

// StatsRequest 统计请求：对既有排班结果计算公平性与覆盖率
type StatsRequest struct {
	People   []model.Person      `json:"people"`
	Config   *model.SolverConfig `json:"config,omitempty"`
	Schedule *model.Schedule     `json:"schedule"`
}

// StatsResponse 统计响应
type StatsResponse struct {
	Fairness    *model.FairnessMetrics         `json:"fairness"`
	Coverage    *stats.CoverageMetrics         `json:"coverage"`
	ShiftCounts map[string]map[model.Shift]int `json:"shift_counts"`
}

// Fairness 计算排班结果的公平性指标与覆盖率
func (h *RosterHandler) Fairness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req StatsRequest
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

	counts := make(map[string]map[model.Shift]int, len(req.People))
	for _, p := range req.People {
		counts[p.Name] = req.Schedule.ShiftCounts(p.Name)
	}

	respondJSON(w, http.StatusOK, &StatsResponse{
		Fairness:    stats.NewFairnessCalculator(cfg.Fairness).Calculate(req.People, req.Schedule),
		Coverage:    stats.AnalyzeCoverage(req.Schedule, weeks),
		ShiftCounts: counts,
	})
}
