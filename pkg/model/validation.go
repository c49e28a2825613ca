// Package model 定义轮班求解引擎的核心数据模型
package model

import "math"

// Severity 违规严重级别
type Severity string

const (
	SeverityCritical Severity = "critical" // 缺口、滚动工时超限等必须人工处理的问题
	SeverityWarning  Severity = "warning"  // 休息与公平性问题
	SeverityInfo     Severity = "info"
)

// ViolationRule 违规规则标识
type ViolationRule string

const (
	RuleUnfilledSlot    ViolationRule = "unfilled_slot"
	RuleIncompletePair  ViolationRule = "incomplete_pair"
	RuleDuplicateDay    ViolationRule = "duplicate_day"
	RuleNightThenWork   ViolationRule = "night_then_work"
	RuleEveningThenDay  ViolationRule = "evening_then_day"
	RuleWeeklyTarget    ViolationRule = "weekly_target"
	RuleHorizonTarget   ViolationRule = "horizon_target"
	RuleRolling48h      ViolationRule = "rolling_48h"
	RuleEDOMissing      ViolationRule = "edo_missing"
	RuleEDOConflict     ViolationRule = "edo_conflict"
	RuleMaxNights       ViolationRule = "max_nights"
	RuleContractorPair  ViolationRule = "contractor_pair"
	RuleWeeklyHourCap   ViolationRule = "weekly_hour_cap"
)

// Violation 单条违规记录
type Violation struct {
	Rule     ViolationRule `json:"rule"`
	Severity Severity      `json:"severity"`
	Week     int           `json:"week"`
	Day      int           `json:"day"`
	Person   string        `json:"person,omitempty"`
	Message  string        `json:"message"`
}

// ValidationResult 独立校验的聚合结果
// 由校验器一次性填充，此后只读
type ValidationResult struct {
	UnfilledSlots       int `json:"unfilled_slots"`
	DuplicateSameDay    int `json:"duplicate_same_day"`
	NightFollowedByWork int `json:"night_followed_by_work"`
	EveningThenDay      int `json:"evening_then_day"`
	WeeklyDeviation     int `json:"weekly_deviation"`
	HorizonDeviation    int `json:"horizon_deviation"`
	Rolling48hCount     int `json:"rolling_48h_count"`

	Violations []Violation `json:"violations"`
}

// Add 追加一条违规并更新对应计数
func (r *ValidationResult) Add(v Violation) {
	r.Violations = append(r.Violations, v)
}

// CriticalCount 统计 critical 级违规条数
func (r *ValidationResult) CriticalCount() int {
	n := 0
	for _, v := range r.Violations {
		if v.Severity == SeverityCritical {
			n++
		}
	}
	return n
}

// Clean 判断是否完全无违规
func (r *ValidationResult) Clean() bool {
	return len(r.Violations) == 0 &&
		r.UnfilledSlots == 0 && r.DuplicateSameDay == 0 &&
		r.NightFollowedByWork == 0 && r.EveningThenDay == 0 &&
		r.WeeklyDeviation == 0 && r.HorizonDeviation == 0 &&
		r.Rolling48hCount == 0
}

// Summary 返回字典形式的汇总视图，供存储与 API 层使用
func (r *ValidationResult) Summary() map[string]interface{} {
	return map[string]interface{}{
		"unfilled_slots":         r.UnfilledSlots,
		"duplicate_same_day":     r.DuplicateSameDay,
		"night_followed_by_work": r.NightFollowedByWork,
		"evening_then_day":       r.EveningThenDay,
		"weekly_deviation":       r.WeeklyDeviation,
		"horizon_deviation":      r.HorizonDeviation,
		"rolling_48h_count":      r.Rolling48hCount,
		"violation_count":        len(r.Violations),
		"critical_count":         r.CriticalCount(),
	}
}

// FairnessMetrics 公平性指标
// 按分组记录夜班数与晚班数的总体标准差；单人分组贡献为零
type FairnessMetrics struct {
	NightStdDev   map[string]float64 `json:"night_std_dev"`
	EveningStdDev map[string]float64 `json:"evening_std_dev"`
	NightStdSum   float64            `json:"night_std_sum"`
	EveningStdSum float64            `json:"evening_std_sum"`
}

// PopulationStdDev 计算总体标准差
func PopulationStdDev(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
