// Package model 定义轮班求解引擎的核心数据模型
package model

import "time"

// FairnessMode 公平性分组模式
type FairnessMode string

const (
	FairnessNone     FairnessMode = "none"     // 关闭公平性目标
	FairnessWorkdays FairnessMode = "workdays" // 按每周工作天数分组（默认）
	FairnessTeam     FairnessMode = "team"     // 按团队标签分组
	FairnessGlobal   FairnessMode = "global"   // 全员一组
)

// StaffingTemplate 每日固定人力模板
// 白班与夜班按"对"计数（每对 2 人），晚班按单人计数
type StaffingTemplate struct {
	DayPairs     int `json:"day_pairs" yaml:"day_pairs"`
	EveningSolos int `json:"evening_solos" yaml:"evening_solos"`
	NightPairs   int `json:"night_pairs" yaml:"night_pairs"`
	WeekendSlots int `json:"weekend_slots" yaml:"weekend_slots"` // 周末每班所需人数
}

// SlotCount 返回某班种的槽位数
func (t StaffingTemplate) SlotCount(s Shift) int {
	switch s {
	case ShiftDay:
		return t.DayPairs
	case ShiftEvening:
		return t.EveningSolos
	case ShiftNight:
		return t.NightPairs
	default:
		return 0
	}
}

// HeadCount 返回某班种一天所需的总人数
func (t StaffingTemplate) HeadCount(s Shift) int {
	n := t.SlotCount(s)
	if s.IsPair() {
		return n * 2
	}
	return n
}

// ObjectiveWeights 约束模型内部的软目标权重
type ObjectiveWeights struct {
	Unfilled        int `json:"unfilled" yaml:"unfilled"`                 // 未满足槽位（最高权重）
	NightTargetDev  int `json:"night_target_dev" yaml:"night_target_dev"` // 偏离夜班比例目标
	NightSpread     int `json:"night_spread" yaml:"night_spread"`         // 组内夜班极差
	EveningTargetDev int `json:"evening_target_dev" yaml:"evening_target_dev"`
	EveningSpread   int `json:"evening_spread" yaml:"evening_spread"`
	Undershoot      int `json:"undershoot" yaml:"undershoot"` // 出勤目标欠额
	Clopening       int `json:"clopening" yaml:"clopening"`   // 晚班次日接白班
	WeekendTargetDev int `json:"weekend_target_dev" yaml:"weekend_target_dev"`
	WeekendSpread   int `json:"weekend_spread" yaml:"weekend_spread"`
	ConsecWeekend   int `json:"consec_weekend" yaml:"consec_weekend"` // 连续周末
}

// DefaultObjectiveWeights 返回默认目标权重
func DefaultObjectiveWeights() ObjectiveWeights {
	return ObjectiveWeights{
		Unfilled:         100,
		NightTargetDev:   6,
		NightSpread:      8,
		EveningTargetDev: 3,
		EveningSpread:    4,
		Undershoot:       5,
		Clopening:        1,
		WeekendTargetDev: 4,
		WeekendSpread:    4,
		ConsecWeekend:    3,
	}
}

// ScoreWeights 评分器的权重，外部可配置
type ScoreWeights struct {
	Unfilled         float64 `json:"unfilled" yaml:"unfilled"`
	Duplicates       float64 `json:"duplicates" yaml:"duplicates"`
	NightThenWork    float64 `json:"night_then_work" yaml:"night_then_work"`
	Clopening        float64 `json:"clopening" yaml:"clopening"`
	WeeklyDeviation  float64 `json:"weekly_deviation" yaml:"weekly_deviation"`
	HorizonDeviation float64 `json:"horizon_deviation" yaml:"horizon_deviation"`
	NightStdDev      float64 `json:"night_std_dev" yaml:"night_std_dev"`
	EveningStdDev    float64 `json:"evening_std_dev" yaml:"evening_std_dev"`
	// Rolling48h 默认权重为零：滚动 48 小时违规只上报不计分，
	// 调整此权重即可改变该策略
	Rolling48h float64 `json:"rolling_48h" yaml:"rolling_48h"`
}

// DefaultScoreWeights 返回默认评分权重
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Unfilled:         10,
		Duplicates:       5,
		NightThenWork:    3,
		Clopening:        1,
		WeeklyDeviation:  2,
		HorizonDeviation: 2,
		NightStdDev:      10,
		EveningStdDev:    3,
		Rolling48h:       0,
	}
}

// SolverConfig 一次求解的全部配置
// 配置必须完整显式传入，求解路径不读取任何全局状态
type SolverConfig struct {
	Weeks      int           `json:"weeks" yaml:"weeks"`
	TimeBudget time.Duration `json:"time_budget" yaml:"time_budget"`
	Workers    int           `json:"workers" yaml:"workers"` // 引擎内部并行搜索线程数
	Seed       int64         `json:"seed" yaml:"seed"`

	// 硬规则开关
	RestAfterNight     bool `json:"rest_after_night" yaml:"rest_after_night"`
	MaxNightsSequence  int  `json:"max_nights_sequence" yaml:"max_nights_sequence"`
	MaxConsecutiveDays int  `json:"max_consecutive_days" yaml:"max_consecutive_days"`
	EnforceMaxDaysWeek bool `json:"enforce_max_days_week" yaml:"enforce_max_days_week"`
	ContractorPairing  bool `json:"contractor_pairing" yaml:"contractor_pairing"` // 禁止双外包同槽
	NoDoubleNightWknd  bool `json:"no_double_night_weekend" yaml:"no_double_night_weekend"`

	WeeklyHourCap int `json:"weekly_hour_cap" yaml:"weekly_hour_cap"`

	Fairness FairnessMode     `json:"fairness" yaml:"fairness"`
	Staffing StaffingTemplate `json:"staffing" yaml:"staffing"`

	Objective ObjectiveWeights `json:"objective" yaml:"objective"`
	Score     ScoreWeights     `json:"score" yaml:"score"`
}

// DefaultSolverConfig 返回默认配置
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Weeks:              4,
		TimeBudget:         30 * time.Second,
		Workers:            4,
		Seed:               1,
		RestAfterNight:     true,
		MaxNightsSequence:  3,
		MaxConsecutiveDays: 5,
		EnforceMaxDaysWeek: true,
		ContractorPairing:  true,
		NoDoubleNightWknd:  true,
		WeeklyHourCap:      48,
		Fairness:           FairnessWorkdays,
		Staffing: StaffingTemplate{
			DayPairs:     4,
			EveningSolos: 1,
			NightPairs:   1,
			WeekendSlots: 2,
		},
		Objective: DefaultObjectiveWeights(),
		Score:     DefaultScoreWeights(),
	}
}

// Normalize 补齐零值字段，返回可直接求解的配置副本
func (c SolverConfig) Normalize() SolverConfig {
	def := DefaultSolverConfig()
	if c.Weeks <= 0 {
		c.Weeks = def.Weeks
	}
	if c.TimeBudget <= 0 {
		c.TimeBudget = def.TimeBudget
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.MaxNightsSequence <= 0 {
		c.MaxNightsSequence = def.MaxNightsSequence
	}
	if c.MaxConsecutiveDays <= 0 {
		c.MaxConsecutiveDays = def.MaxConsecutiveDays
	}
	if c.WeeklyHourCap <= 0 {
		c.WeeklyHourCap = def.WeeklyHourCap
	}
	if c.Fairness == "" {
		c.Fairness = def.Fairness
	}
	if c.Objective == (ObjectiveWeights{}) {
		c.Objective = def.Objective
	}
	if c.Score == (ScoreWeights{}) {
		c.Score = def.Score
	}
	return c
}
