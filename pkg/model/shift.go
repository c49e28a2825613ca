// Package model 定义轮班求解引擎的核心数据模型
package model

// Shift 班种标识
type Shift string

const (
	ShiftDay     Shift = "D" // 白班（双人槽位）
	ShiftEvening Shift = "E" // 晚班（单人槽位）
	ShiftNight   Shift = "N" // 夜班（双人槽位）
)

// WeekdayShifts 工作日模型使用的班种，顺序固定
var WeekdayShifts = []Shift{ShiftDay, ShiftEvening, ShiftNight}

// WeekendShifts 周末模型使用的班种（各 12 小时）
var WeekendShifts = []Shift{ShiftDay, ShiftNight}

// DaysPerWeek 工作日模型每周的天数（周一至周五）
const DaysPerWeek = 5

// CalendarDaysPerWeek 日历周天数，滚动窗口按日历天展开
const CalendarDaysPerWeek = 7

const (
	// Saturday 周末模型内的周六下标
	Saturday = 0
	// Sunday 周末模型内的周日下标
	Sunday = 1
)

// Hours 返回班种的工时（小时）
// 白班与晚班 10 小时，夜班 12 小时；周末班种按 12 小时计
func (s Shift) Hours() int {
	if s == ShiftNight {
		return 12
	}
	return 10
}

// WeekendHours 周末单个班次的工时
const WeekendHours = 12

// IsPair 判断该班种的槽位是否需要两人
func (s Shift) IsPair() bool {
	return s == ShiftDay || s == ShiftNight
}

// Name 返回班种的显示名称
func (s Shift) Name() string {
	switch s {
	case ShiftDay:
		return "白班"
	case ShiftEvening:
		return "晚班"
	case ShiftNight:
		return "夜班"
	default:
		return string(s)
	}
}

// SolveStatus 求解终态
type SolveStatus string

const (
	StatusOptimal    SolveStatus = "optimal"    // 目标值已降至零
	StatusFeasible   SolveStatus = "feasible"   // 找到可行解但未证明最优
	StatusInfeasible SolveStatus = "infeasible" // 硬约束无解
	StatusUnknown    SolveStatus = "unknown"    // 时间预算耗尽且未找到任何可行解
)

// statusRank 状态恶劣程度排序，用于多周结果聚合
func statusRank(s SolveStatus) int {
	switch s {
	case StatusInfeasible:
		return 3
	case StatusUnknown:
		return 2
	case StatusFeasible:
		return 1
	case StatusOptimal:
		return 0
	default:
		return 2
	}
}

// WorstStatus 返回两个状态中更恶劣的一个
func WorstStatus(a, b SolveStatus) SolveStatus {
	if statusRank(a) >= statusRank(b) {
		return a
	}
	return b
}
