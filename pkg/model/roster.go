// Package model 定义轮班求解引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// PairAssignment 一个槽位的人员分配
// 白班和夜班槽位要求两个不同的非空人员；晚班槽位 PersonB 恒为空。
// 配对不完整（PersonB 缺失的双人槽）作为部分配对保留并由校验器计为缺口，
// 绝不静默丢弃。
type PairAssignment struct {
	Week    int    `json:"week"`
	Day     int    `json:"day"` // 0-4 工作日；周末结果中 0=周六 1=周日
	Shift   Shift  `json:"shift"`
	Slot    int    `json:"slot"`
	PersonA string `json:"person_a"`
	PersonB string `json:"person_b,omitempty"`
}

// People 返回该槽位的非空人员
func (a PairAssignment) People() []string {
	if a.PersonB == "" {
		return []string{a.PersonA}
	}
	return []string{a.PersonA, a.PersonB}
}

// Complete 判定配对是否完整
func (a PairAssignment) Complete() bool {
	if a.Shift.IsPair() {
		return a.PersonA != "" && a.PersonB != "" && a.PersonA != a.PersonB
	}
	return a.PersonA != "" && a.PersonB == ""
}

// Schedule 工作日排班结果，创建后不再修改
type Schedule struct {
	ID          uuid.UUID              `json:"id"`
	Weeks       int                    `json:"weeks"`
	Assignments []PairAssignment       `json:"assignments"`
	Status      SolveStatus            `json:"status"`
	Objective   int64                  `json:"objective"`
	SolveTime   time.Duration          `json:"solve_time"`
	Stats       map[string]interface{} `json:"stats,omitempty"`
}

// NewSchedule 创建排班结果
func NewSchedule(weeks int, status SolveStatus) *Schedule {
	return &Schedule{
		ID:     uuid.New(),
		Weeks:  weeks,
		Status: status,
		Stats:  make(map[string]interface{}),
	}
}

// ShiftCounts 统计某人各班种的出勤次数
func (s *Schedule) ShiftCounts(name string) map[Shift]int {
	counts := make(map[Shift]int)
	for _, a := range s.Assignments {
		for _, p := range a.People() {
			if p == name {
				counts[a.Shift]++
			}
		}
	}
	return counts
}

// NightCount 统计某人的夜班次数
func (s *Schedule) NightCount(name string) int {
	return s.ShiftCounts(name)[ShiftNight]
}

// PersonShifts 返回某人的全部分配，保持结果顺序
func (s *Schedule) PersonShifts(name string) []PairAssignment {
	var out []PairAssignment
	for _, a := range s.Assignments {
		for _, p := range a.People() {
			if p == name {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// SlotsAt 返回某天某班种的全部槽位分配
func (s *Schedule) SlotsAt(week, day int, shift Shift) []PairAssignment {
	var out []PairAssignment
	for _, a := range s.Assignments {
		if a.Week == week && a.Day == day && a.Shift == shift {
			out = append(out, a)
		}
	}
	return out
}

// PeopleOn 返回某天出勤的人员集合
func (s *Schedule) PeopleOn(week, day int) map[string]Shift {
	out := make(map[string]Shift)
	for _, a := range s.Assignments {
		if a.Week == week && a.Day == day {
			for _, p := range a.People() {
				out[p] = a.Shift
			}
		}
	}
	return out
}

// WorkedDays 统计某人的出勤天数
func (s *Schedule) WorkedDays(name string) int {
	days := make(map[[2]int]bool)
	for _, a := range s.Assignments {
		for _, p := range a.People() {
			if p == name {
				days[[2]int{a.Week, a.Day}] = true
			}
		}
	}
	return len(days)
}

// WeekendLoad 周末负荷标记
type WeekendLoad string

const (
	WeekendOff    WeekendLoad = "OFF"
	WeekendSingle WeekendLoad = "12h"
	WeekendDouble WeekendLoad = "24h"
)

// WeekendAssignment 周末的单人分配（周末槽位按人计）
type WeekendAssignment struct {
	Week   int    `json:"week"`
	Day    int    `json:"day"` // Saturday / Sunday
	Shift  Shift  `json:"shift"`
	Slot   int    `json:"slot"`
	Person string `json:"person"`
}

// WeekendResult 周末排班结果，创建后不再修改
type WeekendResult struct {
	ID          uuid.UUID              `json:"id"`
	Weeks       int                    `json:"weeks"`
	Assignments []WeekendAssignment    `json:"assignments"`
	Status      SolveStatus            `json:"status"`
	Objective   int64                  `json:"objective"`
	SolveTime   time.Duration          `json:"solve_time"`
	Stats       map[string]interface{} `json:"stats,omitempty"`
}

// NewWeekendResult 创建周末排班结果
func NewWeekendResult(weeks int) *WeekendResult {
	return &WeekendResult{
		ID:     uuid.New(),
		Weeks:  weeks,
		Status: StatusOptimal,
		Stats:  make(map[string]interface{}),
	}
}

// Load 返回某人某周末的负荷标记
func (r *WeekendResult) Load(week int, name string) WeekendLoad {
	count := 0
	for _, a := range r.Assignments {
		if a.Week == week && a.Person == name {
			count++
		}
	}
	switch {
	case count >= 2:
		return WeekendDouble
	case count == 1:
		return WeekendSingle
	default:
		return WeekendOff
	}
}

// WorkedWeekends 统计某人实际出勤的周末数
func (r *WeekendResult) WorkedWeekends(name string) int {
	weeks := make(map[int]bool)
	for _, a := range r.Assignments {
		if a.Person == name {
			weeks[a.Week] = true
		}
	}
	return len(weeks)
}

// ShiftsOf 返回某人全部周末分配
func (r *WeekendResult) ShiftsOf(name string) []WeekendAssignment {
	var out []WeekendAssignment
	for _, a := range r.Assignments {
		if a.Person == name {
			out = append(out, a)
		}
	}
	return out
}

// Has 判断某人某周末某天是否排了指定班种
func (r *WeekendResult) Has(week, day int, shift Shift, name string) bool {
	for _, a := range r.Assignments {
		if a.Week == week && a.Day == day && a.Shift == shift && a.Person == name {
			return true
		}
	}
	return false
}
