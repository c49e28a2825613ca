// Package model 定义轮班求解引擎的核心数据模型
package model

import "sort"

// EDONoFixedDay 表示该员工没有固定的轮休日
const EDONoFixedDay = -1

// UnlimitedNights 表示不限制夜班总数
const UnlimitedNights = 1 << 30

// Person 参与排班的人员
// 求解过程中视为只读输入，引擎绝不修改
type Person struct {
	Name            string `json:"name" yaml:"name"`
	WorkdaysPerWeek int    `json:"workdays_per_week" yaml:"workdays_per_week"` // 1-7
	PrefersNight    bool   `json:"prefers_night,omitempty" yaml:"prefers_night,omitempty"`
	NoEvening       bool   `json:"no_evening,omitempty" yaml:"no_evening,omitempty"`
	MaxNights       int    `json:"max_nights,omitempty" yaml:"max_nights,omitempty"` // 0 视为不限
	EDOEligible     bool   `json:"edo_eligible,omitempty" yaml:"edo_eligible,omitempty"`
	EDOFixedDay     int    `json:"edo_fixed_day,omitempty" yaml:"edo_fixed_day,omitempty"` // 0-4 或 EDONoFixedDay
	Team            string `json:"team,omitempty" yaml:"team,omitempty"`
	Contractor      bool   `json:"contractor,omitempty" yaml:"contractor,omitempty"`
	WeekendEligible bool   `json:"weekend_eligible,omitempty" yaml:"weekend_eligible,omitempty"`
	WeekendCap      int    `json:"weekend_cap,omitempty" yaml:"weekend_cap,omitempty"` // 每月可排周末数
}

// NightLimit 返回生效的夜班上限
func (p *Person) NightLimit() int {
	if p.MaxNights <= 0 {
		return UnlimitedNights
	}
	return p.MaxNights
}

// HasFixedEDO 判断是否配置了固定轮休日
func (p *Person) HasFixedEDO() bool {
	return p.EDOFixedDay >= 0 && p.EDOFixedDay < DaysPerWeek
}

// HorizonTarget 返回该员工在给定周数内的出勤目标（硬上限）
// 目标 = 每周工作天数 × 周数 − 轮休周数
func (p *Person) HorizonTarget(weeks, edoWeeks int) int {
	t := p.WorkdaysPerWeek*weeks - edoWeeks
	if t < 0 {
		return 0
	}
	return t
}

// SortPeople 按姓名字典序排序（副本），保证所有重建过程可复现
func SortPeople(people []Person) []Person {
	sorted := make([]Person, len(people))
	copy(sorted, people)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// PersonNames 提取姓名列表，保持输入顺序
func PersonNames(people []Person) []string {
	names := make([]string, len(people))
	for i, p := range people {
		names[i] = p.Name
	}
	return names
}
