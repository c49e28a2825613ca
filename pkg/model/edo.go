// Package model 定义轮班求解引擎的核心数据模型
package model

import "sort"

// EDOPlan 轮休计划
// Plan 按周号记录当周获得轮休的人员集合；Fixed 记录固定轮休日
type EDOPlan struct {
	Plan  map[int]map[string]bool `json:"plan"`
	Fixed map[string]int          `json:"fixed"` // 姓名 → 工作日下标（0-4）
}

// NewEDOPlan 创建空的轮休计划
func NewEDOPlan() *EDOPlan {
	return &EDOPlan{
		Plan:  make(map[int]map[string]bool),
		Fixed: make(map[string]int),
	}
}

// Grant 登记某周的轮休
func (p *EDOPlan) Grant(week int, name string) {
	if p.Plan[week] == nil {
		p.Plan[week] = make(map[string]bool)
	}
	p.Plan[week][name] = true
}

// OnEDO 判断某人某周是否轮休
func (p *EDOPlan) OnEDO(week int, name string) bool {
	return p.Plan[week][name]
}

// FixedDay 返回固定轮休日，未配置时返回 EDONoFixedDay
func (p *EDOPlan) FixedDay(name string) int {
	if d, ok := p.Fixed[name]; ok {
		return d
	}
	return EDONoFixedDay
}

// EDOWeeks 返回某人在整个周期内的轮休周数
func (p *EDOPlan) EDOWeeks(name string) int {
	count := 0
	for _, names := range p.Plan {
		if names[name] {
			count++
		}
	}
	return count
}

// WeekNames 返回某周轮休人员的有序姓名列表
func (p *EDOPlan) WeekNames(week int) []string {
	names := make([]string, 0, len(p.Plan[week]))
	for name := range p.Plan[week] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
