package stats

import (
	"fmt"

	"github.com/lunban/lunban/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	RequiredHeads int     `json:"required_heads"` // 需求总人位
	AssignedHeads int     `json:"assigned_heads"` // 实际分配人位
	FillRate      float64 `json:"fill_rate"`      // 填充率 (%)

	// 按班种
	ShiftFillRate map[model.Shift]float64 `json:"shift_fill_rate"`

	// 按周
	WeeklyFillRate map[int]float64 `json:"weekly_fill_rate"`

	// 缺口清单，按周/天/班种定位
	Gaps []CoverageGap `json:"gaps,omitempty"`
}

// CoverageGap 单格的覆盖缺口
type CoverageGap struct {
	Week     int         `json:"week"`
	Day      int         `json:"day"`
	Shift    model.Shift `json:"shift"`
	Required int         `json:"required"`
	Assigned int         `json:"assigned"`
}

// String 返回缺口的可读描述
func (g CoverageGap) String() string {
	return fmt.Sprintf("第%d周 周%d %s：需 %d 人实 %d 人", g.Week+1, g.Day+1, g.Shift.Name(), g.Required, g.Assigned)
}

// AnalyzeCoverage 统计工作日排班的槽位填充情况
func AnalyzeCoverage(sched *model.Schedule, staffing []*model.WeekStaffing) *CoverageMetrics {
	metrics := &CoverageMetrics{
		ShiftFillRate:  make(map[model.Shift]float64),
		WeeklyFillRate: make(map[int]float64),
	}
	if sched == nil || len(staffing) == 0 {
		return metrics
	}

	shiftRequired := make(map[model.Shift]int)
	shiftAssigned := make(map[model.Shift]int)
	weekRequired := make(map[int]int)
	weekAssigned := make(map[int]int)

	for w := 0; w < sched.Weeks && w < len(staffing); w++ {
		for d := 0; d < model.DaysPerWeek; d++ {
			for _, shift := range model.WeekdayShifts {
				required := staffing[w].HeadCount(d, shift)
				assigned := 0
				for _, a := range sched.SlotsAt(w, d, shift) {
					assigned += len(a.People())
				}

				metrics.RequiredHeads += required
				metrics.AssignedHeads += assigned
				shiftRequired[shift] += required
				shiftAssigned[shift] += assigned
				weekRequired[w] += required
				weekAssigned[w] += assigned

				if assigned < required {
					metrics.Gaps = append(metrics.Gaps, CoverageGap{
						Week: w, Day: d, Shift: shift,
						Required: required, Assigned: assigned,
					})
				}
			}
		}
	}

	metrics.FillRate = rate(metrics.AssignedHeads, metrics.RequiredHeads)
	for _, shift := range model.WeekdayShifts {
		metrics.ShiftFillRate[shift] = rate(shiftAssigned[shift], shiftRequired[shift])
	}
	for w := range weekRequired {
		metrics.WeeklyFillRate[w] = rate(weekAssigned[w], weekRequired[w])
	}
	return metrics
}

func rate(assigned, required int) float64 {
	if required == 0 {
		return 100
	}
	r := float64(assigned) / float64(required) * 100
	if r > 100 {
		r = 100
	}
	return r
}
