// Package staffing 将每日固定人力模板展开为逐周需求表
package staffing

import (
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
)

// Derive 按周展开人力需求
//
// 基础策略不按星期塑形：每周每天的槽位数都来自同一模板。
// 同时计算各周可用人日（每周工作天数之和减去轮休损耗），
// 需求超出可用时标记 Understaffed 并记录日志。求解照常进行，
// 缺口由亏缺变量吸收后在结果中上报。
func Derive(people []model.Person, plan *model.EDOPlan, tpl model.StaffingTemplate, weeks int) []*model.WeekStaffing {
	requiredPerDay := 0
	for _, s := range model.WeekdayShifts {
		requiredPerDay += tpl.HeadCount(s)
	}

	out := make([]*model.WeekStaffing, weeks)
	for w := 0; w < weeks; w++ {
		ws := &model.WeekStaffing{
			Week:     w,
			Required: make(map[int]map[model.Shift]int, model.DaysPerWeek),
		}
		for d := 0; d < model.DaysPerWeek; d++ {
			ws.Required[d] = map[model.Shift]int{
				model.ShiftDay:     tpl.DayPairs,
				model.ShiftEvening: tpl.EveningSolos,
				model.ShiftNight:   tpl.NightPairs,
			}
		}
		ws.RequiredPersonDays = requiredPerDay * model.DaysPerWeek

		// 可用人日 = Σ 每周工作天数 − 轮休人数
		for _, p := range people {
			avail := p.WorkdaysPerWeek
			if avail > model.DaysPerWeek {
				avail = model.DaysPerWeek
			}
			ws.TotalPersonDays += avail
			if plan != nil && plan.OnEDO(w, p.Name) {
				ws.TotalPersonDays--
			}
		}

		if ws.RequiredPersonDays > ws.TotalPersonDays {
			ws.Understaffed = true
			logger.Warn().
				Int("week", w).
				Int("required_person_days", ws.RequiredPersonDays).
				Int("total_person_days", ws.TotalPersonDays).
				Msg("本周人力不足，缺口将以未满足槽位形式上报")
		}

		out[w] = ws
	}
	return out
}
