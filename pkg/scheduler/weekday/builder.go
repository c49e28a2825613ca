// Package weekday 构建并求解工作日（周一至周五）的排班约束模型
package weekday

import (
	"fmt"
	"math"

	"github.com/lunban/lunban/pkg/cpmodel"
	"github.com/lunban/lunban/pkg/model"
)

// 班种下标，变量数组的第四维
const (
	idxDay = iota
	idxEvening
	idxNight
	numShifts
)

var shiftByIdx = [numShifts]model.Shift{model.ShiftDay, model.ShiftEvening, model.ShiftNight}

// Builder 约束模型构建器
// 一次构建对应一次求解；构建产物归该次求解独占，不做并发访问
type Builder struct {
	people   []model.Person // 姓名字典序
	cfg      model.SolverConfig
	plan     *model.EDOPlan
	staffing []*model.WeekStaffing

	m *cpmodel.Model
	// assign[p][w][d][shift]
	assign [][][][numShifts]cpmodel.BoolVar
	// coverKey → 覆盖句柄，重建时读取亏缺
	covers map[coverKey]int

	nightTargets   []int
	eveningTargets []int
}

type coverKey struct {
	week, day int
	shift     model.Shift
}

// NewBuilder 创建构建器，人员列表先按姓名排序以保证变量布局可复现
func NewBuilder(people []model.Person, cfg model.SolverConfig, plan *model.EDOPlan, staffing []*model.WeekStaffing) *Builder {
	return &Builder{
		people:   model.SortPeople(people),
		cfg:      cfg,
		plan:     plan,
		staffing: staffing,
		covers:   make(map[coverKey]int),
	}
}

// Build 创建决策变量并发布全部硬约束与软目标项
func (b *Builder) Build() *cpmodel.Model {
	b.m = cpmodel.New()
	b.createVars()
	b.postDailyExclusivity()
	b.postCoverage()
	if b.cfg.RestAfterNight {
		b.postRestAfterNight()
	}
	b.postNightCaps()
	b.postNightWindows()
	b.postEDO()
	b.postWeeklyHourCap()
	b.postRolling48h()
	b.postConsecutiveDays()
	if b.cfg.EnforceMaxDaysWeek {
		b.postMaxDaysPerWeek()
	}
	b.postHorizonCap()
	b.postNoEvening()
	if b.cfg.ContractorPairing {
		b.postContractorPairing()
	}
	b.postObjective()
	return b.m
}

// createVars 为每个 (人, 周, 天, 班种) 建一个布尔变量
func (b *Builder) createVars() {
	weeks := b.cfg.Weeks
	b.assign = make([][][][numShifts]cpmodel.BoolVar, len(b.people))
	for p := range b.people {
		b.assign[p] = make([][][numShifts]cpmodel.BoolVar, weeks)
		for w := 0; w < weeks; w++ {
			b.assign[p][w] = make([][numShifts]cpmodel.BoolVar, model.DaysPerWeek)
			for d := 0; d < model.DaysPerWeek; d++ {
				for s := 0; s < numShifts; s++ {
					name := fmt.Sprintf("a_%s_w%d_d%d_%s", b.people[p].Name, w, d, shiftByIdx[s])
					b.assign[p][w][d][s] = b.m.NewBool(name)
				}
			}
		}
	}
}

// dayVars 某人某天的全部班种变量（works 的线性展开：
// 当天至多一个班种时，works 等价于三个变量之和）
func (b *Builder) dayVars(p, w, d int) []cpmodel.BoolVar {
	vars := b.assign[p][w][d]
	return []cpmodel.BoolVar{vars[idxDay], vars[idxEvening], vars[idxNight]}
}

// allVars 某人整个周期的全部变量
func (b *Builder) allVars(p int) []cpmodel.BoolVar {
	var out []cpmodel.BoolVar
	for w := 0; w < b.cfg.Weeks; w++ {
		for d := 0; d < model.DaysPerWeek; d++ {
			out = append(out, b.dayVars(p, w, d)...)
		}
	}
	return out
}

// shiftVars 某人某班种的全周期变量
func (b *Builder) shiftVars(p, shiftIdx int) []cpmodel.BoolVar {
	var out []cpmodel.BoolVar
	for w := 0; w < b.cfg.Weeks; w++ {
		for d := 0; d < model.DaysPerWeek; d++ {
			out = append(out, b.assign[p][w][d][shiftIdx])
		}
	}
	return out
}

// postDailyExclusivity 每人每天至多一个班次
func (b *Builder) postDailyExclusivity() {
	for p := range b.people {
		for w := 0; w < b.cfg.Weeks; w++ {
			for d := 0; d < model.DaysPerWeek; d++ {
				b.m.AddAtMostOne(
					fmt.Sprintf("one_shift_%s_w%d_d%d", b.people[p].Name, w, d),
					b.dayVars(p, w, d)...)
			}
		}
	}
}

// postCoverage 覆盖约束：指派数 + 亏缺 = 需求人数
// 亏缺变量使人力不足时退化为未满足槽位而非硬性无解
func (b *Builder) postCoverage() {
	for w := 0; w < b.cfg.Weeks; w++ {
		ws := b.staffing[w]
		for d := 0; d < model.DaysPerWeek; d++ {
			for s := 0; s < numShifts; s++ {
				shift := shiftByIdx[s]
				required := ws.HeadCount(d, shift)
				vars := make([]cpmodel.BoolVar, len(b.people))
				for p := range b.people {
					vars[p] = b.assign[p][w][d][s]
				}
				ref := b.m.AddCoverage(
					fmt.Sprintf("cover_w%d_d%d_%s", w, d, shift), vars, required)
				b.covers[coverKey{week: w, day: d, shift: shift}] = ref
			}
		}
	}
}

// postRestAfterNight 夜班次日强制休息（同周内的次日；
// 周五夜班对周六的影响由周末求解器通过周五夜班名单处理）
func (b *Builder) postRestAfterNight() {
	for p := range b.people {
		for w := 0; w < b.cfg.Weeks; w++ {
			for d := 0; d < model.DaysPerWeek-1; d++ {
				night := b.assign[p][w][d][idxNight]
				terms := cpmodel.Sum(append([]cpmodel.BoolVar{night}, b.dayVars(p, w, d+1)...)...)
				b.m.AddLinearLE(
					fmt.Sprintf("rest_%s_w%d_d%d", b.people[p].Name, w, d), terms, 1)
			}
		}
	}
}

// postNightCaps 每人周期内夜班总数上限
func (b *Builder) postNightCaps() {
	for p := range b.people {
		limit := b.people[p].NightLimit()
		if limit >= model.UnlimitedNights {
			continue
		}
		b.m.AddLinearLE(
			fmt.Sprintf("max_nights_%s", b.people[p].Name),
			cpmodel.Sum(b.shiftVars(p, idxNight)...), limit)
	}
}

// calendarNightVars 按日历日下标收集夜班变量（周末无格子）
func (b *Builder) calendarNightVars(p int) map[int]cpmodel.BoolVar {
	out := make(map[int]cpmodel.BoolVar)
	for w := 0; w < b.cfg.Weeks; w++ {
		for d := 0; d < model.DaysPerWeek; d++ {
			out[w*model.CalendarDaysPerWeek+d] = b.assign[p][w][d][idxNight]
		}
	}
	return out
}

// postNightWindows 滑动窗口：任意 max+1 个连续日历日内夜班 ≤ max
func (b *Builder) postNightWindows() {
	maxSeq := b.cfg.MaxNightsSequence
	window := maxSeq + 1
	totalCal := b.cfg.Weeks * model.CalendarDaysPerWeek
	for p := range b.people {
		cal := b.calendarNightVars(p)
		for start := 0; start+window <= totalCal; start++ {
			var vars []cpmodel.BoolVar
			for c := start; c < start+window; c++ {
				if v, ok := cal[c]; ok {
					vars = append(vars, v)
				}
			}
			// 窗口内夜班格子不超限时约束恒真，跳过
			if len(vars) <= maxSeq {
				continue
			}
			b.m.AddLinearLE(
				fmt.Sprintf("night_win_%s_c%d", b.people[p].Name, start),
				cpmodel.Sum(vars...), maxSeq)
		}
	}
}

// postEDO 轮休约束：固定日强制休息，否则本周至少休一天
func (b *Builder) postEDO() {
	for p := range b.people {
		name := b.people[p].Name
		for w := 0; w < b.cfg.Weeks; w++ {
			if !b.plan.OnEDO(w, name) {
				continue
			}
			fixed := b.plan.FixedDay(name)
			if fixed != model.EDONoFixedDay {
				for s := 0; s < numShifts; s++ {
					b.m.AddForbid(
						fmt.Sprintf("edo_fixed_%s_w%d_d%d_%s", name, w, fixed, shiftByIdx[s]),
						b.assign[p][w][fixed][s])
				}
				continue
			}
			var weekVars []cpmodel.BoolVar
			for d := 0; d < model.DaysPerWeek; d++ {
				weekVars = append(weekVars, b.dayVars(p, w, d)...)
			}
			// 至少休一天 = 出勤天数 ≤ 4；每天至多一班使两者等价
			b.m.AddLinearLE(
				fmt.Sprintf("edo_free_%s_w%d", name, w),
				cpmodel.Sum(weekVars...), model.DaysPerWeek-1)
		}
	}
}

// postWeeklyHourCap 周工时上限（白 10h / 晚 10h / 夜 12h）
func (b *Builder) postWeeklyHourCap() {
	for p := range b.people {
		for w := 0; w < b.cfg.Weeks; w++ {
			var terms []cpmodel.Term
			for d := 0; d < model.DaysPerWeek; d++ {
				for s := 0; s < numShifts; s++ {
					terms = append(terms, cpmodel.Term{
						Var:  b.assign[p][w][d][s],
						Coef: shiftByIdx[s].Hours(),
					})
				}
			}
			b.m.AddLinearLE(
				fmt.Sprintf("week_hours_%s_w%d", b.people[p].Name, w),
				terms, b.cfg.WeeklyHourCap)
		}
	}
}

// postRolling48h 滚动 48 小时约束：以每个工作日为起点的 7 日窗口，
// 周末计 0 小时；跨周边界的窗口逐个显式构造
func (b *Builder) postRolling48h() {
	totalCal := b.cfg.Weeks * model.CalendarDaysPerWeek
	for p := range b.people {
		// 日历日 → 当天的 (变量, 工时)
		type cell struct {
			v     cpmodel.BoolVar
			hours int
		}
		cal := make(map[int][]cell)
		for w := 0; w < b.cfg.Weeks; w++ {
			for d := 0; d < model.DaysPerWeek; d++ {
				c := w*model.CalendarDaysPerWeek + d
				for s := 0; s < numShifts; s++ {
					cal[c] = append(cal[c], cell{
						v:     b.assign[p][w][d][s],
						hours: shiftByIdx[s].Hours(),
					})
				}
			}
		}
		for start := 0; start+model.CalendarDaysPerWeek <= totalCal; start++ {
			if start%model.CalendarDaysPerWeek >= model.DaysPerWeek {
				continue // 只取工作日为起点
			}
			var terms []cpmodel.Term
			for c := start; c < start+model.CalendarDaysPerWeek; c++ {
				for _, cl := range cal[c] {
					terms = append(terms, cpmodel.Term{Var: cl.v, Coef: cl.hours})
				}
			}
			b.m.AddLinearLE(
				fmt.Sprintf("rolling48_%s_c%d", b.people[p].Name, start),
				terms, b.cfg.WeeklyHourCap)
		}
	}
}

// postConsecutiveDays 连续出勤天数滑动窗口（周末视为休息日）
func (b *Builder) postConsecutiveDays() {
	maxDays := b.cfg.MaxConsecutiveDays
	window := maxDays + 1
	totalCal := b.cfg.Weeks * model.CalendarDaysPerWeek
	for p := range b.people {
		cal := make(map[int][]cpmodel.BoolVar)
		for w := 0; w < b.cfg.Weeks; w++ {
			for d := 0; d < model.DaysPerWeek; d++ {
				cal[w*model.CalendarDaysPerWeek+d] = b.dayVars(p, w, d)
			}
		}
		for start := 0; start+window <= totalCal; start++ {
			var vars []cpmodel.BoolVar
			days := 0
			for c := start; c < start+window; c++ {
				if cs, ok := cal[c]; ok {
					vars = append(vars, cs...)
					days++
				}
			}
			if days <= maxDays {
				continue
			}
			b.m.AddLinearLE(
				fmt.Sprintf("consec_%s_c%d", b.people[p].Name, start),
				cpmodel.Sum(vars...), maxDays)
		}
	}
}

// postMaxDaysPerWeek 每周出勤天数不超过合同天数
func (b *Builder) postMaxDaysPerWeek() {
	for p := range b.people {
		cap := b.people[p].WorkdaysPerWeek
		if cap >= model.DaysPerWeek {
			continue
		}
		for w := 0; w < b.cfg.Weeks; w++ {
			var weekVars []cpmodel.BoolVar
			for d := 0; d < model.DaysPerWeek; d++ {
				weekVars = append(weekVars, b.dayVars(p, w, d)...)
			}
			b.m.AddLinearLE(
				fmt.Sprintf("week_days_%s_w%d", b.people[p].Name, w),
				cpmodel.Sum(weekVars...), cap)
		}
	}
}

// postHorizonCap 周期出勤硬上限（超额为硬约束，欠额软罚）
func (b *Builder) postHorizonCap() {
	for p := range b.people {
		person := b.people[p]
		target := person.HorizonTarget(b.cfg.Weeks, b.plan.EDOWeeks(person.Name))
		b.m.AddLinearLE(
			fmt.Sprintf("horizon_%s", person.Name),
			cpmodel.Sum(b.allVars(p)...), target)
	}
}

// postNoEvening 不排晚班的人员晚班变量恒为假
func (b *Builder) postNoEvening() {
	for p := range b.people {
		if !b.people[p].NoEvening {
			continue
		}
		for w := 0; w < b.cfg.Weeks; w++ {
			for d := 0; d < model.DaysPerWeek; d++ {
				b.m.AddForbid(
					fmt.Sprintf("no_evening_%s_w%d_d%d", b.people[p].Name, w, d),
					b.assign[p][w][d][idxEvening])
			}
		}
	}
}

// postContractorPairing 双人槽位至多一名外包：
// 每格的外包指派数不超过对数，保证存在外包不同槽的配对方案，
// 重建阶段配合外包感知的确定性配对
func (b *Builder) postContractorPairing() {
	var contractorIdx []int
	for p := range b.people {
		if b.people[p].Contractor {
			contractorIdx = append(contractorIdx, p)
		}
	}
	if len(contractorIdx) < 2 {
		return
	}
	for w := 0; w < b.cfg.Weeks; w++ {
		ws := b.staffing[w]
		for d := 0; d < model.DaysPerWeek; d++ {
			for _, s := range []int{idxDay, idxNight} {
				shift := shiftByIdx[s]
				pairs := ws.SlotCount(d, shift)
				if pairs <= 0 || len(contractorIdx) <= pairs {
					continue
				}
				var vars []cpmodel.BoolVar
				for _, p := range contractorIdx {
					vars = append(vars, b.assign[p][w][d][s])
				}
				b.m.AddLinearLE(
					fmt.Sprintf("contractor_w%d_d%d_%s", w, d, shift),
					cpmodel.Sum(vars...), pairs)
			}
		}
	}
}

// totalHeadCount 周期内某班种的总人位数
func (b *Builder) totalHeadCount(shift model.Shift) int {
	total := 0
	for w := 0; w < b.cfg.Weeks; w++ {
		for d := 0; d < model.DaysPerWeek; d++ {
			total += b.staffing[w].HeadCount(d, shift)
		}
	}
	return total
}

// proportionalTargets 按合同天数占比分摊总人位数
// 目标 = round(份额 × 总量)；eligible 为 nil 时全员参与
func (b *Builder) proportionalTargets(total int, eligible func(model.Person) bool) []int {
	sumShare := 0
	for _, p := range b.people {
		if eligible == nil || eligible(p) {
			sumShare += p.WorkdaysPerWeek
		}
	}
	targets := make([]int, len(b.people))
	if sumShare == 0 {
		return targets
	}
	for i, p := range b.people {
		if eligible != nil && !eligible(p) {
			continue
		}
		share := float64(p.WorkdaysPerWeek) / float64(sumShare)
		targets[i] = int(math.Round(share * float64(total)))
	}
	return targets
}

// postObjective 登记全部软目标项
func (b *Builder) postObjective() {
	weights := b.cfg.Objective
	b.m.SetDeficitWeight(int64(weights.Unfilled))

	// 夜班比例目标与组内极差
	b.nightTargets = b.proportionalTargets(b.totalHeadCount(model.ShiftNight), nil)
	for p := range b.people {
		b.m.AddObjAbsDeviation(int64(weights.NightTargetDev),
			cpmodel.Sum(b.shiftVars(p, idxNight)...), b.nightTargets[p])
	}

	// 晚班镜像：不排晚班者既不进目标也不进极差成员
	canEvening := func(p model.Person) bool { return !p.NoEvening }
	b.eveningTargets = b.proportionalTargets(b.totalHeadCount(model.ShiftEvening), canEvening)
	for p := range b.people {
		if b.people[p].NoEvening {
			continue
		}
		b.m.AddObjAbsDeviation(int64(weights.EveningTargetDev),
			cpmodel.Sum(b.shiftVars(p, idxEvening)...), b.eveningTargets[p])
	}

	// 组内极差
	cohorts := model.Cohorts(b.people, b.cfg.Fairness)
	nameIdx := make(map[string]int, len(b.people))
	for i, p := range b.people {
		nameIdx[p.Name] = i
	}
	for _, key := range model.CohortKeys(cohorts) {
		members := cohorts[key]
		if len(members) < 2 {
			continue
		}
		var nightSums [][]cpmodel.Term
		var eveningSums [][]cpmodel.Term
		for _, m := range members {
			p := nameIdx[m.Name]
			nightSums = append(nightSums, cpmodel.Sum(b.shiftVars(p, idxNight)...))
			if !m.NoEvening {
				eveningSums = append(eveningSums, cpmodel.Sum(b.shiftVars(p, idxEvening)...))
			}
		}
		b.m.AddObjSpread(int64(weights.NightSpread), nightSums, nil)
		b.m.AddObjSpread(int64(weights.EveningSpread), eveningSums, nil)
	}

	// 出勤目标欠额（超额已是硬约束）
	for p := range b.people {
		person := b.people[p]
		target := person.HorizonTarget(b.cfg.Weeks, b.plan.EDOWeeks(person.Name))
		b.m.AddObjShortfall(int64(weights.Undershoot),
			cpmodel.Sum(b.allVars(p)...), target)
	}

	// 晚班次日接白班（clopening）
	for p := range b.people {
		for w := 0; w < b.cfg.Weeks; w++ {
			for d := 0; d < model.DaysPerWeek-1; d++ {
				b.m.AddObjBothPositive(int64(weights.Clopening),
					cpmodel.Sum(b.assign[p][w][d][idxEvening]),
					cpmodel.Sum(b.assign[p][w][d+1][idxDay]))
			}
		}
	}

	// 不偏好夜班者的每个夜班给极小罚分，
	// 使同等偏差下夜班优先落在自愿者身上
	for p := range b.people {
		if b.people[p].PrefersNight {
			continue
		}
		b.m.AddObjLinear(1, cpmodel.Sum(b.shiftVars(p, idxNight)...))
	}
}
