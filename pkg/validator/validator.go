// Package validator 提供排班结果的独立校验
//
// 校验器不信任求解器：所有规则都从结果本身重新推导，
// 不读取求解过程的任何内部状态。工作日与周末结果合并到
// 同一条日历时间线上检查跨边界规则。
package validator

import (
	"fmt"
	"sort"

	"github.com/lunban/lunban/pkg/model"
)

// Checker 排班校验器
type Checker struct {
	cfg      model.SolverConfig
	people   []model.Person
	plan     *model.EDOPlan
	staffing []*model.WeekStaffing
}

// NewChecker 创建校验器
func NewChecker(people []model.Person, cfg model.SolverConfig, plan *model.EDOPlan, staffing []*model.WeekStaffing) *Checker {
	return &Checker{
		cfg:      cfg.Normalize(),
		people:   model.SortPeople(people),
		plan:     plan,
		staffing: staffing,
	}
}

// dayRecord 日历时间线上某人某天的出勤记录
type dayRecord struct {
	hours  int
	shifts []model.Shift
}

// timeline 人名 → 日历日 → 出勤记录
// 日历日 c = 周号×7 + 天号；工作日 0-4，周六 5，周日 6
type timeline map[string]map[int]*dayRecord

func (t timeline) record(name string, cal int, shift model.Shift, hours int) {
	if t[name] == nil {
		t[name] = make(map[int]*dayRecord)
	}
	rec := t[name][cal]
	if rec == nil {
		rec = &dayRecord{}
		t[name][cal] = rec
	}
	rec.hours += hours
	rec.shifts = append(rec.shifts, shift)
}

func (t timeline) has(name string, cal int) bool {
	return t[name] != nil && t[name][cal] != nil
}

func (t timeline) hasShift(name string, cal int, shift model.Shift) bool {
	if !t.has(name, cal) {
		return false
	}
	for _, s := range t[name][cal].shifts {
		if s == shift {
			return true
		}
	}
	return false
}

// Validate 对完整结果执行全部检查
func (c *Checker) Validate(sched *model.Schedule, weekend *model.WeekendResult) *model.ValidationResult {
	result := &model.ValidationResult{}

	tl := c.buildTimeline(sched, weekend)

	c.checkCoverage(sched, result)
	c.checkWeekendCoverage(weekend, result)
	c.checkDuplicates(tl, result)
	c.checkRestRules(tl, result)
	c.checkWeeklyTargets(sched, result)
	c.checkHorizonTargets(sched, result)
	c.checkRolling48h(tl, result)
	c.checkEDO(sched, result)
	c.checkMaxNights(sched, result)
	if c.cfg.ContractorPairing {
		c.checkContractorPairs(sched, result)
	}
	c.checkWeeklyHourCap(tl, result)

	return result
}

// buildTimeline 把工作日与周末分配摊平到日历时间线
func (c *Checker) buildTimeline(sched *model.Schedule, weekend *model.WeekendResult) timeline {
	tl := make(timeline)
	if sched != nil {
		for _, a := range sched.Assignments {
			cal := a.Week*model.CalendarDaysPerWeek + a.Day
			for _, p := range a.People() {
				tl.record(p, cal, a.Shift, a.Shift.Hours())
			}
		}
	}
	if weekend != nil {
		for _, a := range weekend.Assignments {
			cal := a.Week*model.CalendarDaysPerWeek + model.DaysPerWeek + a.Day
			tl.record(a.Person, cal, a.Shift, model.WeekendHours)
		}
	}
	return tl
}

// checkCoverage 逐格核对工作日人数，缺人计未满足槽位
func (c *Checker) checkCoverage(sched *model.Schedule, result *model.ValidationResult) {
	if sched == nil {
		return
	}
	for w := 0; w < c.cfg.Weeks; w++ {
		for d := 0; d < model.DaysPerWeek; d++ {
			for _, shift := range model.WeekdayShifts {
				required := c.staffing[w].HeadCount(d, shift)
				actual := 0
				for _, a := range sched.SlotsAt(w, d, shift) {
					actual += len(a.People())
					if !a.Complete() {
						result.Add(model.Violation{
							Rule:     model.RuleIncompletePair,
							Severity: model.SeverityCritical,
							Week:     w, Day: d,
							Person:  a.PersonA,
							Message: fmt.Sprintf("第%d周 周%d %s 槽位%d 配对不完整", w+1, d+1, shift.Name(), a.Slot),
						})
					}
				}
				if actual < required {
					missing := required - actual
					result.UnfilledSlots += missing
					result.Add(model.Violation{
						Rule:     model.RuleUnfilledSlot,
						Severity: model.SeverityCritical,
						Week:     w, Day: d,
						Message: fmt.Sprintf("第%d周 周%d %s 缺 %d 人", w+1, d+1, shift.Name(), missing),
					})
				}
			}
		}
	}
}

// checkWeekendCoverage 核对周末每格人数
func (c *Checker) checkWeekendCoverage(weekend *model.WeekendResult, result *model.ValidationResult) {
	if weekend == nil {
		return
	}
	slots := c.cfg.Staffing.WeekendSlots
	if slots == 0 {
		return
	}
	for w := 0; w < c.cfg.Weeks; w++ {
		for _, d := range []int{model.Saturday, model.Sunday} {
			for _, shift := range model.WeekendShifts {
				actual := 0
				for _, a := range weekend.Assignments {
					if a.Week == w && a.Day == d && a.Shift == shift {
						actual++
					}
				}
				if actual < slots {
					missing := slots - actual
					result.UnfilledSlots += missing
					result.Add(model.Violation{
						Rule:     model.RuleUnfilledSlot,
						Severity: model.SeverityCritical,
						Week:     w, Day: model.DaysPerWeek + d,
						Message: fmt.Sprintf("第%d周 周末第%d天 %s 缺 %d 人", w+1, d+1, shift.Name(), missing),
					})
				}
			}
		}
	}
}

// checkDuplicates 同一人同一天出现多次
func (c *Checker) checkDuplicates(tl timeline, result *model.ValidationResult) {
	for _, name := range sortedNames(tl) {
		days := tl[name]
		cals := sortedCals(days)
		for _, cal := range cals {
			if len(days[cal].shifts) > 1 {
				result.DuplicateSameDay++
				result.Add(model.Violation{
					Rule:     model.RuleDuplicateDay,
					Severity: model.SeverityCritical,
					Week:     cal / model.CalendarDaysPerWeek,
					Day:      cal % model.CalendarDaysPerWeek,
					Person:   name,
					Message:  fmt.Sprintf("%s 同日出现 %d 个班次", name, len(days[cal].shifts)),
				})
			}
		}
	}
}

// checkRestRules 夜班次日出勤、晚班次日接白班
func (c *Checker) checkRestRules(tl timeline, result *model.ValidationResult) {
	for _, name := range sortedNames(tl) {
		days := tl[name]
		for _, cal := range sortedCals(days) {
			if c.cfg.RestAfterNight && recHasNight(days[cal]) && tl.has(name, cal+1) {
				result.NightFollowedByWork++
				result.Add(model.Violation{
					Rule:     model.RuleNightThenWork,
					Severity: model.SeverityWarning,
					Week:     (cal + 1) / model.CalendarDaysPerWeek,
					Day:      (cal + 1) % model.CalendarDaysPerWeek,
					Person:   name,
					Message:  fmt.Sprintf("%s 夜班次日未休息", name),
				})
			}
			if recHasEvening(days[cal]) && tl.hasShift(name, cal+1, model.ShiftDay) {
				result.EveningThenDay++
				result.Add(model.Violation{
					Rule:     model.RuleEveningThenDay,
					Severity: model.SeverityWarning,
					Week:     (cal + 1) / model.CalendarDaysPerWeek,
					Day:      (cal + 1) % model.CalendarDaysPerWeek,
					Person:   name,
					Message:  fmt.Sprintf("%s 晚班次日接白班", name),
				})
			}
		}
	}
}

func recHasNight(rec *dayRecord) bool {
	for _, s := range rec.shifts {
		if s == model.ShiftNight {
			return true
		}
	}
	return false
}

func recHasEvening(rec *dayRecord) bool {
	for _, s := range rec.shifts {
		if s == model.ShiftEvening {
			return true
		}
	}
	return false
}

// checkWeeklyTargets 每周出勤天数与合同天数的偏差
func (c *Checker) checkWeeklyTargets(sched *model.Schedule, result *model.ValidationResult) {
	if sched == nil {
		return
	}
	for _, p := range c.people {
		for w := 0; w < c.cfg.Weeks; w++ {
			target := p.WorkdaysPerWeek
			if target > model.DaysPerWeek {
				target = model.DaysPerWeek
			}
			if c.plan != nil && c.plan.OnEDO(w, p.Name) {
				target--
			}
			worked := 0
			for d := 0; d < model.DaysPerWeek; d++ {
				if _, ok := sched.PeopleOn(w, d)[p.Name]; ok {
					worked++
				}
			}
			if worked != target {
				dev := worked - target
				if dev < 0 {
					dev = -dev
				}
				result.WeeklyDeviation += dev
				result.Add(model.Violation{
					Rule:     model.RuleWeeklyTarget,
					Severity: model.SeverityWarning,
					Week:     w,
					Person:   p.Name,
					Message:  fmt.Sprintf("%s 第%d周出勤 %d 天，目标 %d 天", p.Name, w+1, worked, target),
				})
			}
		}
	}
}

// checkHorizonTargets 周期出勤总天数与目标的偏差
func (c *Checker) checkHorizonTargets(sched *model.Schedule, result *model.ValidationResult) {
	if sched == nil {
		return
	}
	for _, p := range c.people {
		edoWeeks := 0
		if c.plan != nil {
			edoWeeks = c.plan.EDOWeeks(p.Name)
		}
		target := p.HorizonTarget(c.cfg.Weeks, edoWeeks)
		worked := sched.WorkedDays(p.Name)
		if worked != target {
			dev := worked - target
			if dev < 0 {
				dev = -dev
			}
			result.HorizonDeviation += dev
			result.Add(model.Violation{
				Rule:     model.RuleHorizonTarget,
				Severity: model.SeverityWarning,
				Person:   p.Name,
				Message:  fmt.Sprintf("%s 周期出勤 %d 天，目标 %d 天", p.Name, worked, target),
			})
		}
	}
}

// checkRolling48h 严格滚动窗口：任意连续 7 个日历日内工作日工时不超上限，
// 周末日按零工时计入窗口（周末负荷另由周末上限约束）
func (c *Checker) checkRolling48h(tl timeline, result *model.ValidationResult) {
	totalCal := c.cfg.Weeks * model.CalendarDaysPerWeek
	for _, name := range sortedNames(tl) {
		days := tl[name]
		for start := 0; start+model.CalendarDaysPerWeek <= totalCal; start++ {
			hours := 0
			for cal := start; cal < start+model.CalendarDaysPerWeek; cal++ {
				if cal%model.CalendarDaysPerWeek >= model.DaysPerWeek {
					continue
				}
				if rec, ok := days[cal]; ok {
					hours += rec.hours
				}
			}
			if hours > c.cfg.WeeklyHourCap {
				result.Rolling48hCount++
				result.Add(model.Violation{
					Rule:     model.RuleRolling48h,
					Severity: model.SeverityCritical,
					Week:     start / model.CalendarDaysPerWeek,
					Day:      start % model.CalendarDaysPerWeek,
					Person:   name,
					Message:  fmt.Sprintf("%s 自日历日 %d 起 7 日内工时 %d 小时，超过 %d 小时", name, start, hours, c.cfg.WeeklyHourCap),
				})
			}
		}
	}
}

// checkEDO 轮休周必须至少休一天，固定轮休日不得出勤
func (c *Checker) checkEDO(sched *model.Schedule, result *model.ValidationResult) {
	if sched == nil || c.plan == nil {
		return
	}
	for _, p := range c.people {
		for w := 0; w < c.cfg.Weeks; w++ {
			if !c.plan.OnEDO(w, p.Name) {
				continue
			}
			fixed := c.plan.FixedDay(p.Name)
			if fixed != model.EDONoFixedDay {
				if _, ok := sched.PeopleOn(w, fixed)[p.Name]; ok {
					result.Add(model.Violation{
						Rule:     model.RuleEDOConflict,
						Severity: model.SeverityCritical,
						Week:     w, Day: fixed,
						Person:  p.Name,
						Message: fmt.Sprintf("%s 固定轮休日（第%d周 周%d）被排班", p.Name, w+1, fixed+1),
					})
				}
				continue
			}
			worked := 0
			for d := 0; d < model.DaysPerWeek; d++ {
				if _, ok := sched.PeopleOn(w, d)[p.Name]; ok {
					worked++
				}
			}
			if worked >= model.DaysPerWeek {
				result.Add(model.Violation{
					Rule:     model.RuleEDOMissing,
					Severity: model.SeverityCritical,
					Week:     w,
					Person:   p.Name,
					Message:  fmt.Sprintf("%s 轮休周（第%d周）未获任何休息日", p.Name, w+1),
				})
			}
		}
	}
}

// checkMaxNights 工作日夜班总数不超过个人上限
func (c *Checker) checkMaxNights(sched *model.Schedule, result *model.ValidationResult) {
	if sched == nil {
		return
	}
	for _, p := range c.people {
		limit := p.NightLimit()
		if limit >= model.UnlimitedNights {
			continue
		}
		nights := sched.NightCount(p.Name)
		if nights > limit {
			result.Add(model.Violation{
				Rule:     model.RuleMaxNights,
				Severity: model.SeverityCritical,
				Person:   p.Name,
				Message:  fmt.Sprintf("%s 夜班 %d 个，超过上限 %d", p.Name, nights, limit),
			})
		}
	}
}

// checkContractorPairs 双人槽位不得由两名外包组成
func (c *Checker) checkContractorPairs(sched *model.Schedule, result *model.ValidationResult) {
	if sched == nil {
		return
	}
	contractor := make(map[string]bool, len(c.people))
	for _, p := range c.people {
		contractor[p.Name] = p.Contractor
	}
	for _, a := range sched.Assignments {
		if !a.Shift.IsPair() || !a.Complete() {
			continue
		}
		if contractor[a.PersonA] && contractor[a.PersonB] {
			result.Add(model.Violation{
				Rule:     model.RuleContractorPair,
				Severity: model.SeverityCritical,
				Week:     a.Week, Day: a.Day,
				Person:  a.PersonA,
				Message: fmt.Sprintf("第%d周 周%d %s 槽位%d 两名外包同槽", a.Week+1, a.Day+1, a.Shift.Name(), a.Slot),
			})
		}
	}
}

// checkWeeklyHourCap 工作日周工时不超上限
func (c *Checker) checkWeeklyHourCap(tl timeline, result *model.ValidationResult) {
	for _, name := range sortedNames(tl) {
		days := tl[name]
		for w := 0; w < c.cfg.Weeks; w++ {
			hours := 0
			for d := 0; d < model.DaysPerWeek; d++ {
				if rec, ok := days[w*model.CalendarDaysPerWeek+d]; ok {
					hours += rec.hours
				}
			}
			if hours > c.cfg.WeeklyHourCap {
				result.Add(model.Violation{
					Rule:     model.RuleWeeklyHourCap,
					Severity: model.SeverityCritical,
					Week:     w,
					Person:   name,
					Message:  fmt.Sprintf("%s 第%d周工作日工时 %d 小时，超过 %d 小时", name, w+1, hours, c.cfg.WeeklyHourCap),
				})
			}
		}
	}
}

func sortedNames(tl timeline) []string {
	names := make([]string, 0, len(tl))
	for name := range tl {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedCals(days map[int]*dayRecord) []int {
	cals := make([]int, 0, len(days))
	for c := range days {
		cals = append(cals, c)
	}
	sort.Ints(cals)
	return cals
}
