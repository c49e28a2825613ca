// Package weekend 逐周末求解周六周日的值班分配
//
// 每个周末是一个独立的小模型，按周序依次求解：
// 后一个周末的模型读取此前各周末的累计结果（月度上限过滤、
// 连续周末罚分、公平性常量偏移），因此必须顺序执行。
package weekend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/lunban/lunban/pkg/cpmodel"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
)

var weekendDays = []int{model.Saturday, model.Sunday}

// 周末班种在变量数组第三维中的下标
const (
	idxDay = iota
	idxNight
)

// Solve 求解整个周期的周末值班
//
// fridayNights 为各周的周五夜班人员名单，这些人当周周六不排白班。
// 人力（按每人每周末至多两班计）不足以填满某周末的全部槽位时，
// 该周末判无解；整体状态取各周末中最恶劣者。
func Solve(ctx context.Context, people []model.Person, cfg model.SolverConfig, fridayNights map[int]map[string]bool) *model.WeekendResult {
	cfg = cfg.Normalize()
	result := model.NewWeekendResult(cfg.Weeks)

	var eligible []model.Person
	for _, p := range model.SortPeople(people) {
		if p.WeekendEligible {
			eligible = append(eligible, p)
		}
	}

	slots := cfg.Staffing.WeekendSlots
	requiredPerWeekend := slots * len(weekendDays) * len(model.WeekendShifts)

	if requiredPerWeekend == 0 {
		logger.Info().Msg("周末模板为空，跳过周末求解")
		return result
	}
	if len(eligible) == 0 {
		logger.Warn().Msg("无周末可排人员，周末排班判定无解")
		result.Status = model.StatusInfeasible
		return result
	}

	// 各人累计周末班次数与出勤周末数，逐周末更新
	shiftCounts := make(map[string]int, len(eligible))
	weekendCount := make(map[string]int, len(eligible))
	prevWorked := make(map[string]bool, len(eligible))

	// 比例目标：按每周工作天数份额分摊周期内全部周末人位
	targets := proportionalTargets(eligible, requiredPerWeekend*cfg.Weeks)

	unfilled := 0
	for w := 0; w < cfg.Weeks; w++ {
		avail := availableFor(eligible, weekendCount, cfg.Weeks)

		// 容量预检：每人每周末至多两班
		if len(avail)*2 < requiredPerWeekend {
			logger.Warn().
				Int("week", w).
				Int("available", len(avail)).
				Int("required_slots", requiredPerWeekend).
				Msg("周末人力不足以填满全部槽位，该周末判无解")
			result.Status = model.WorstStatus(result.Status, model.StatusInfeasible)
			prevWorked = make(map[string]bool)
			continue
		}

		one := solveOne(ctx, w, avail, cfg, fridayNights[w], shiftCounts, prevWorked, targets)

		result.Status = model.WorstStatus(result.Status, one.status)
		result.Objective += one.objective
		result.SolveTime += one.wallTime
		unfilled += one.unfilled

		prevWorked = make(map[string]bool)
		for _, a := range one.assigns {
			result.Assignments = append(result.Assignments, a)
			shiftCounts[a.Person]++
			prevWorked[a.Person] = true
		}
		for name := range prevWorked {
			weekendCount[name]++
		}
	}

	result.Stats["eligible"] = len(eligible)
	result.Stats["required_per_weekend"] = requiredPerWeekend
	result.Stats["unfilled_headcount"] = unfilled

	logger.Info().
		Str("status", string(result.Status)).
		Int64("objective", result.Objective).
		Int("assignments", len(result.Assignments)).
		Msg("周末求解完成")

	return result
}

// availableFor 过滤掉已达周期周末上限的人员
func availableFor(eligible []model.Person, weekendCount map[string]int, weeks int) []model.Person {
	var out []model.Person
	for _, p := range eligible {
		limit := horizonWeekendCap(p.WeekendCap, weeks)
		if limit > 0 && weekendCount[p.Name] >= limit {
			continue
		}
		out = append(out, p)
	}
	return out
}

// horizonWeekendCap 把月度（每 4 周）周末上限折算到整个周期，
// 不足 4 周的尾块按完整块计
func horizonWeekendCap(monthlyCap, weeks int) int {
	if monthlyCap <= 0 {
		return 0
	}
	blocks := (weeks + 3) / 4
	if blocks < 1 {
		blocks = 1
	}
	return monthlyCap * blocks
}

// proportionalTargets 周末人位的比例目标，按合同天数份额取整
func proportionalTargets(eligible []model.Person, total int) map[string]int {
	sumShare := 0
	for _, p := range eligible {
		sumShare += p.WorkdaysPerWeek
	}
	targets := make(map[string]int, len(eligible))
	if sumShare == 0 {
		return targets
	}
	for _, p := range eligible {
		share := float64(p.WorkdaysPerWeek) / float64(sumShare)
		targets[p.Name] = int(math.Round(share * float64(total)))
	}
	return targets
}

// weekendOutcome 单个周末的求解产物
type weekendOutcome struct {
	status    model.SolveStatus
	objective int64
	wallTime  time.Duration
	unfilled  int
	assigns   []model.WeekendAssignment
}

// solveOne 构建并求解单个周末的模型
func solveOne(ctx context.Context, week int, avail []model.Person, cfg model.SolverConfig,
	fridayNight map[string]bool, shiftCounts map[string]int, prevWorked map[string]bool,
	targets map[string]int) *weekendOutcome {

	m := cpmodel.New()
	slots := cfg.Staffing.WeekendSlots
	weights := cfg.Objective

	// vars[p][day][shift]
	vars := make([][][2]cpmodel.BoolVar, len(avail))
	for p, person := range avail {
		vars[p] = make([][2]cpmodel.BoolVar, len(weekendDays))
		for _, d := range weekendDays {
			for s, shift := range model.WeekendShifts {
				vars[p][d][s] = m.NewBool(fmt.Sprintf("wk_%s_w%d_d%d_%s", person.Name, week, d, shift))
			}
		}
	}

	// 覆盖：每天每班 slots 人，缺口走亏缺变量
	var covers []int
	for _, d := range weekendDays {
		for s, shift := range model.WeekendShifts {
			cellVars := make([]cpmodel.BoolVar, len(avail))
			for p := range avail {
				cellVars[p] = vars[p][d][s]
			}
			covers = append(covers,
				m.AddCoverage(fmt.Sprintf("cover_w%d_d%d_%s", week, d, shift), cellVars, slots))
		}
	}

	for p, person := range avail {
		// 每天至多一班
		for _, d := range weekendDays {
			m.AddAtMostOne(fmt.Sprintf("one_%s_w%d_d%d", person.Name, week, d),
				vars[p][d][idxDay], vars[p][d][idxNight])
		}
		if cfg.RestAfterNight {
			// 周五夜班次日不排周六白班
			if fridayNight[person.Name] {
				m.AddForbid(fmt.Sprintf("fri_night_%s_w%d", person.Name, week),
					vars[p][model.Saturday][idxDay])
			}
			// 周六夜班后周日不排白班
			m.AddImplicationOff(fmt.Sprintf("sat_night_%s_w%d", person.Name, week),
				vars[p][model.Saturday][idxNight], vars[p][model.Sunday][idxDay])
		}
		// 可选：禁止同一周末连排两个夜班
		if cfg.NoDoubleNightWknd {
			m.AddImplicationOff(fmt.Sprintf("double_night_%s_w%d", person.Name, week),
				vars[p][model.Saturday][idxNight], vars[p][model.Sunday][idxNight])
		}
	}

	m.SetDeficitWeight(int64(weights.Unfilled))

	// 偏差与极差都按 既有累计 + 本周末增量 计算，
	// 累计部分以常量偏移进入极差项
	var members [][]cpmodel.Term
	var offsets []int
	for p, person := range avail {
		all := []cpmodel.BoolVar{
			vars[p][model.Saturday][idxDay], vars[p][model.Saturday][idxNight],
			vars[p][model.Sunday][idxDay], vars[p][model.Sunday][idxNight],
		}
		prior := shiftCounts[person.Name]
		due := scaledTarget(targets[person.Name], week, cfg.Weeks) - prior
		if due < 0 {
			due = 0
		}
		m.AddObjAbsDeviation(int64(weights.WeekendTargetDev), cpmodel.Sum(all...), due)
		members = append(members, cpmodel.Sum(all...))
		offsets = append(offsets, prior)

		// 上个周末出过勤则本周末再出勤计连续周末罚分
		if prevWorked[person.Name] {
			m.AddObjPositive(int64(weights.ConsecWeekend), cpmodel.Sum(all...))
		}
	}
	m.AddObjSpread(int64(weights.WeekendSpread), members, offsets)

	sol := m.Solve(ctx, cpmodel.Params{
		Deadline: perWeekendBudget(cfg),
		Workers:  cfg.Workers,
		Seed:     cfg.Seed + int64(week)*7919,
	})

	out := &weekendOutcome{
		status:    mapStatus(sol.Status),
		objective: sol.Objective,
		wallTime:  sol.WallTime,
	}
	if sol.Status == cpmodel.Optimal || sol.Status == cpmodel.Feasible {
		out.assigns = reconstructWeekend(week, avail, vars, sol)
		for _, ref := range covers {
			out.unfilled += sol.Deficit(ref)
		}
	}
	return out
}

// scaledTarget 截至第 week+1 个周末的累进目标
func scaledTarget(total, week, weeks int) int {
	if weeks == 0 {
		return 0
	}
	return int(math.Round(float64(total) * float64(week+1) / float64(weeks)))
}

// perWeekendBudget 周末模型远小于工作日模型，预算按比例缩减
func perWeekendBudget(cfg model.SolverConfig) time.Duration {
	budget := cfg.TimeBudget / 10
	if budget < 100*time.Millisecond {
		budget = 100 * time.Millisecond
	}
	return budget
}

// reconstructWeekend 从变量取值重建周末分配，槽位按姓名序编号
func reconstructWeekend(week int, avail []model.Person, vars [][][2]cpmodel.BoolVar, sol *cpmodel.Solution) []model.WeekendAssignment {
	var out []model.WeekendAssignment
	for _, d := range weekendDays {
		for s, shift := range model.WeekendShifts {
			var names []string
			for p := range avail {
				if sol.Value(vars[p][d][s]) {
					names = append(names, avail[p].Name)
				}
			}
			sort.Strings(names)
			for slot, name := range names {
				out = append(out, model.WeekendAssignment{
					Week: week, Day: d, Shift: shift, Slot: slot, Person: name,
				})
			}
		}
	}
	return out
}

func mapStatus(s cpmodel.Status) model.SolveStatus {
	switch s {
	case cpmodel.Optimal:
		return model.StatusOptimal
	case cpmodel.Feasible:
		return model.StatusFeasible
	case cpmodel.Infeasible:
		return model.StatusInfeasible
	default:
		return model.StatusUnknown
	}
}
