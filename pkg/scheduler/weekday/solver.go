package weekday

import (
	"context"
	"sort"

	"github.com/lunban/lunban/pkg/cpmodel"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
)

// Result 工作日求解结果
type Result struct {
	Schedule *model.Schedule
	// FridayNights 每周的周五夜班人员，周末求解器据此屏蔽周六白班
	FridayNights map[int]map[string]bool
}

// Solve 构建并求解工作日排班
//
// 空人员表直接判无解。覆盖缺口体现为部分配对或缺槽，
// 由目标权重压制，不会导致硬性无解。
func Solve(ctx context.Context, people []model.Person, cfg model.SolverConfig, plan *model.EDOPlan, staffing []*model.WeekStaffing) *Result {
	cfg = cfg.Normalize()

	if len(people) == 0 {
		logger.Warn().Msg("人员表为空，工作日排班判定无解")
		sched := model.NewSchedule(cfg.Weeks, model.StatusInfeasible)
		return &Result{Schedule: sched, FridayNights: make(map[int]map[string]bool)}
	}

	b := NewBuilder(people, cfg, plan, staffing)
	m := b.Build()

	logger.Info().
		Int("people", len(b.people)).
		Int("weeks", cfg.Weeks).
		Int("vars", m.NumVars()).
		Int("constraints", m.NumConstraints()).
		Msg("工作日约束模型构建完成")

	sol := m.Solve(ctx, cpmodel.Params{
		Deadline: cfg.TimeBudget,
		Workers:  cfg.Workers,
		Seed:     cfg.Seed,
	})

	sched := model.NewSchedule(cfg.Weeks, mapStatus(sol.Status))
	sched.Objective = sol.Objective
	sched.SolveTime = sol.WallTime

	fridayNights := make(map[int]map[string]bool)
	if sol.Status == cpmodel.Optimal || sol.Status == cpmodel.Feasible {
		sched.Assignments = b.reconstruct(sol)
		for w := 0; w < cfg.Weeks; w++ {
			fridayNights[w] = make(map[string]bool)
		}
		for _, a := range sched.Assignments {
			if a.Day == model.DaysPerWeek-1 && a.Shift == model.ShiftNight {
				for _, p := range a.People() {
					fridayNights[a.Week][p] = true
				}
			}
		}
		sched.Stats["unfilled_headcount"] = b.totalDeficit(sol)
	}

	logger.Info().
		Str("status", string(sched.Status)).
		Int64("objective", sched.Objective).
		Dur("solve_time", sched.SolveTime).
		Int("assignments", len(sched.Assignments)).
		Msg("工作日求解完成")

	return &Result{Schedule: sched, FridayNights: fridayNights}
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

// totalDeficit 合计全部覆盖缺口
func (b *Builder) totalDeficit(sol *cpmodel.Solution) int {
	total := 0
	for _, ref := range b.covers {
		total += sol.Deficit(ref)
	}
	return total
}

// reconstruct 从变量取值重建槽位分配
//
// 每个格子先收集被指派人员并按姓名排序，再确定性配对：
// 启用外包约束时先把每名外包与一名正式员工配对，剩余按序两两成对。
// 人数为奇时最后一个配对不完整，保留待校验器计缺。
func (b *Builder) reconstruct(sol *cpmodel.Solution) []model.PairAssignment {
	var out []model.PairAssignment
	contractor := make(map[string]bool, len(b.people))
	for _, p := range b.people {
		contractor[p.Name] = p.Contractor
	}

	for w := 0; w < b.cfg.Weeks; w++ {
		for d := 0; d < model.DaysPerWeek; d++ {
			for s := 0; s < numShifts; s++ {
				shift := shiftByIdx[s]
				var names []string
				for p := range b.people {
					if sol.Value(b.assign[p][w][d][s]) {
						names = append(names, b.people[p].Name)
					}
				}
				sort.Strings(names)

				if !shift.IsPair() {
					for slot, name := range names {
						out = append(out, model.PairAssignment{
							Week: w, Day: d, Shift: shift, Slot: slot, PersonA: name,
						})
					}
					continue
				}

				pairs := pairNames(names, contractor, b.cfg.ContractorPairing)
				for slot, pr := range pairs {
					out = append(out, model.PairAssignment{
						Week: w, Day: d, Shift: shift, Slot: slot,
						PersonA: pr[0], PersonB: pr[1],
					})
				}
			}
		}
	}
	return out
}

// pairNames 把已排序的人员名单切成配对
// pairContractors 为真时外包优先与正式员工同槽
func pairNames(names []string, contractor map[string]bool, pairContractors bool) [][2]string {
	var pairs [][2]string
	if pairContractors {
		var ctr, reg []string
		for _, n := range names {
			if contractor[n] {
				ctr = append(ctr, n)
			} else {
				reg = append(reg, n)
			}
		}
		// 每名外包搭一名正式员工
		for len(ctr) > 0 && len(reg) > 0 {
			pairs = append(pairs, [2]string{ctr[0], reg[0]})
			ctr, reg = ctr[1:], reg[1:]
		}
		names = append(ctr, reg...)
		sort.Strings(names)
	}
	for i := 0; i+1 < len(names); i += 2 {
		pairs = append(pairs, [2]string{names[i], names[i+1]})
	}
	if len(names)%2 == 1 {
		pairs = append(pairs, [2]string{names[len(names)-1], ""})
	}
	return pairs
}
