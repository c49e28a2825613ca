package weekday

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler/staffing"
)

func TestPairNamesEven(t *testing.T) {
	pairs := pairNames([]string{"张三", "李四", "王五", "赵六"}, map[string]bool{}, false)
	if len(pairs) != 2 {
		t.Fatalf("Expected 2 pairs, got %d", len(pairs))
	}
	for _, pr := range pairs {
		if pr[0] == "" || pr[1] == "" {
			t.Errorf("Even list should produce complete pairs, got %v", pr)
		}
	}
}

func TestPairNamesOdd(t *testing.T) {
	pairs := pairNames([]string{"张三", "李四", "王五"}, map[string]bool{}, false)
	if len(pairs) != 2 {
		t.Fatalf("Expected 2 pairs, got %d", len(pairs))
	}
	last := pairs[len(pairs)-1]
	if last[1] != "" {
		t.Errorf("Odd list should leave last pair incomplete, got %v", last)
	}
}

func TestPairNamesContractorPairing(t *testing.T) {
	contractor := map[string]bool{"张三": true, "李四": true}
	pairs := pairNames([]string{"张三", "李四", "王五", "赵六"}, contractor, true)
	if len(pairs) != 2 {
		t.Fatalf("Expected 2 pairs, got %d", len(pairs))
	}
	for _, pr := range pairs {
		if contractor[pr[0]] && contractor[pr[1]] {
			t.Errorf("Pair %v has two contractors", pr)
		}
	}
}

func TestPairNamesContractorSurplus(t *testing.T) {
	// 外包多于正式员工时剩余外包只能互相配对
	contractor := map[string]bool{"张三": true, "李四": true, "王五": true}
	pairs := pairNames([]string{"张三", "李四", "王五", "赵六"}, contractor, true)
	if len(pairs) != 2 {
		t.Fatalf("Expected 2 pairs, got %d", len(pairs))
	}
	mixed := 0
	for _, pr := range pairs {
		if contractor[pr[0]] != contractor[pr[1]] {
			mixed++
		}
	}
	if mixed != 1 {
		t.Errorf("Expected exactly 1 mixed pair, got %d", mixed)
	}
}

func TestSolveEmptyPeople(t *testing.T) {
	cfg := model.DefaultSolverConfig()
	cfg.Weeks = 1
	cfg.TimeBudget = time.Second

	res := Solve(context.Background(), nil, cfg, model.NewEDOPlan(), nil)

	if res.Schedule.Status != model.StatusInfeasible {
		t.Errorf("Empty people should be infeasible, got %s", res.Schedule.Status)
	}
	if len(res.Schedule.Assignments) != 0 {
		t.Errorf("Infeasible result should carry no assignments, got %d", len(res.Schedule.Assignments))
	}
}

func TestSolveSmallInstance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping solver test in short mode")
	}

	var people []model.Person
	for i := 1; i <= 8; i++ {
		people = append(people, model.Person{
			Name:            fmt.Sprintf("员工%d", i),
			WorkdaysPerWeek: 5,
		})
	}
	cfg := model.DefaultSolverConfig()
	cfg.Weeks = 1
	cfg.Staffing = model.StaffingTemplate{DayPairs: 1, EveningSolos: 1, NightPairs: 1}
	cfg.TimeBudget = 2 * time.Second
	cfg.Workers = 2
	cfg.Seed = 7
	cfg = cfg.Normalize()

	plan := model.NewEDOPlan()
	weeks := staffing.Derive(people, plan, cfg.Staffing, cfg.Weeks)

	res := Solve(context.Background(), people, cfg, plan, weeks)
	sched := res.Schedule

	if sched.Status != model.StatusOptimal && sched.Status != model.StatusFeasible {
		t.Fatalf("Expected a solution, got status %s", sched.Status)
	}

	// 模型硬性保证同一人每天至多一个班次
	type cell struct {
		week, day int
		person    string
	}
	seen := make(map[cell]int)
	for _, a := range sched.Assignments {
		for _, p := range a.People() {
			seen[cell{a.Week, a.Day, p}]++
		}
	}
	for c, n := range seen {
		if n > 1 {
			t.Errorf("%s has %d shifts on week %d day %d", c.person, n, c.week, c.day)
		}
	}

	// 周五夜班名单与排班一致
	for _, a := range sched.Assignments {
		if a.Day == model.DaysPerWeek-1 && a.Shift == model.ShiftNight {
			for _, p := range a.People() {
				if !res.FridayNights[a.Week][p] {
					t.Errorf("%s works Friday night but is missing from FridayNights", p)
				}
			}
		}
	}
	for w, names := range res.FridayNights {
		for p := range names {
			found := false
			for _, a := range sched.Assignments {
				if a.Week == w && a.Day == model.DaysPerWeek-1 && a.Shift == model.ShiftNight {
					for _, q := range a.People() {
						if q == p {
							found = true
						}
					}
				}
			}
			if !found {
				t.Errorf("FridayNights lists %s in week %d without a matching assignment", p, w)
			}
		}
	}
}
