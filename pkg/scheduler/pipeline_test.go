package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler/edo"
)

func TestRunAttemptStandardTemplate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping pipeline test in short mode")
	}

	var people []model.Person
	for i := 1; i <= 16; i++ {
		people = append(people, model.Person{
			Name:            fmt.Sprintf("员工%d", i),
			WorkdaysPerWeek: 5,
			WeekendEligible: true,
			EDOFixedDay:     model.EDONoFixedDay,
		})
	}
	cfg := model.DefaultSolverConfig()
	cfg.Weeks = 1
	cfg.TimeBudget = 3 * time.Second
	cfg.Workers = 2
	cfg.Seed = 11

	res := RunAttempt(context.Background(), people, cfg)

	if !res.Solved() {
		t.Fatalf("Expected a solution for the standard template, got status %s", res.Status)
	}
	if res.Schedule == nil || res.Weekend == nil || res.Validation == nil {
		t.Fatal("Result must carry schedule, weekend and validation")
	}

	// 同一人每天至多一个班次
	type cell struct {
		week, day int
		person    string
	}
	seen := make(map[cell]int)
	for _, a := range res.Schedule.Assignments {
		for _, p := range a.People() {
			seen[cell{a.Week, a.Day, p}]++
		}
	}
	for c, n := range seen {
		if n > 1 {
			t.Errorf("%s has %d shifts on week %d day %d", c.person, n, c.week, c.day)
		}
	}
}

func TestRunAttemptHonorsMaxNights(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping pipeline test in short mode")
	}

	people := []model.Person{
		{Name: "张三", WorkdaysPerWeek: 5, MaxNights: 1, EDOFixedDay: model.EDONoFixedDay},
	}
	for i := 2; i <= 6; i++ {
		people = append(people, model.Person{
			Name:            fmt.Sprintf("员工%d", i),
			WorkdaysPerWeek: 5,
			EDOFixedDay:     model.EDONoFixedDay,
		})
	}
	cfg := model.DefaultSolverConfig()
	cfg.Weeks = 2
	cfg.Staffing = model.StaffingTemplate{DayPairs: 1, EveningSolos: 1, NightPairs: 1}
	cfg.TimeBudget = 3 * time.Second
	cfg.Workers = 2
	cfg.Seed = 23

	res := RunAttempt(context.Background(), people, cfg)

	if !res.Solved() {
		t.Fatalf("Expected a solution, got status %s", res.Status)
	}
	if n := res.Schedule.NightCount("张三"); n > 1 {
		t.Errorf("张三 has %d nights, limit is 1", n)
	}
}

func TestRunAttemptHonorsFixedEDODay(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping pipeline test in short mode")
	}

	people := []model.Person{
		{Name: "张三", WorkdaysPerWeek: 5, EDOEligible: true, EDOFixedDay: 2},
		{Name: "李四", WorkdaysPerWeek: 5, EDOEligible: true, EDOFixedDay: model.EDONoFixedDay},
		{Name: "王五", WorkdaysPerWeek: 5, EDOFixedDay: model.EDONoFixedDay},
		{Name: "赵六", WorkdaysPerWeek: 5, EDOFixedDay: model.EDONoFixedDay},
	}
	cfg := model.DefaultSolverConfig()
	cfg.Weeks = 2
	cfg.Staffing = model.StaffingTemplate{DayPairs: 1}
	cfg.TimeBudget = 3 * time.Second
	cfg.Workers = 2
	cfg.Seed = 31

	res := RunAttempt(context.Background(), people, cfg)

	if !res.Solved() {
		t.Fatalf("Expected a solution, got status %s", res.Status)
	}

	// 轮休分配稳定可复现，直接重算计划核对固定轮休日
	plan := edo.Allocate(people, cfg.Weeks)
	onEDO := 0
	for w := 0; w < cfg.Weeks; w++ {
		if !plan.OnEDO(w, "张三") {
			continue
		}
		onEDO++
		if _, worked := res.Schedule.PeopleOn(w, 2)["张三"]; worked {
			t.Errorf("张三 is scheduled on the fixed rest day in week %d", w)
		}
	}
	if onEDO == 0 {
		t.Fatal("张三 should be granted at least one rest week")
	}
}
