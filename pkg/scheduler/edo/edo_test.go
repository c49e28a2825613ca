package edo

import (
	"testing"

	"github.com/lunban/lunban/pkg/model"
)

func TestAllocateAlternatesHalves(t *testing.T) {
	people := []model.Person{
		{Name: "丁一", WorkdaysPerWeek: 5, EDOEligible: true},
		{Name: "李四", WorkdaysPerWeek: 5, EDOEligible: true},
		{Name: "王五", WorkdaysPerWeek: 5, EDOEligible: true},
		{Name: "张三", WorkdaysPerWeek: 5, EDOEligible: true},
	}

	plan := Allocate(people, 4)

	// 字典序前半组（丁一、李四）奇数周轮休，后半组偶数周轮休
	for w := 0; w < 4; w++ {
		odd := (w+1)%2 == 1
		if plan.OnEDO(w, "丁一") != odd {
			t.Errorf("丁一 week %d: expected EDO=%v", w, odd)
		}
		if plan.OnEDO(w, "张三") == odd {
			t.Errorf("张三 week %d: expected EDO=%v", w, !odd)
		}
	}

	// 四周里每人恰好轮休两周
	for _, p := range people {
		if got := plan.EDOWeeks(p.Name); got != 2 {
			t.Errorf("%s: expected 2 EDO weeks, got %d", p.Name, got)
		}
	}
}

func TestAllocateSkipsIneligible(t *testing.T) {
	people := []model.Person{
		{Name: "张三", WorkdaysPerWeek: 5, EDOEligible: true},
		{Name: "李四", WorkdaysPerWeek: 5},
	}

	plan := Allocate(people, 2)
	if plan.EDOWeeks("李四") != 0 {
		t.Error("Ineligible person should never get EDO")
	}
	if plan.EDOWeeks("张三") == 0 {
		t.Error("Eligible person should get EDO weeks")
	}
}

func TestAllocateOddCohort(t *testing.T) {
	people := []model.Person{
		{Name: "张三", WorkdaysPerWeek: 5, EDOEligible: true},
		{Name: "李四", WorkdaysPerWeek: 5, EDOEligible: true},
		{Name: "王五", WorkdaysPerWeek: 5, EDOEligible: true},
	}

	plan := Allocate(people, 2)

	// 前半组向上取整：两人奇数周，一人偶数周
	if len(plan.WeekNames(0)) != 2 {
		t.Errorf("Week 0 should have 2 on EDO, got %v", plan.WeekNames(0))
	}
	if len(plan.WeekNames(1)) != 1 {
		t.Errorf("Week 1 should have 1 on EDO, got %v", plan.WeekNames(1))
	}
}

func TestAllocateRecordsFixedDays(t *testing.T) {
	people := []model.Person{
		{Name: "张三", WorkdaysPerWeek: 4, EDOEligible: true, EDOFixedDay: 2},
		{Name: "李四", WorkdaysPerWeek: 4, EDOEligible: true, EDOFixedDay: model.EDONoFixedDay},
	}

	plan := Allocate(people, 2)
	if plan.FixedDay("张三") != 2 {
		t.Errorf("Expected fixed day 2, got %d", plan.FixedDay("张三"))
	}
	if plan.FixedDay("李四") != model.EDONoFixedDay {
		t.Errorf("Expected no fixed day, got %d", plan.FixedDay("李四"))
	}
}

func TestAllocateSeparateCohorts(t *testing.T) {
	people := []model.Person{
		{Name: "张三", WorkdaysPerWeek: 5, EDOEligible: true},
		{Name: "李四", WorkdaysPerWeek: 4, EDOEligible: true},
	}

	plan := Allocate(people, 2)

	// 各自单人成组：都是前半组，同在奇数周轮休
	if !plan.OnEDO(0, "张三") || !plan.OnEDO(0, "李四") {
		t.Error("Single-member cohorts should both rest in odd weeks")
	}
	if plan.OnEDO(1, "张三") || plan.OnEDO(1, "李四") {
		t.Error("Single-member cohorts should not rest in even weeks")
	}
}
