package stats

import (
	"math"
	"testing"

	"github.com/lunban/lunban/pkg/model"
)

func TestFairnessCalculatorBalanced(t *testing.T) {
	people := []model.Person{
		{Name: "张三", WorkdaysPerWeek: 5},
		{Name: "李四", WorkdaysPerWeek: 5},
	}
	sched := model.NewSchedule(1, model.StatusOptimal)
	sched.Assignments = []model.PairAssignment{
		{Week: 0, Day: 0, Shift: model.ShiftNight, PersonA: "张三", PersonB: "李四"},
		{Week: 0, Day: 2, Shift: model.ShiftNight, PersonA: "张三", PersonB: "李四"},
	}

	metrics := NewFairnessCalculator(model.FairnessWorkdays).Calculate(people, sched)

	// 两人夜班数相同，标准差为零
	if metrics.NightStdSum != 0 {
		t.Errorf("Balanced nights should give zero stddev, got %f", metrics.NightStdSum)
	}
}

func TestFairnessCalculatorImbalanced(t *testing.T) {
	people := []model.Person{
		{Name: "张三", WorkdaysPerWeek: 5},
		{Name: "李四", WorkdaysPerWeek: 5},
	}
	sched := model.NewSchedule(1, model.StatusOptimal)
	sched.Assignments = []model.PairAssignment{
		{Week: 0, Day: 0, Shift: model.ShiftNight, PersonA: "张三", PersonB: "王五"},
		{Week: 0, Day: 2, Shift: model.ShiftNight, PersonA: "张三", PersonB: "王五"},
	}

	metrics := NewFairnessCalculator(model.FairnessWorkdays).Calculate(people, sched)

	// 张三 2 个夜班，李四 0 个：总体标准差 1
	if math.Abs(metrics.NightStdSum-1) > 1e-9 {
		t.Errorf("Expected night stddev 1, got %f", metrics.NightStdSum)
	}
}

func TestFairnessExcludesNoEvening(t *testing.T) {
	people := []model.Person{
		{Name: "张三", WorkdaysPerWeek: 5},
		{Name: "李四", WorkdaysPerWeek: 5},
		{Name: "王五", WorkdaysPerWeek: 5, NoEvening: true},
	}
	sched := model.NewSchedule(1, model.StatusOptimal)
	sched.Assignments = []model.PairAssignment{
		{Week: 0, Day: 0, Shift: model.ShiftEvening, PersonA: "张三"},
		{Week: 0, Day: 1, Shift: model.ShiftEvening, PersonA: "李四"},
	}

	metrics := NewFairnessCalculator(model.FairnessWorkdays).Calculate(people, sched)

	// 王五不排晚班，不参与晚班离散度：张三李四各 1，标准差 0
	if metrics.EveningStdSum != 0 {
		t.Errorf("NoEvening person should be excluded, got stddev %f", metrics.EveningStdSum)
	}
}

func TestFairnessSeparateCohorts(t *testing.T) {
	people := []model.Person{
		{Name: "张三", WorkdaysPerWeek: 5},
		{Name: "李四", WorkdaysPerWeek: 4},
	}
	sched := model.NewSchedule(1, model.StatusOptimal)
	sched.Assignments = []model.PairAssignment{
		{Week: 0, Day: 0, Shift: model.ShiftNight, PersonA: "张三", PersonB: "王五"},
	}

	metrics := NewFairnessCalculator(model.FairnessWorkdays).Calculate(people, sched)

	// 单人分组恒为零：不同合同天数的人不互相比较
	if metrics.NightStdSum != 0 {
		t.Errorf("Single-member cohorts should give zero, got %f", metrics.NightStdSum)
	}
	if len(metrics.NightStdDev) != 2 {
		t.Errorf("Expected 2 cohorts, got %d", len(metrics.NightStdDev))
	}
}

func TestFairnessNilSchedule(t *testing.T) {
	metrics := NewFairnessCalculator(model.FairnessWorkdays).Calculate(nil, nil)
	if metrics == nil {
		t.Fatal("Metrics should not be nil")
	}
	if metrics.NightStdSum != 0 || metrics.EveningStdSum != 0 {
		t.Error("Nil schedule should give zero sums")
	}
}
