package staffing

import (
	"testing"

	"github.com/lunban/lunban/pkg/model"
)

func defaultTemplate() model.StaffingTemplate {
	return model.StaffingTemplate{DayPairs: 4, EveningSolos: 1, NightPairs: 1}
}

func TestDeriveUniformWeeks(t *testing.T) {
	people := []model.Person{
		{Name: "张三", WorkdaysPerWeek: 5},
		{Name: "李四", WorkdaysPerWeek: 5},
	}

	weeks := Derive(people, model.NewEDOPlan(), defaultTemplate(), 2)
	if len(weeks) != 2 {
		t.Fatalf("Expected 2 weeks, got %d", len(weeks))
	}

	for _, ws := range weeks {
		for d := 0; d < model.DaysPerWeek; d++ {
			if ws.SlotCount(d, model.ShiftDay) != 4 {
				t.Errorf("Week %d day %d: expected 4 day pairs", ws.Week, d)
			}
			if ws.HeadCount(d, model.ShiftDay) != 8 {
				t.Errorf("Week %d day %d: expected 8 day heads", ws.Week, d)
			}
			if ws.HeadCount(d, model.ShiftEvening) != 1 {
				t.Errorf("Week %d day %d: expected 1 evening head", ws.Week, d)
			}
			if ws.HeadCount(d, model.ShiftNight) != 2 {
				t.Errorf("Week %d day %d: expected 2 night heads", ws.Week, d)
			}
		}
		// 每天 8+1+2=11 人位，一周 55
		if ws.RequiredPersonDays != 55 {
			t.Errorf("Week %d: expected 55 required person-days, got %d", ws.Week, ws.RequiredPersonDays)
		}
	}
}

func TestDeriveUnderstaffed(t *testing.T) {
	people := []model.Person{
		{Name: "张三", WorkdaysPerWeek: 5},
	}

	weeks := Derive(people, model.NewEDOPlan(), defaultTemplate(), 1)
	if !weeks[0].Understaffed {
		t.Error("1 person against 55 person-days should be understaffed")
	}
	if weeks[0].TotalPersonDays != 5 {
		t.Errorf("Expected 5 available person-days, got %d", weeks[0].TotalPersonDays)
	}
}

func TestDeriveEDOReducesAvailability(t *testing.T) {
	people := []model.Person{
		{Name: "张三", WorkdaysPerWeek: 5},
		{Name: "李四", WorkdaysPerWeek: 4},
	}
	plan := model.NewEDOPlan()
	plan.Grant(0, "张三")

	weeks := Derive(people, plan, defaultTemplate(), 2)

	// 第 0 周张三轮休：5+4-1=8；第 1 周无轮休：9
	if weeks[0].TotalPersonDays != 8 {
		t.Errorf("Week 0: expected 8 person-days, got %d", weeks[0].TotalPersonDays)
	}
	if weeks[1].TotalPersonDays != 9 {
		t.Errorf("Week 1: expected 9 person-days, got %d", weeks[1].TotalPersonDays)
	}
}

func TestDeriveCapsWorkdaysAtFive(t *testing.T) {
	people := []model.Person{
		{Name: "张三", WorkdaysPerWeek: 7},
	}

	weeks := Derive(people, model.NewEDOPlan(), defaultTemplate(), 1)
	// 工作日模型只有 5 天，7 天合同按 5 计
	if weeks[0].TotalPersonDays != 5 {
		t.Errorf("Expected availability capped at 5, got %d", weeks[0].TotalPersonDays)
	}
}
