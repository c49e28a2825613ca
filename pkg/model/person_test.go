package model

import "testing"

func TestPersonNightLimit(t *testing.T) {
	p := Person{Name: "张三"}
	if p.NightLimit() != UnlimitedNights {
		t.Errorf("Zero max nights should mean unlimited, got %d", p.NightLimit())
	}

	p.MaxNights = 3
	if p.NightLimit() != 3 {
		t.Errorf("Expected night limit 3, got %d", p.NightLimit())
	}
}

func TestPersonHasFixedEDO(t *testing.T) {
	p := Person{Name: "李四", EDOFixedDay: EDONoFixedDay}
	if p.HasFixedEDO() {
		t.Error("EDONoFixedDay should not count as fixed")
	}

	p.EDOFixedDay = 2
	if !p.HasFixedEDO() {
		t.Error("Day 2 should count as fixed")
	}

	p.EDOFixedDay = 5
	if p.HasFixedEDO() {
		t.Error("Day 5 is outside the weekday range")
	}
}

func TestPersonHorizonTarget(t *testing.T) {
	p := Person{Name: "王五", WorkdaysPerWeek: 5}
	if got := p.HorizonTarget(4, 2); got != 18 {
		t.Errorf("5x4-2 should be 18, got %d", got)
	}
	if got := p.HorizonTarget(0, 3); got != 0 {
		t.Errorf("Negative target should clamp to zero, got %d", got)
	}
}

func TestSortPeople(t *testing.T) {
	people := []Person{
		{Name: "王五"},
		{Name: "李四"},
		{Name: "张三"},
	}
	sorted := SortPeople(people)

	if sorted[0].Name > sorted[1].Name || sorted[1].Name > sorted[2].Name {
		t.Errorf("People not sorted by name: %v", PersonNames(sorted))
	}
	// 原切片不受影响
	if people[0].Name != "王五" {
		t.Error("SortPeople should not modify the input slice")
	}
}
