package model

import "testing"

func TestCohortsByWorkdays(t *testing.T) {
	people := []Person{
		{Name: "张三", WorkdaysPerWeek: 5},
		{Name: "李四", WorkdaysPerWeek: 5},
		{Name: "王五", WorkdaysPerWeek: 4},
	}

	cohorts := Cohorts(people, FairnessWorkdays)
	if len(cohorts) != 2 {
		t.Fatalf("Expected 2 cohorts, got %d", len(cohorts))
	}
	if len(cohorts["wd5"]) != 2 {
		t.Errorf("Expected 2 people in wd5, got %d", len(cohorts["wd5"]))
	}
	if len(cohorts["wd4"]) != 1 {
		t.Errorf("Expected 1 person in wd4, got %d", len(cohorts["wd4"]))
	}
}

func TestCohortsByTeam(t *testing.T) {
	people := []Person{
		{Name: "张三", Team: "甲组"},
		{Name: "李四", Team: "乙组"},
		{Name: "王五"},
	}

	cohorts := Cohorts(people, FairnessTeam)
	if len(cohorts) != 3 {
		t.Fatalf("Expected 3 cohorts, got %d", len(cohorts))
	}
	// 无团队标签的人归入 default 组
	if len(cohorts["default"]) != 1 {
		t.Errorf("Expected 1 person in default, got %d", len(cohorts["default"]))
	}
}

func TestCohortsNone(t *testing.T) {
	people := []Person{{Name: "张三"}}
	cohorts := Cohorts(people, FairnessNone)
	if len(cohorts) != 0 {
		t.Errorf("None mode should give no cohorts, got %d", len(cohorts))
	}
}

func TestCohortKeysSorted(t *testing.T) {
	cohorts := map[string][]Person{
		"wd5": nil,
		"wd3": nil,
		"wd4": nil,
	}
	keys := CohortKeys(cohorts)
	if len(keys) != 3 || keys[0] != "wd3" || keys[2] != "wd5" {
		t.Errorf("Keys should be sorted, got %v", keys)
	}
}
