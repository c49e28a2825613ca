package model

import (
	"math"
	"testing"
)

func TestValidationResultClean(t *testing.T) {
	r := &ValidationResult{}
	if !r.Clean() {
		t.Error("Empty result should be clean")
	}

	r.UnfilledSlots = 1
	if r.Clean() {
		t.Error("Result with unfilled slots should not be clean")
	}

	r2 := &ValidationResult{}
	r2.Add(Violation{Rule: RuleNightThenWork, Severity: SeverityWarning})
	if r2.Clean() {
		t.Error("Result with violations should not be clean")
	}
}

func TestValidationResultCriticalCount(t *testing.T) {
	r := &ValidationResult{}
	r.Add(Violation{Rule: RuleUnfilledSlot, Severity: SeverityCritical})
	r.Add(Violation{Rule: RuleWeeklyTarget, Severity: SeverityWarning})
	r.Add(Violation{Rule: RuleRolling48h, Severity: SeverityCritical})

	if got := r.CriticalCount(); got != 2 {
		t.Errorf("Expected 2 critical violations, got %d", got)
	}

	summary := r.Summary()
	if summary["violation_count"] != 3 {
		t.Errorf("Expected violation_count 3, got %v", summary["violation_count"])
	}
	if summary["critical_count"] != 2 {
		t.Errorf("Expected critical_count 2, got %v", summary["critical_count"])
	}
}

func TestPopulationStdDev(t *testing.T) {
	if got := PopulationStdDev(nil); got != 0 {
		t.Errorf("Empty input should give 0, got %f", got)
	}
	if got := PopulationStdDev([]float64{5}); got != 0 {
		t.Errorf("Single value should give 0, got %f", got)
	}
	if got := PopulationStdDev([]float64{3, 3, 3}); got != 0 {
		t.Errorf("Equal values should give 0, got %f", got)
	}

	// 总体标准差：[2,4] 的均值 3，标准差 1
	if got := PopulationStdDev([]float64{2, 4}); math.Abs(got-1) > 1e-9 {
		t.Errorf("Expected stddev 1, got %f", got)
	}
}
