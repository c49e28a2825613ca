package repository

import (
	"testing"

	"github.com/google/uuid"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler"
)

func TestFromAttempt(t *testing.T) {
	best := &scheduler.AttemptResult{
		Seed:       42,
		Status:     model.StatusFeasible,
		Score:      17.5,
		Schedule:   model.NewSchedule(4, model.StatusFeasible),
		Weekend:    model.NewWeekendResult(4),
		Validation: &model.ValidationResult{UnfilledSlots: 2},
		Fairness:   &model.FairnessMetrics{},
	}

	trial := FromAttempt(best)

	if trial.ID == uuid.Nil {
		t.Error("Trial should get a fresh id")
	}
	if trial.Seed != 42 || trial.Score != 17.5 {
		t.Errorf("Scalar fields not copied: %+v", trial)
	}
	if trial.Weeks != 4 {
		t.Errorf("Weeks should come from schedule, got %d", trial.Weeks)
	}
	if trial.Validation.UnfilledSlots != 2 {
		t.Error("Validation should be carried over")
	}
}

func TestFromAttemptNilSchedule(t *testing.T) {
	trial := FromAttempt(&scheduler.AttemptResult{Status: model.StatusInfeasible})
	if trial.Weeks != 0 {
		t.Errorf("Nil schedule should leave weeks 0, got %d", trial.Weeks)
	}
}

func TestDefaultListFilter(t *testing.T) {
	f := DefaultListFilter()
	if f.Limit != 20 || f.Offset != 0 {
		t.Errorf("Unexpected defaults: %+v", f)
	}

	f = f.WithLimit(5).WithOffset(10).WithStatus("feasible")
	if f.Limit != 5 || f.Offset != 10 || f.Status != "feasible" {
		t.Errorf("Builder methods failed: %+v", f)
	}
}
