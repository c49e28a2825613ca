package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/lunban/lunban/pkg/model"
)

func TestInprocLauncherSmallInstance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping solver test in short mode")
	}

	people := []model.Person{
		{Name: "张三", WorkdaysPerWeek: 5},
		{Name: "李四", WorkdaysPerWeek: 5},
	}
	cfg := model.DefaultSolverConfig()
	cfg.Weeks = 1
	cfg.Staffing = model.StaffingTemplate{DayPairs: 1}
	cfg.TimeBudget = time.Second
	cfg.Workers = 1
	cfg.Seed = 3

	result, err := (&InprocLauncher{}).Launch(context.Background(), &WorkerRequest{
		People: people,
		Config: cfg,
	})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if result == nil {
		t.Fatal("Result should not be nil")
	}
	if result.Seed != 3 {
		t.Errorf("Expected seed 3, got %d", result.Seed)
	}
	if result.Schedule == nil || result.Validation == nil || result.Fairness == nil {
		t.Error("Result must carry schedule, validation and fairness")
	}
}

func TestInprocLauncherCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&InprocLauncher{}).Launch(ctx, &WorkerRequest{Config: model.DefaultSolverConfig()})
	if err == nil {
		t.Error("Cancelled context should return an error")
	}
}
