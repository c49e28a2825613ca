package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler"
	"github.com/lunban/lunban/pkg/scheduler/optimizer"
)

// stubLauncher 返回固定结果的执行器
type stubLauncher struct {
	result *scheduler.AttemptResult
}

func (s *stubLauncher) Launch(ctx context.Context, req *optimizer.WorkerRequest) (*scheduler.AttemptResult, error) {
	r := *s.result
	r.Seed = req.Config.Seed
	return &r, nil
}

func postJSON(t *testing.T, h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal request failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestValidatePeople(t *testing.T) {
	tests := []struct {
		name    string
		people  []model.Person
		wantErr bool
	}{
		{"空人员表", nil, true},
		{"姓名为空", []model.Person{{WorkdaysPerWeek: 5, EDOFixedDay: model.EDONoFixedDay}}, true},
		{"姓名重复", []model.Person{
			{Name: "张三", WorkdaysPerWeek: 5, EDOFixedDay: model.EDONoFixedDay},
			{Name: "张三", WorkdaysPerWeek: 4, EDOFixedDay: model.EDONoFixedDay},
		}, true},
		{"合同天数越界", []model.Person{{Name: "张三", WorkdaysPerWeek: 8, EDOFixedDay: model.EDONoFixedDay}}, true},
		{"固定轮休日越界", []model.Person{{Name: "张三", WorkdaysPerWeek: 5, EDOFixedDay: 5}}, true},
		{"合法输入", []model.Person{
			{Name: "张三", WorkdaysPerWeek: 5, EDOFixedDay: model.EDONoFixedDay},
			{Name: "李四", WorkdaysPerWeek: 4, EDOFixedDay: 2},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePeople(tt.people)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePeople() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSolveMethodNotAllowed(t *testing.T) {
	h := NewRosterHandler(&stubLauncher{}, nil, 1, 1)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/roster/solve", nil)
	rec := httptest.NewRecorder()
	h.Solve(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestSolveReturnsBestResult(t *testing.T) {
	stub := &stubLauncher{result: &scheduler.AttemptResult{
		Status:     model.StatusFeasible,
		Score:      12.5,
		Schedule:   model.NewSchedule(1, model.StatusFeasible),
		Weekend:    model.NewWeekendResult(1),
		Validation: &model.ValidationResult{},
		Fairness:   &model.FairnessMetrics{},
	}}
	h := NewRosterHandler(stub, nil, 2, 1)

	rec := postJSON(t, h.Solve, SolveRequest{
		People: []model.Person{
			{Name: "张三", WorkdaysPerWeek: 5, EDOFixedDay: model.EDONoFixedDay},
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp SolveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Decode response failed: %v", err)
	}
	if resp.Status != model.StatusFeasible {
		t.Errorf("Expected feasible status, got %s", resp.Status)
	}
	if resp.Score != 12.5 {
		t.Errorf("Expected score 12.5, got %f", resp.Score)
	}
}

func TestSolveInfeasibleReturns422(t *testing.T) {
	stub := &stubLauncher{result: &scheduler.AttemptResult{
		Status:     model.StatusInfeasible,
		Schedule:   model.NewSchedule(1, model.StatusInfeasible),
		Weekend:    model.NewWeekendResult(1),
		Validation: &model.ValidationResult{},
		Fairness:   &model.FairnessMetrics{},
	}}
	h := NewRosterHandler(stub, nil, 1, 1)

	rec := postJSON(t, h.Solve, SolveRequest{
		People: []model.Person{
			{Name: "张三", WorkdaysPerWeek: 5, EDOFixedDay: model.EDONoFixedDay},
		},
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", rec.Code)
	}
}

func TestSolveRejectsBadPeople(t *testing.T) {
	h := NewRosterHandler(&stubLauncher{}, nil, 1, 1)
	rec := postJSON(t, h.Solve, SolveRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty people, got %d", rec.Code)
	}
}

func TestValidateEndpointClean(t *testing.T) {
	h := NewRosterHandler(&stubLauncher{}, nil, 1, 1)

	cfg := model.DefaultSolverConfig()
	cfg.Weeks = 1
	cfg.WeeklyHourCap = 60
	cfg.Staffing = model.StaffingTemplate{DayPairs: 1}

	sched := model.NewSchedule(1, model.StatusOptimal)
	for d := 0; d < model.DaysPerWeek; d++ {
		sched.Assignments = append(sched.Assignments, model.PairAssignment{
			Week: 0, Day: d, Shift: model.ShiftDay, PersonA: "张三", PersonB: "李四",
		})
	}

	rec := postJSON(t, h.Validate, ValidateRequest{
		People: []model.Person{
			{Name: "张三", WorkdaysPerWeek: 5, EDOFixedDay: model.EDONoFixedDay},
			{Name: "李四", WorkdaysPerWeek: 5, EDOFixedDay: model.EDONoFixedDay},
		},
		Config:   &cfg,
		Schedule: sched,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp ValidateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Decode response failed: %v", err)
	}
	if !resp.Clean {
		t.Errorf("Expected clean validation, got violations: %v", resp.Violations)
	}
	if resp.Score != 0 {
		t.Errorf("Clean roster should score 0, got %f", resp.Score)
	}
}

func TestValidateEndpointMissingSchedule(t *testing.T) {
	h := NewRosterHandler(&stubLauncher{}, nil, 1, 1)

	rec := postJSON(t, h.Validate, ValidateRequest{
		People: []model.Person{
			{Name: "张三", WorkdaysPerWeek: 5, EDOFixedDay: model.EDONoFixedDay},
		},
	})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing schedule, got %d", rec.Code)
	}
}
