package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler"
)

// Trial 一次寻优的存档记录
// 结果主体以 JSONB 存储，列上只冗余比较与检索需要的标量
type Trial struct {
	ID         uuid.UUID               `json:"id"`
	CreatedAt  time.Time               `json:"created_at"`
	Weeks      int                     `json:"weeks"`
	Seed       int64                   `json:"seed"`
	Status     model.SolveStatus       `json:"status"`
	Score      float64                 `json:"score"`
	Schedule   *model.Schedule         `json:"schedule"`
	Weekend    *model.WeekendResult    `json:"weekend"`
	Validation *model.ValidationResult `json:"validation"`
	Fairness   *model.FairnessMetrics  `json:"fairness"`
}

// AttemptSummary 单个种子的概要
type AttemptSummary struct {
	Seed    int64             `json:"seed"`
	Status  model.SolveStatus `json:"status"`
	Score   float64           `json:"score"`
	Elapsed time.Duration     `json:"elapsed"`
}

// TrialRepository 试验存档仓储
type TrialRepository struct {
	db DB
}

// NewTrialRepository 创建试验仓储
func NewTrialRepository(db DB) *TrialRepository {
	return &TrialRepository{db: db}
}

// FromAttempt 把最优尝试转为存档记录
func FromAttempt(best *scheduler.AttemptResult) *Trial {
	t := &Trial{
		ID:         uuid.New(),
		Seed:       best.Seed,
		Status:     best.Status,
		Score:      best.Score,
		Schedule:   best.Schedule,
		Weekend:    best.Weekend,
		Validation: best.Validation,
		Fairness:   best.Fairness,
	}
	if best.Schedule != nil {
		t.Weeks = best.Schedule.Weeks
	}
	return t
}

// Save 存档试验及各种子概要
func (r *TrialRepository) Save(ctx context.Context, trial *Trial, attempts []AttemptSummary) error {
	if trial.ID == uuid.Nil {
		trial.ID = uuid.New()
	}
	trial.CreatedAt = time.Now()

	scheduleJSON, err := json.Marshal(trial.Schedule)
	if err != nil {
		return fmt.Errorf("序列化排班结果失败: %w", err)
	}
	weekendJSON, err := json.Marshal(trial.Weekend)
	if err != nil {
		return fmt.Errorf("序列化周末结果失败: %w", err)
	}
	validationJSON, err := json.Marshal(trial.Validation)
	if err != nil {
		return fmt.Errorf("序列化校验结果失败: %w", err)
	}
	fairnessJSON, err := json.Marshal(trial.Fairness)
	if err != nil {
		return fmt.Errorf("序列化公平性指标失败: %w", err)
	}

	query := `
		INSERT INTO trials (
			id, created_at, weeks, seed, status, score,
			schedule, weekend, validation, fairness
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := r.db.ExecContext(ctx, query,
		trial.ID, trial.CreatedAt, trial.Weeks, trial.Seed, string(trial.Status), trial.Score,
		scheduleJSON, weekendJSON, validationJSON, fairnessJSON,
	); err != nil {
		return fmt.Errorf("存档试验失败: %w", err)
	}

	for _, a := range attempts {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO trial_attempts (trial_id, seed, status, score, elapsed_ms)
			VALUES ($1, $2, $3, $4, $5)
		`, trial.ID, a.Seed, string(a.Status), a.Score, a.Elapsed.Milliseconds()); err != nil {
			return fmt.Errorf("存档种子概要失败: %w", err)
		}
	}

	return nil
}

// GetByID 根据ID取试验
func (r *TrialRepository) GetByID(ctx context.Context, id uuid.UUID) (*Trial, error) {
	query := `
		SELECT id, created_at, weeks, seed, status, score,
			schedule, weekend, validation, fairness
		FROM trials
		WHERE id = $1
	`
	return r.scanTrial(r.db.QueryRowContext(ctx, query, id))
}

// Latest 返回最近一次试验
func (r *TrialRepository) Latest(ctx context.Context) (*Trial, error) {
	query := `
		SELECT id, created_at, weeks, seed, status, score,
			schedule, weekend, validation, fairness
		FROM trials
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanTrial(r.db.QueryRowContext(ctx, query))
}

// List 按时间倒序分页列出试验，结果主体不展开
func (r *TrialRepository) List(ctx context.Context, filter ListFilter) ([]*Trial, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM trials`
	args := []interface{}{}
	where := ""
	if filter.Status != "" {
		where = ` WHERE status = $1`
		args = append(args, filter.Status)
	}
	if err := r.db.QueryRowContext(ctx, countQuery+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计试验数量失败: %w", err)
	}

	query := `
		SELECT id, created_at, weeks, seed, status, score
		FROM trials
	` + where + fmt.Sprintf(`
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询试验列表失败: %w", err)
	}
	defer rows.Close()

	var trials []*Trial
	for rows.Next() {
		t := &Trial{}
		var status string
		if err := rows.Scan(&t.ID, &t.CreatedAt, &t.Weeks, &t.Seed, &status, &t.Score); err != nil {
			return nil, 0, fmt.Errorf("扫描试验行失败: %w", err)
		}
		t.Status = model.SolveStatus(status)
		trials = append(trials, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("遍历试验列表失败: %w", err)
	}

	return trials, total, nil
}

// Attempts 返回某次试验的全部种子概要
func (r *TrialRepository) Attempts(ctx context.Context, trialID uuid.UUID) ([]AttemptSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seed, status, score, elapsed_ms
		FROM trial_attempts
		WHERE trial_id = $1
		ORDER BY id
	`, trialID)
	if err != nil {
		return nil, fmt.Errorf("查询种子概要失败: %w", err)
	}
	defer rows.Close()

	var out []AttemptSummary
	for rows.Next() {
		var a AttemptSummary
		var status string
		var elapsedMs int64
		if err := rows.Scan(&a.Seed, &status, &a.Score, &elapsedMs); err != nil {
			return nil, fmt.Errorf("扫描种子概要失败: %w", err)
		}
		a.Status = model.SolveStatus(status)
		a.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete 删除试验（级联删除概要）
func (r *TrialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("删除试验失败: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("试验", id.String())
	}
	return nil
}

// scanTrial 扫描完整试验行
func (r *TrialRepository) scanTrial(row Scanner) (*Trial, error) {
	t := &Trial{}
	var status string
	var scheduleJSON, weekendJSON, validationJSON, fairnessJSON []byte

	err := row.Scan(&t.ID, &t.CreatedAt, &t.Weeks, &t.Seed, &status, &t.Score,
		&scheduleJSON, &weekendJSON, &validationJSON, &fairnessJSON)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("试验", "")
	}
	if err != nil {
		return nil, fmt.Errorf("扫描试验失败: %w", err)
	}

	t.Status = model.SolveStatus(status)
	if err := json.Unmarshal(scheduleJSON, &t.Schedule); err != nil {
		return nil, fmt.Errorf("解析排班结果失败: %w", err)
	}
	if err := json.Unmarshal(weekendJSON, &t.Weekend); err != nil {
		return nil, fmt.Errorf("解析周末结果失败: %w", err)
	}
	if err := json.Unmarshal(validationJSON, &t.Validation); err != nil {
		return nil, fmt.Errorf("解析校验结果失败: %w", err)
	}
	if err := json.Unmarshal(fairnessJSON, &t.Fairness); err != nil {
		return nil, fmt.Errorf("解析公平性指标失败: %w", err)
	}
	return t, nil
}
