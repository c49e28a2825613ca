package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/lunban/lunban/internal/repository"
	"github.com/lunban/lunban/pkg/errors"
)

// TrialHandler 试验存档查询处理器
type TrialHandler struct {
	repo *repository.TrialRepository
}

// NewTrialHandler 创建试验处理器
func NewTrialHandler(repo *repository.TrialRepository) *TrialHandler {
	return &TrialHandler{repo: repo}
}

// List 分页列出历史试验
func (h *TrialHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	filter := repository.DefaultListFilter()
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = v
	}

	trials, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询试验列表失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
		"trials": trials,
	})
}

// Get 返回单个试验的完整结果
// 路径形如 /api/v1/trials/{id}，可选后缀 /attempts 返回种子概要
func (h *TrialHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/trials/")
	wantAttempts := false
	if strings.HasSuffix(rest, "/attempts") {
		rest = strings.TrimSuffix(rest, "/attempts")
		wantAttempts = true
	}

	id, err := uuid.Parse(rest)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的试验ID格式"))
		return
	}

	if wantAttempts {
		attempts, err := h.repo.Attempts(r.Context(), id)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询种子概要失败"))
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
		return
	}

	trial, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			respondError(w, errors.NotFound("试验", id.String()))
			return
		}
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询试验失败"))
		return
	}
	respondJSON(w, http.StatusOK, trial)
}
