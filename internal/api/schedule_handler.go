package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/scheduler"
)

// ListSchedules возвращает список schedules.
// GET /api/v1/schedules?workflow_id=...
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	var workflowID *uuid.UUID
	if raw := r.URL.Query().Get("workflow_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			BadRequest(w, "invalid workflow_id")
			return
		}
		workflowID = &id
	}

	schedules, err := h.schedules.List(r.Context(), workflowID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ScheduleResponse, len(schedules))
	for i, s := range schedules {
		result[i] = ScheduleFromDomain(s)
	}

	List(w, result, len(result))
}

// CreateSchedule создаёт schedule для workflow.
// POST /api/v1/workflows/{id}/schedules
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	workflowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if err := scheduler.ValidateCronExpr(req.CronExpr); err != nil {
		BadRequest(w, err.Error())
		return
	}

	// Workflow должен существовать.
	if _, err := h.workflows.GetByID(r.Context(), workflowID); HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	sched := &domain.Schedule{
		ID:         uuid.New(),
		WorkflowID: workflowID,
		CronExpr:   req.CronExpr,
		Enabled:    req.Enabled,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.schedules.Create(r.Context(), sched); err != nil {
		HandleRepoError(w, h.logger, err, "")
		return
	}

	h.logger.Info("schedule created",
		"schedule_id", sched.ID,
		"workflow_id", workflowID,
		"cron_expr", sched.CronExpr,
	)
	Created(w, ScheduleFromDomain(*sched))
}

// GetSchedule возвращает schedule по ID.
// GET /api/v1/schedules/{id}
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	sched, err := h.schedules.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(*sched))
}

// UpdateSchedule обновляет cron-выражение и флаг enabled.
// PUT /api/v1/schedules/{id}
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	var req UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	sched, err := h.schedules.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	if req.CronExpr != nil {
		if err := scheduler.ValidateCronExpr(*req.CronExpr); err != nil {
			BadRequest(w, err.Error())
			return
		}
		sched.CronExpr = *req.CronExpr
	}
	if req.Enabled != nil {
		sched.Enabled = *req.Enabled
	}

	if err := h.schedules.Update(r.Context(), sched); err != nil {
		HandleRepoError(w, h.logger, err, "schedule not found")
		return
	}

	Success(w, ScheduleFromDomain(*sched))
}

// DeleteSchedule удаляет schedule.
// DELETE /api/v1/schedules/{id}
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	if err := h.schedules.Delete(r.Context(), id); err != nil {
		HandleRepoError(w, h.logger, err, "schedule not found")
		return
	}

	NoContent(w)
}
