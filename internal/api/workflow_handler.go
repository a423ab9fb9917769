package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
)

// ListWorkflows возвращает список workflows.
// GET /api/v1/workflows
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := h.workflows.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]WorkflowResponse, len(workflows))
	for i, wf := range workflows {
		result[i] = WorkflowFromDomain(wf)
	}

	List(w, result, len(result))
}

// CreateWorkflow создаёт workflow с валидацией графа.
// POST /api/v1/workflows
func (h *Handler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	if _, err := h.orch.ValidateGraph(req.Graph); err != nil {
		InvalidGraph(w, err.Error())
		return
	}

	wf := &domain.Workflow{
		ID:          uuid.New(),
		Name:        req.Name,
		WebhookSlug: req.WebhookSlug,
		Graph:       req.Graph,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.workflows.Create(r.Context(), wf); err != nil {
		HandleRepoError(w, h.logger, err, "")
		return
	}

	h.logger.Info("workflow created", "workflow_id", wf.ID, "name", wf.Name)
	Created(w, WorkflowFromDomain(*wf))
}

// GetWorkflow возвращает workflow по ID.
// GET /api/v1/workflows/{id}
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	wf, err := h.workflows.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, WorkflowFromDomain(*wf))
}

// UpdateWorkflow обновляет workflow. Граф перезаписывается целиком;
// идущие runs продолжают работать по старому графу.
// PUT /api/v1/workflows/{id}
func (h *Handler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	var req UpdateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	wf, err := h.workflows.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			BadRequest(w, "name cannot be empty")
			return
		}
		wf.Name = *req.Name
	}
	if req.WebhookSlug != nil {
		wf.WebhookSlug = *req.WebhookSlug
	}
	if req.Graph != nil {
		if _, err := h.orch.ValidateGraph(*req.Graph); err != nil {
			InvalidGraph(w, err.Error())
			return
		}
		wf.Graph = *req.Graph
	}

	if err := h.workflows.Update(r.Context(), wf); err != nil {
		HandleRepoError(w, h.logger, err, "workflow not found")
		return
	}

	Success(w, WorkflowFromDomain(*wf))
}

// DeleteWorkflow удаляет workflow вместе с runs и schedules.
// DELETE /api/v1/workflows/{id}
func (h *Handler) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	if err := h.workflows.Delete(r.Context(), id); err != nil {
		HandleRepoError(w, h.logger, err, "workflow not found")
		return
	}

	NoContent(w)
}

// ValidateGraph проверяет граф без создания workflow.
// POST /api/v1/validate-graph
func (h *Handler) ValidateGraph(w http.ResponseWriter, r *http.Request) {
	var req ValidateGraphRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	built, err := h.orch.ValidateGraph(req.Graph)
	if err != nil {
		Success(w, ValidateGraphResponse{Valid: false, Error: err.Error()})
		return
	}

	Success(w, ValidateGraphResponse{Valid: true, Order: built.Order()})
}

// ListBlocks возвращает зарегистрированные типы блоков.
// GET /api/v1/blocks
func (h *Handler) ListBlocks(w http.ResponseWriter, _ *http.Request) {
	Success(w, BlocksResponse{Types: h.registry.Types()})
}
