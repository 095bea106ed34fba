package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haashirideassion/workforcemanagement-sub000/staffing"
	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

// =============================================================================
// ALLOCATION HANDLERS
// =============================================================================

// ListAllocations returns allocations filtered by employee_id, project_id
// and status.
// GET /api/allocations
func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	allocs, err := h.Service.ListAllocations(r.Context(), workforce.AllocationFilter{
		EmployeeID: workforce.EmployeeID(q.Get("employee_id")),
		ProjectID:  workforce.ProjectID(q.Get("project_id")),
		Status:     workforce.AllocationStatus(q.Get("status")),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTOs(allocs))
}

func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.GetAllocation(r.Context(), allocationID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTO(*a))
}

// CreateAllocation assigns an employee to a project. Overallocation is not an
// error: the allocation is written and the warning returned alongside.
// POST /api/allocations
func (h *Handler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	var req staffing.AllocationInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.CreateAllocation(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAllocationResponse(res))
}

// UpdateAllocation edits percent, dates, role or status.
// PUT /api/allocations/{id}
func (h *Handler) UpdateAllocation(w http.ResponseWriter, r *http.Request) {
	var req staffing.AllocationUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.UpdateAllocation(r.Context(), allocationID(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationResponse(res))
}

// RemoveAllocation takes an employee off a project and records the
// transition. The removal succeeds even if the history write fails.
// POST /api/allocations/{id}/remove
func (h *Handler) RemoveAllocation(w http.ResponseWriter, r *http.Request) {
	var req RemoveAllocationRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.RemoveAllocation(r.Context(), allocationID(r), workforce.RemovalDetails{
		ManagerName: req.ManagerName,
		Remarks:     req.Remarks,
		EndDate:     req.EndDate,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := RemovalResponse{
		Removed:     toAllocationDTO(res.Removed),
		Utilization: res.Utilization,
	}
	if res.Transition != nil {
		t := toTransitionDTO(*res.Transition)
		resp.Transition = &t
		resp.HistoryRecorded = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListEmployeeAllocations(w http.ResponseWriter, r *http.Request) {
	id := employeeID(r)
	if _, err := h.Service.GetEmployee(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	allocs, err := h.Service.ListAllocations(r.Context(), workforce.AllocationFilter{EmployeeID: id})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTOs(allocs))
}

// SaveAllocationDraft replaces an employee's allocations with the submitted
// list. Rows without an id are created; missing rows are removed with
// history.
// PUT /api/employees/{id}/allocations
func (h *Handler) SaveAllocationDraft(w http.ResponseWriter, r *http.Request) {
	var req staffing.DraftInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.SaveAllocationDraft(r.Context(), employeeID(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(res))
}

func toAllocationResponse(res *staffing.AllocationResult) AllocationResponse {
	return AllocationResponse{
		Allocation:  toAllocationDTO(res.Allocation),
		Utilization: res.Utilization,
		Warnings:    nonNilWarnings(res.Warnings),
	}
}

// =============================================================================
// TRANSITION HANDLERS
// =============================================================================

func (h *Handler) GetTransition(w http.ResponseWriter, r *http.Request) {
	t, err := h.Service.GetTransition(r.Context(), transitionID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransitionDTO(*t))
}

// GetEmployeeHistory returns the employee's transitions, newest first.
// GET /api/employees/{id}/transitions
func (h *Handler) GetEmployeeHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.Service.EmployeeHistory(r.Context(), employeeID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]TransitionDTO, len(history))
	for i, t := range history {
		dtos[i] = toTransitionDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req staffing.CommentInput
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.Service.AddComment(r.Context(), transitionID(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentDTO(*c))
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID := workforce.CommentID(chi.URLParam(r, "commentID"))
	if err := h.Service.DeleteComment(r.Context(), transitionID(r), commentID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func allocationID(r *http.Request) workforce.AllocationID {
	return workforce.AllocationID(chi.URLParam(r, "id"))
}

func transitionID(r *http.Request) workforce.TransitionID {
	return workforce.TransitionID(chi.URLParam(r, "id"))
}
