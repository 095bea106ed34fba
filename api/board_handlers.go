package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haashirideassion/workforcemanagement-sub000/board"
	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

// =============================================================================
// BOARD SESSION HANDLERS
// =============================================================================
//
// One session per operator. The client reports pointer events; the server
// owns the state machine so confirms are validated against what was actually
// dragged and dropped.

// OpenBoardSession starts an idle session.
// POST /api/board/sessions
func (h *Handler) OpenBoardSession(w http.ResponseWriter, r *http.Request) {
	id, b := h.Boards.Open()
	writeJSON(w, http.StatusCreated, BoardSessionDTO{ID: id, View: b.View()})
}

func (h *Handler) GetBoardSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := h.Boards.Get(id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BoardSessionDTO{ID: id, View: b.View()})
}

func (h *Handler) CloseBoardSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Boards.Close(chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Grab starts dragging an employee from the sidebar or from a chip.
// POST /api/board/sessions/{id}/grab
func (h *Handler) Grab(w http.ResponseWriter, r *http.Request) {
	var req GrabRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.withBoard(w, r, func(b *board.Board) (*board.Outcome, error) {
		return b.Grab(r.Context(), workforce.EmployeeID(req.EmployeeID), req.Source, req.At)
	})
}

// Release reports pointer-up. Within the click tolerance the outcome carries
// quick_view instead of continuing the drag.
// POST /api/board/sessions/{id}/release
func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	var req ReleaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.withBoard(w, r, func(b *board.Board) (*board.Outcome, error) {
		return b.Release(req.At)
	})
}

// Drop finishes a drag over a project, or over nothing.
// POST /api/board/sessions/{id}/drop
func (h *Handler) Drop(w http.ResponseWriter, r *http.Request) {
	var req DropRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.withBoard(w, r, func(b *board.Board) (*board.Outcome, error) {
		if req.ProjectID == "" {
			return b.Drop(r.Context(), nil)
		}
		target := workforce.ProjectID(req.ProjectID)
		return b.Drop(r.Context(), &target)
	})
}

// RequestRemoval opens the removal form for a chip.
// POST /api/board/sessions/{id}/unassign
func (h *Handler) RequestRemoval(w http.ResponseWriter, r *http.Request) {
	var req RequestRemovalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.withBoard(w, r, func(b *board.Board) (*board.Outcome, error) {
		return b.RequestRemoval(r.Context(), workforce.AllocationID(req.AllocationID))
	})
}

// ConfirmAssignment submits the assignment form.
// POST /api/board/sessions/{id}/assign
func (h *Handler) ConfirmAssignment(w http.ResponseWriter, r *http.Request) {
	var req board.AssignmentInput
	if !decodeJSON(w, r, &req) {
		return
	}
	h.withBoard(w, r, func(b *board.Board) (*board.Outcome, error) {
		return b.ConfirmAssignment(r.Context(), req)
	})
}

// ConfirmRemoval submits the removal form. On a move the session comes back
// in assignment_pending for the target project.
// POST /api/board/sessions/{id}/remove
func (h *Handler) ConfirmRemoval(w http.ResponseWriter, r *http.Request) {
	var req board.RemovalInput
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	h.withBoard(w, r, func(b *board.Board) (*board.Outcome, error) {
		return b.ConfirmRemoval(r.Context(), req)
	})
}

// POST /api/board/sessions/{id}/cancel
func (h *Handler) CancelBoard(w http.ResponseWriter, r *http.Request) {
	h.withBoard(w, r, func(b *board.Board) (*board.Outcome, error) {
		return b.Cancel(), nil
	})
}

// withBoard resolves the session, runs op and writes the outcome together
// with the session state after the operation.
func (h *Handler) withBoard(w http.ResponseWriter, r *http.Request, op func(b *board.Board) (*board.Outcome, error)) {
	b, err := h.Boards.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	out, err := op(b)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := BoardOutcomeDTO{Outcome: *out, Session: b.View()}
	if out.Allocation != nil {
		a := toAllocationDTO(*out.Allocation)
		resp.Allocation = &a
	}
	if out.Transition != nil {
		t := toTransitionDTO(*out.Transition)
		resp.Transition = &t
	}
	writeJSON(w, http.StatusOK, resp)
}
