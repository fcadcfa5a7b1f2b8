package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/openbnet/presence/internal/api/request"
	"github.com/openbnet/presence/internal/api/response"
	"github.com/openbnet/presence/internal/model"
	"github.com/openbnet/presence/internal/services/online"
	"github.com/openbnet/presence/internal/services/presence"
)

// PresenceHandler handles presence and session endpoints
type PresenceHandler struct {
	engine      *presence.Engine
	coordinator *online.Coordinator
}

// NewPresenceHandler creates a new presence handler
func NewPresenceHandler(engine *presence.Engine, coordinator *online.Coordinator) *PresenceHandler {
	return &PresenceHandler{engine: engine, coordinator: coordinator}
}

// entityFromVars parses the {high}/{low} path variables
func entityFromVars(r *http.Request) (model.EntityID, error) {
	vars := mux.Vars(r)
	high, err := strconv.ParseUint(vars["high"], 10, 64)
	if err != nil {
		return model.EntityID{}, NewInvalidRequestError("entity high id must be numeric")
	}
	low, err := strconv.ParseUint(vars["low"], 10, 64)
	if err != nil {
		return model.EntityID{}, NewInvalidRequestError("entity low id must be numeric")
	}
	return model.EntityID{High: high, Low: low}, nil
}

// fieldKeyFromQuery parses program/group/field/index query parameters
func fieldKeyFromQuery(r *http.Request) (model.FieldKey, error) {
	q := r.URL.Query()

	program, err := request.ProgramFromString(q.Get("program"))
	if err != nil {
		return model.FieldKey{}, NewInvalidRequestError(err.Error())
	}
	group, err := strconv.ParseUint(q.Get("group"), 10, 32)
	if err != nil {
		return model.FieldKey{}, NewInvalidRequestError("group must be numeric")
	}
	field, err := strconv.ParseUint(q.Get("field"), 10, 32)
	if err != nil {
		return model.FieldKey{}, NewInvalidRequestError("field must be numeric")
	}

	key := model.FieldKey{Program: program, Group: uint32(group), Field: uint32(field)}
	if raw := q.Get("index"); raw != "" {
		index, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return model.FieldKey{}, NewInvalidRequestError("index must be numeric")
		}
		key.Index = index
	}
	return key, nil
}

// QueryField handles GET /api/v1/presence/{high}/{low}/field
func (h *PresenceHandler) QueryField(w http.ResponseWriter, r *http.Request) {
	id, err := entityFromVars(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	key, err := fieldKeyFromQuery(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	value, present := h.engine.QueryField(id, key)
	response.JSON(w, http.StatusOK, response.FieldValueFromModel(value, present))
}

// ApplyField handles POST /api/v1/presence/{high}/{low}/field
func (h *PresenceHandler) ApplyField(w http.ResponseWriter, r *http.Request) {
	id, err := entityFromVars(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.ApplyFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	program, err := request.ProgramFromString(req.Program)
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}
	key := model.FieldKey{Program: program, Group: req.Group, Field: req.Field, Index: req.Index}

	var op model.FieldOperation
	switch req.Kind {
	case "set":
		if req.Value == nil {
			WriteError(w, NewInvalidRequestError("set requires a value"))
			return
		}
		value, err := req.Value.ToModel()
		if err != nil {
			WriteError(w, NewInvalidRequestError(err.Error()))
			return
		}
		op = model.SetOp(key, value)
	case "clear":
		op = model.ClearOp(key)
	default:
		WriteError(w, NewInvalidRequestError("kind must be 'set' or 'clear'"))
		return
	}

	// mirror the wire protocol: malformed or unknown updates are
	// dropped with a warning, not reported to the sender
	h.engine.ApplyUpdate(id, op)
	response.NoContent(w)
}

// Snapshot handles GET /api/v1/presence/{high}/{low}/snapshot
func (h *PresenceHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	id, err := entityFromVars(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	ops, err := h.engine.SubscriptionSnapshot(id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SnapshotFromModel(id, ops))
}

// AttachSession handles POST /api/v1/sessions
func (h *PresenceHandler) AttachSession(w http.ResponseWriter, r *http.Request) {
	var req request.AttachSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	session, err := h.coordinator.AttachSession(model.GameAccountID(req.GameAccountID), nil)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.Session{
		GameAccountID: uint64(session.GameAccountID),
	})
}

// DetachSession handles DELETE /api/v1/sessions/{id}
func (h *PresenceHandler) DetachSession(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		WriteError(w, NewInvalidRequestError("game account id must be numeric"))
		return
	}

	h.coordinator.DetachSession(model.GameAccountID(id))
	response.NoContent(w)
}
