package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/openbnet/presence/internal/api/request"
	"github.com/openbnet/presence/internal/api/response"
	"github.com/openbnet/presence/internal/model"
	"github.com/openbnet/presence/internal/services/registry"
)

// AccountHandler handles account and game account endpoints
type AccountHandler struct {
	registry *registry.Service
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(reg *registry.Service) *AccountHandler {
	return &AccountHandler{registry: reg}
}

// accountFromVars resolves the {id} path variable to an account
func (h *AccountHandler) accountFromVars(r *http.Request) (*model.Account, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return nil, NewInvalidRequestError("account id must be numeric")
	}
	account, ok := h.registry.AccountByID(model.AccountID(id))
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return account, nil
}

// Create handles POST /api/v1/accounts
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Email == "" {
		WriteError(w, NewInvalidRequestError("email is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}
	if req.BattleTag == "" {
		WriteError(w, NewInvalidRequestError("battle_tag is required"))
		return
	}

	level, err := request.UserLevelFromString(req.UserLevel)
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	account, err := h.registry.CreateAccount(r.Context(), req.Email, req.Password, req.BattleTag, level)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AccountFromModel(account))
}

// Get handles GET /api/v1/accounts/{id}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountFromVars(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromModel(account))
}

// GetByTag handles GET /api/v1/accounts?tag=Name%23NNNN
func (h *AccountHandler) GetByTag(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		WriteError(w, NewInvalidRequestError("tag query parameter is required"))
		return
	}

	account, ok := h.registry.AccountByTag(tag)
	if !ok {
		WriteError(w, model.ErrAccountNotFound)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromModel(account))
}

// VerifyPassword handles POST /api/v1/accounts/{id}/verify-password
func (h *AccountHandler) VerifyPassword(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountFromVars(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.VerifyPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	response.JSON(w, http.StatusOK, response.VerifyPasswordResponse{
		Valid: h.registry.VerifyPassword(account, req.Password),
	})
}

// SetUserLevel handles PATCH /api/v1/accounts/{id}/level
func (h *AccountHandler) SetUserLevel(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountFromVars(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.UpdateUserLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	level, err := request.UserLevelFromString(req.UserLevel)
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	h.registry.UpdateUserLevel(r.Context(), account, level)
	response.JSON(w, http.StatusOK, response.AccountFromModel(account))
}

// CreateGameAccount handles POST /api/v1/accounts/{id}/gameaccounts
func (h *AccountHandler) CreateGameAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountFromVars(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	gameAccount, err := h.registry.CreateGameAccount(r.Context(), account.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GameAccountFromModel(gameAccount))
}

// ListGameAccounts handles GET /api/v1/accounts/{id}/gameaccounts
func (h *AccountHandler) ListGameAccounts(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountFromVars(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	gameAccounts := h.registry.GameAccountsFor(account.ID)
	result := make([]response.GameAccount, len(gameAccounts))
	for i, ga := range gameAccounts {
		result[i] = response.GameAccountFromModel(ga)
	}
	response.JSON(w, http.StatusOK, result)
}

// DeleteGameAccount handles DELETE /api/v1/gameaccounts/{id}
func (h *AccountHandler) DeleteGameAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		WriteError(w, NewInvalidRequestError("game account id must be numeric"))
		return
	}

	if !h.registry.DeleteGameAccount(r.Context(), model.GameAccountID(id)) {
		WriteError(w, model.ErrGameAccountNotFound)
		return
	}

	response.NoContent(w)
}
