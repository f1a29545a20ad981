package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"memberboard/internal/http/middleware"
	"memberboard/internal/http/response"
	"memberboard/internal/observability"
	"memberboard/internal/service"
)

type UserHandler struct {
	authSvc    *service.AuthService
	accountSvc *service.AccountService
}

func NewUserHandler(authSvc *service.AuthService, accountSvc *service.AccountService) *UserHandler {
	return &UserHandler{authSvc: authSvc, accountSvc: accountSvc}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	account, err := h.accountSvc.Get(claims.Subject)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "account lookup failed", nil)
		return
	}
	if account == nil {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "account not found", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, account)
}

type nicknameRequest struct {
	Nickname string `json:"nickname"`
}

func (h *UserHandler) ChangeNickname(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	var req nicknameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Nickname == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "nickname is required", nil)
		return
	}
	updated, err := h.authSvc.ChangeNickname(r.Context(), claims.Subject, req.Nickname)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "nickname update failed", nil)
		return
	}
	observability.Audit(r, "user.nickname.changed", "email", claims.Subject)
	response.JSON(w, r, http.StatusOK, map[string]any{"updated": updated})
}

type passwordRequest struct {
	UserID      uint   `json:"userId"`
	OldPassword string `json:"oldPassword"`
	Password    string `json:"password"`
}

// passwordResult mirrors what password-change clients render: a flat
// validity flag, an optional human message and, for policy failures,
// the violated rules.
type passwordResult struct {
	IsValid     bool   `json:"isValid"`
	Message     string `json:"message,omitempty"`
	Information any    `json:"information,omitempty"`
}

// ChangePassword rejects requests whose userId does not match the
// session identity; the session decides who you are, the body only
// confirms the client agrees.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	account, err := h.accountSvc.Get(claims.Subject)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "account lookup failed", nil)
		return
	}
	if account == nil {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "account not found", nil)
		return
	}
	if req.UserID != account.ID {
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "cannot change another user's password", nil)
		return
	}

	policyResult, err := h.authSvc.ChangePassword(r.Context(), claims.Subject, req.OldPassword, req.Password)
	switch {
	case errors.Is(err, service.ErrWeakPassword):
		observability.Audit(r, "user.password.rejected", "email", claims.Subject, "reason", "policy")
		response.JSON(w, r, http.StatusOK, passwordResult{IsValid: false, Message: "password does not satisfy the policy", Information: policyResult.Violations})
	case errors.Is(err, service.ErrSamePassword):
		response.JSON(w, r, http.StatusOK, passwordResult{IsValid: false, Message: "new password must differ from the current password"})
	case errors.Is(err, service.ErrPasswordMismatch):
		observability.Audit(r, "user.password.rejected", "email", claims.Subject, "reason", "old_mismatch")
		response.JSON(w, r, http.StatusOK, passwordResult{IsValid: false, Message: "old password is incorrect"})
	case err != nil:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "password update failed", nil)
	default:
		observability.Audit(r, "user.password.changed", "email", claims.Subject)
		response.JSON(w, r, http.StatusOK, passwordResult{IsValid: true})
	}
}
