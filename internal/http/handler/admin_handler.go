package handler

import (
	"net/http"

	"memberboard/internal/http/response"
	"memberboard/internal/service"
)

type AdminHandler struct {
	accountSvc *service.AccountService
}

func NewAdminHandler(accountSvc *service.AccountService) *AdminHandler {
	return &AdminHandler{accountSvc: accountSvc}
}

// Statistics reports membership totals and activity windows computed
// against the store clock.
func (h *AdminHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.accountSvc.Statistics()
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "statistics unavailable", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, stats)
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountSvc.List()
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "user list unavailable", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"users": accounts, "count": len(accounts)})
}
