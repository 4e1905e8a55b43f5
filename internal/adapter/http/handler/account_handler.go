package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankfeed/internal/adapter/http/dto"
	"github.com/iho/bankfeed/internal/adapter/teller"
	"github.com/iho/bankfeed/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	ListAccounts(ctx context.Context) ([]usecase.AccountInfo, error)
	GetBalances(ctx context.Context, accountID string) (*teller.Balances, error)
}

// AccountHandler handles feed account HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// List lists the accounts visible to the enrollment.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.accountUC.ListAccounts(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to list accounts")
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromInfos(infos))
}

// Balances returns the feed's live balances for an account.
func (h *AccountHandler) Balances(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	balances, err := h.accountUC.GetBalances(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err, "failed to get balances")
		return
	}

	writeJSON(w, http.StatusOK, dto.BalancesFromFeed(balances))
}
