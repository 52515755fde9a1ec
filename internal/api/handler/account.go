// internal/api/handler/account.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"ledgerpay/internal/api/middleware"
	"ledgerpay/internal/api/types"
	"ledgerpay/internal/domain"
	"ledgerpay/internal/repository"
	"ledgerpay/internal/service"
	"ledgerpay/internal/util"
)

// DefaultTimeout bounds request handling at the router level.
const DefaultTimeout = 15 * time.Second

// maxDescriptionLen caps the free-text annotation on ledger entries.
const maxDescriptionLen = 50

// AccountHandler handles HTTP requests for account and ledger operations.
type AccountHandler struct {
	service service.AccountService
	logger  *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		service: svc,
		logger:  logger,
	}
}

func (h *AccountHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func (h *AccountHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidInput), util.IsError(err, util.ErrSelfTransfer):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrInvalidPIN):
		statusCode = http.StatusUnauthorized
		message = "Invalid pin"
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode = http.StatusPaymentRequired // 402 Payment Required
		message = "Insufficient funds"
	case util.IsError(err, util.ErrNotFound),
		util.IsError(err, util.ErrAccountNotFound),
		util.IsError(err, util.ErrDestinationNotFound),
		util.IsError(err, util.ErrUserNotFound),
		util.IsError(err, util.ErrTransactionNotFound):
		statusCode = http.StatusNotFound
		message = err.Error()
	case util.IsError(err, util.ErrDuplicateUser),
		util.IsError(err, util.ErrDuplicateAccount),
		util.IsError(err, util.ErrDuplicateReference),
		util.IsError(err, util.ErrAccountHasHistory):
		statusCode = http.StatusConflict
		message = err.Error()
	default:
		// Internal details stay in the log, never in the response body.
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

func (h *AccountHandler) caller(w http.ResponseWriter, r *http.Request) (middleware.Principal, bool) {
	p, ok := middleware.CallerFrom(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
	}
	return p, ok
}

func validDescription(description *string) bool {
	return description == nil || len(*description) <= maxDescriptionLen
}

// CreateUserRequest represents the request body for user registration.
type CreateUserRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

// CreateUser registers a user together with their single account.
// POST /users
func (h *AccountHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.Username == "" || !domain.ValidPIN(req.PIN) {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	user, account, err := h.service.CreateUserAndAccount(r.Context(), req.Username, req.PIN)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User created",
		"user":    user,
		"account": account,
	})
}

// DepositRequest represents the request body for deposit.
type DepositRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description"`
}

// Deposit credits the caller's account.
// POST /accounts/deposit
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	p, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() || !validDescription(req.Description) {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	account, err := h.service.Credit(r.Context(), p.ID, service.CreditInput{
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Deposit successful",
		"account": account,
	})
}

// WithdrawRequest represents the request body for withdrawal.
type WithdrawRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PIN         string          `json:"pin"`
	Description *string         `json:"description"`
}

// Withdraw debits the caller's account.
// POST /accounts/withdraw
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	p, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() || !domain.ValidPIN(req.PIN) || !validDescription(req.Description) {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	account, err := h.service.Debit(r.Context(), p.ID, service.DebitInput{
		Amount:      req.Amount,
		PIN:         req.PIN,
		Description: req.Description,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Withdrawal successful",
		"account": account,
	})
}

// TransferRequest represents the request body for transfer.
type TransferRequest struct {
	Amount               decimal.Decimal `json:"amount"`
	PIN                  string          `json:"pin"`
	DestinationAccountID int64           `json:"destination_account_id"`
	Description          *string         `json:"description"`
}

// Transfer moves funds from the caller's account to another account.
// POST /transfers
func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	p, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() || req.DestinationAccountID == 0 ||
		!domain.ValidPIN(req.PIN) || !validDescription(req.Description) {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	account, err := h.service.Transfer(r.Context(), p.ID, service.TransferInput{
		Amount:               req.Amount,
		PIN:                  req.PIN,
		DestinationAccountID: req.DestinationAccountID,
		Description:          req.Description,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Transfer successful",
		"account": account,
	})
}

// GetAccount returns one account projection.
// GET /accounts/{accountID}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	account, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, account)
}

// GetOwnAccount returns the caller's account projection.
// GET /accounts/me
func (h *AccountHandler) GetOwnAccount(w http.ResponseWriter, r *http.Request) {
	p, ok := h.caller(w, r)
	if !ok {
		return
	}

	account, err := h.service.GetAccountByOwner(r.Context(), p.ID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, account)
}

// DeleteAccount removes an account without ledger history.
// DELETE /accounts/{accountID}
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), accountID); err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}

// GetTransactionHistory lists ledger entries for an account, newest first,
// filterable by type, purpose and amount range.
// GET /accounts/{accountID}/transactions
func (h *AccountHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	filter := repository.TransactionFilter{AccountID: &accountID}

	query := r.URL.Query()
	if v := query.Get("type"); v != "" {
		entryType := domain.EntryType(v)
		if entryType != domain.EntryTypeCredit && entryType != domain.EntryTypeDebit {
			h.respondWithError(w, util.ErrInvalidInput)
			return
		}
		filter.Type = &entryType
	}
	if v := query.Get("purpose"); v != "" {
		purpose := domain.Purpose(v)
		switch purpose {
		case domain.PurposeDeposit, domain.PurposeWithdrawal, domain.PurposeTransfer:
			filter.Purpose = &purpose
		default:
			h.respondWithError(w, util.ErrInvalidInput)
			return
		}
	}
	if pred, err := amountPredicate(query.Get("min_amount"), query.Get("max_amount")); err != nil {
		h.respondWithError(w, err)
		return
	} else if pred != nil {
		filter.Amount = pred
	}

	filter.Limit, _ = strconv.Atoi(query.Get("limit"))
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	filter.Offset, _ = strconv.Atoi(query.Get("offset"))
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	transactions, totalCount, err := h.service.ListTransactions(r.Context(), filter)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Transaction]{
		Data:       transactions,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
		TotalCount: totalCount,
	})
}

// amountPredicate builds the amount filter from min/max query parameters.
func amountPredicate(minStr, maxStr string) (*repository.AmountPredicate, error) {
	if minStr == "" && maxStr == "" {
		return nil, nil
	}
	var min, max decimal.Decimal
	var err error
	if minStr != "" {
		if min, err = decimal.NewFromString(minStr); err != nil {
			return nil, util.ErrInvalidInput
		}
	}
	if maxStr != "" {
		if max, err = decimal.NewFromString(maxStr); err != nil {
			return nil, util.ErrInvalidInput
		}
	}
	switch {
	case minStr != "" && maxStr != "":
		return &repository.AmountPredicate{Op: repository.AmountBetween, Value: min, Upper: max}, nil
	case minStr != "":
		return &repository.AmountPredicate{Op: repository.AmountGTE, Value: min}, nil
	default:
		return &repository.AmountPredicate{Op: repository.AmountLTE, Value: max}, nil
	}
}

// UpdateTransactionRequest represents the request body for patching a ledger
// entry's annotation.
type UpdateTransactionRequest struct {
	Description *string `json:"description"`
}

// UpdateTransaction patches the description of a ledger entry. All financial
// fields are immutable.
// PATCH /transactions/{transactionID}
func (h *AccountHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID, err := strconv.ParseInt(chi.URLParam(r, "transactionID"), 10, 64)
	if err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	var req UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if !validDescription(req.Description) {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	transaction, err := h.service.UpdateTransactionDescription(r.Context(), transactionID, req.Description)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, transaction)
}
