// internal/api/handler/account_test.go
package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ledgerpay/internal/api"
	"ledgerpay/internal/api/handler"
	"ledgerpay/internal/domain"
	"ledgerpay/internal/repository"
	"ledgerpay/internal/service"
	"ledgerpay/internal/util"
)

// MockAccountService is a mock implementation of service.AccountService.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Credit(ctx context.Context, ownerID int64, in service.CreditInput) (domain.AccountView, error) {
	args := m.Called(ctx, ownerID, in)
	return args.Get(0).(domain.AccountView), args.Error(1)
}

func (m *MockAccountService) Debit(ctx context.Context, ownerID int64, in service.DebitInput) (domain.AccountView, error) {
	args := m.Called(ctx, ownerID, in)
	return args.Get(0).(domain.AccountView), args.Error(1)
}

func (m *MockAccountService) Transfer(ctx context.Context, ownerID int64, in service.TransferInput) (domain.AccountView, error) {
	args := m.Called(ctx, ownerID, in)
	return args.Get(0).(domain.AccountView), args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, id int64) (domain.AccountView, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.AccountView), args.Error(1)
}

func (m *MockAccountService) GetAccountByOwner(ctx context.Context, ownerID int64) (domain.AccountView, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(domain.AccountView), args.Error(1)
}

func (m *MockAccountService) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountService) UpdateTransactionDescription(ctx context.Context, id int64, description *string) (*domain.Transaction, error) {
	args := m.Called(ctx, id, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockAccountService) CreateUserAndAccount(ctx context.Context, username, pin string) (*domain.User, domain.AccountView, error) {
	args := m.Called(ctx, username, pin)
	if args.Get(0) == nil {
		return nil, domain.AccountView{}, args.Error(2)
	}
	return args.Get(0).(*domain.User), args.Get(1).(domain.AccountView), args.Error(2)
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// newTestServer mounts the full router over a mocked service. The idempotency
// middleware passes requests without an Idempotency-Key straight through, so
// no Redis instance is required.
func newTestServer(t *testing.T) (*httptest.Server, *MockAccountService) {
	t.Helper()
	svc := new(MockAccountService)
	h := handler.NewAccountHandler(svc, util.GetLogger())
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	server := httptest.NewServer(api.NewRouter(h, rdb, util.GetLogger()))
	t.Cleanup(server.Close)
	return server, svc
}

func doJSON(t *testing.T, method, url string, headers map[string]string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func asUser(id string) map[string]string {
	return map[string]string{"X-User-ID": id}
}

func TestCreateUser(t *testing.T) {
	server, svc := newTestServer(t)
	svc.On("CreateUserAndAccount", mock.Anything, "alice", "1234").
		Return(&domain.User{ID: 42, Username: "alice"}, domain.AccountView{ID: 9, OwnerID: 42}, nil)

	resp := doJSON(t, http.MethodPost, server.URL+"/users", nil, map[string]string{
		"username": "alice",
		"pin":      "1234",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestDepositRequiresPrincipal(t *testing.T) {
	server, svc := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/accounts/deposit", nil, map[string]string{"amount": "50.00"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	svc.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeposit(t *testing.T) {
	server, svc := newTestServer(t)
	svc.On("Credit", mock.Anything, int64(7), mock.MatchedBy(func(in service.CreditInput) bool {
		return in.Amount.Equal(decimal.RequireFromString("50.00"))
	})).Return(domain.AccountView{ID: 1, OwnerID: 7, Balance: decimal.RequireFromString("150.00")}, nil)

	resp := doJSON(t, http.MethodPost, server.URL+"/accounts/deposit", asUser("7"), map[string]string{"amount": "50.00"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	svc.AssertExpectations(t)
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	server, svc := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/accounts/deposit", asUser("7"), map[string]string{"amount": "-1.00"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	svc.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything)
}

func TestWithdrawInsufficientFundsMapsToPaymentRequired(t *testing.T) {
	server, svc := newTestServer(t)
	svc.On("Debit", mock.Anything, int64(7), mock.Anything).
		Return(domain.AccountView{}, util.ErrInsufficientFunds)

	resp := doJSON(t, http.MethodPost, server.URL+"/accounts/withdraw", asUser("7"), map[string]string{
		"amount": "100.00",
		"pin":    "1234",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
}

func TestWithdrawWrongPIN(t *testing.T) {
	server, svc := newTestServer(t)
	svc.On("Debit", mock.Anything, int64(7), mock.Anything).
		Return(domain.AccountView{}, util.ErrInvalidPIN)

	resp := doJSON(t, http.MethodPost, server.URL+"/accounts/withdraw", asUser("7"), map[string]string{
		"amount": "10.00",
		"pin":    "9999",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTransferSelfTransferIsBadRequest(t *testing.T) {
	server, svc := newTestServer(t)
	svc.On("Transfer", mock.Anything, int64(7), mock.Anything).
		Return(domain.AccountView{}, util.ErrSelfTransfer)

	resp := doJSON(t, http.MethodPost, server.URL+"/transfers", asUser("7"), map[string]interface{}{
		"amount":                 "10.00",
		"pin":                    "1234",
		"destination_account_id": 1,
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTransferDestinationNotFound(t *testing.T) {
	server, svc := newTestServer(t)
	svc.On("Transfer", mock.Anything, int64(7), mock.Anything).
		Return(domain.AccountView{}, util.ErrDestinationNotFound)

	resp := doJSON(t, http.MethodPost, server.URL+"/transfers", asUser("7"), map[string]interface{}{
		"amount":                 "10.00",
		"pin":                    "1234",
		"destination_account_id": 99,
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetAccountNotFound(t *testing.T) {
	server, svc := newTestServer(t)
	svc.On("GetAccount", mock.Anything, int64(5)).
		Return(domain.AccountView{}, util.ErrAccountNotFound)

	resp := doJSON(t, http.MethodGet, server.URL+"/accounts/5", asUser("7"), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetTransactionHistoryBuildsFilter(t *testing.T) {
	server, svc := newTestServer(t)
	svc.On("ListTransactions", mock.Anything, mock.MatchedBy(func(f repository.TransactionFilter) bool {
		return f.AccountID != nil && *f.AccountID == 5 &&
			f.Type != nil && *f.Type == domain.EntryTypeDebit &&
			f.Amount != nil && f.Amount.Op == repository.AmountGTE &&
			f.Amount.Value.Equal(decimal.RequireFromString("10.00"))
	})).Return([]domain.Transaction{}, int64(0), nil)

	resp := doJSON(t, http.MethodGet, server.URL+"/accounts/5/transactions?type=debit&min_amount=10.00", asUser("7"), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	svc.AssertExpectations(t)
}
