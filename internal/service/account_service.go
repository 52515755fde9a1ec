// internal/service/account_service.go
package service

import (
	"context"
	"fmt"

	"ledgerpay/internal/domain"
	"ledgerpay/internal/event"
	"ledgerpay/internal/repository"
	"ledgerpay/internal/util"
	"ledgerpay/pkg/db"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditInput carries the validated parameters of a credit operation.
type CreditInput struct {
	Amount      decimal.Decimal
	Description *string
}

// DebitInput carries the validated parameters of a debit operation.
type DebitInput struct {
	Amount      decimal.Decimal
	PIN         string
	Description *string
}

// TransferInput carries the validated parameters of a transfer operation.
type TransferInput struct {
	Amount               decimal.Decimal
	PIN                  string
	DestinationAccountID int64
	Description          *string
}

// AccountService defines the account transaction engine: every balance
// mutation runs as one atomic unit of work that also records the matching
// ledger entry.
type AccountService interface {
	Credit(ctx context.Context, ownerID int64, in CreditInput) (domain.AccountView, error)
	Debit(ctx context.Context, ownerID int64, in DebitInput) (domain.AccountView, error)
	Transfer(ctx context.Context, ownerID int64, in TransferInput) (domain.AccountView, error)
	GetAccount(ctx context.Context, id int64) (domain.AccountView, error)
	GetAccountByOwner(ctx context.Context, ownerID int64) (domain.AccountView, error)
	ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]domain.Transaction, int64, error)
	UpdateTransactionDescription(ctx context.Context, id int64, description *string) (*domain.Transaction, error)
	CreateUserAndAccount(ctx context.Context, username, pin string) (*domain.User, domain.AccountView, error)
	DeleteAccount(ctx context.Context, id int64) error
}

// accountService implements the AccountService interface.
type accountService struct {
	dbBeginner      db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor      repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	userRepo        repository.UserRepository
	accountRepo     repository.AccountRepository
	transactionRepo repository.TransactionRepository
	bus             *event.Bus
	hasher          domain.PINHasher
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
}

// NewAccountService creates a new instance of AccountService.
func NewAccountService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	accountRepo repository.AccountRepository,
	transactionRepo repository.TransactionRepository,
	bus *event.Bus,
	hasher domain.PINHasher,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) AccountService {
	return &accountService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		userRepo:        userRepo,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		bus:             bus,
		hasher:          hasher,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
	}
}

// Credit adds funds to the caller's account. No PIN is required for credits.
func (s *accountService) Credit(ctx context.Context, ownerID int64, in CreditInput) (domain.AccountView, error) {
	amount, err := normalizeAmount(in.Amount)
	if err != nil {
		return domain.AccountView{}, err
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return domain.AccountView{}, fmt.Errorf("credit: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return domain.AccountView{}, fmt.Errorf("credit: transaction controller does not implement DBExecutor")
	}

	account, err := s.accountRepo.GetByOwnerForUpdate(ctx, txExecutor, ownerID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return domain.AccountView{}, util.ErrAccountNotFound
		}
		return domain.AccountView{}, fmt.Errorf("credit: failed to load account for owner %d: %w", ownerID, err)
	}

	newBalance := account.Balance.Add(amount).Round(2)
	if err := s.accountRepo.UpdateBalance(ctx, txExecutor, account.ID, amount); err != nil {
		return domain.AccountView{}, fmt.Errorf("credit: failed to update balance: %w", err)
	}

	entry := domain.NewTransaction(
		account.ID, domain.EntryTypeCredit, domain.PurposeDeposit,
		amount, account.Balance, newBalance, uuid.NewString(), in.Description,
	)
	if err := s.bus.Publish(ctx, txExecutor, event.CreditRecorded{Entry: entry}); err != nil {
		return domain.AccountView{}, fmt.Errorf("credit: failed to record ledger entry: %w", err)
	}

	updated, err := s.accountRepo.GetByID(ctx, txExecutor, account.ID)
	if err != nil {
		return domain.AccountView{}, fmt.Errorf("credit: failed to re-fetch account %d: %w", account.ID, err)
	}

	if err := s.commitTx(txController); err != nil {
		return domain.AccountView{}, fmt.Errorf("credit: failed to commit transaction: %w", err)
	}

	return updated.Redacted(), nil
}

// Debit removes funds from the caller's account after verifying the PIN and
// sufficient balance. Both checks run under the account's row lock so two
// concurrent debits cannot both observe the same balance.
func (s *accountService) Debit(ctx context.Context, ownerID int64, in DebitInput) (domain.AccountView, error) {
	amount, err := normalizeAmount(in.Amount)
	if err != nil {
		return domain.AccountView{}, err
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return domain.AccountView{}, fmt.Errorf("debit: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return domain.AccountView{}, fmt.Errorf("debit: transaction controller does not implement DBExecutor")
	}

	account, err := s.accountRepo.GetByOwnerForUpdate(ctx, txExecutor, ownerID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return domain.AccountView{}, util.ErrAccountNotFound
		}
		return domain.AccountView{}, fmt.Errorf("debit: failed to load account for owner %d: %w", ownerID, err)
	}

	// PIN check precedes any write.
	if err := s.hasher.Compare(account.PINHash, in.PIN); err != nil {
		return domain.AccountView{}, err
	}

	if account.Balance.LessThan(amount) {
		return domain.AccountView{}, util.ErrInsufficientFunds
	}

	newBalance := account.Balance.Sub(amount).Round(2)
	if err := s.accountRepo.UpdateBalance(ctx, txExecutor, account.ID, amount.Neg()); err != nil {
		return domain.AccountView{}, fmt.Errorf("debit: failed to update balance: %w", err)
	}

	entry := domain.NewTransaction(
		account.ID, domain.EntryTypeDebit, domain.PurposeWithdrawal,
		amount, account.Balance, newBalance, uuid.NewString(), in.Description,
	)
	if err := s.bus.Publish(ctx, txExecutor, event.DebitRecorded{Entry: entry}); err != nil {
		return domain.AccountView{}, fmt.Errorf("debit: failed to record ledger entry: %w", err)
	}

	updated, err := s.accountRepo.GetByID(ctx, txExecutor, account.ID)
	if err != nil {
		return domain.AccountView{}, fmt.Errorf("debit: failed to re-fetch account %d: %w", account.ID, err)
	}

	if err := s.commitTx(txController); err != nil {
		return domain.AccountView{}, fmt.Errorf("debit: failed to commit transaction: %w", err)
	}

	return updated.Redacted(), nil
}

// Transfer moves funds from the caller's account to another account. Both
// balance mutations and both ledger entries commit in one atomic unit, with
// the two entries sharing a single reference token.
func (s *accountService) Transfer(ctx context.Context, ownerID int64, in TransferInput) (domain.AccountView, error) {
	amount, err := normalizeAmount(in.Amount)
	if err != nil {
		return domain.AccountView{}, err
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return domain.AccountView{}, fmt.Errorf("transfer: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return domain.AccountView{}, fmt.Errorf("transfer: transaction controller does not implement DBExecutor")
	}

	// Resolve the source first; the self-transfer check only needs its ID.
	source, err := s.accountRepo.GetByOwner(ctx, txExecutor, ownerID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return domain.AccountView{}, util.ErrAccountNotFound
		}
		return domain.AccountView{}, fmt.Errorf("transfer: failed to load source account for owner %d: %w", ownerID, err)
	}
	if source.ID == in.DestinationAccountID {
		return domain.AccountView{}, util.ErrSelfTransfer
	}

	// Lock both rows in ascending ID order so two opposing transfers between
	// the same pair of accounts cannot deadlock.
	source, destination, err := s.lockPair(ctx, txExecutor, source.ID, in.DestinationAccountID)
	if err != nil {
		return domain.AccountView{}, err
	}

	if err := s.hasher.Compare(source.PINHash, in.PIN); err != nil {
		return domain.AccountView{}, err
	}

	if source.Balance.LessThan(amount) {
		return domain.AccountView{}, util.ErrInsufficientFunds
	}

	reference := uuid.NewString()
	newSourceBalance := source.Balance.Sub(amount).Round(2)
	newDestinationBalance := destination.Balance.Add(amount).Round(2)

	if err := s.accountRepo.UpdateBalance(ctx, txExecutor, source.ID, amount.Neg()); err != nil {
		return domain.AccountView{}, fmt.Errorf("transfer: failed to debit source account: %w", err)
	}
	debitEntry := domain.NewTransaction(
		source.ID, domain.EntryTypeDebit, domain.PurposeTransfer,
		amount, source.Balance, newSourceBalance, reference, in.Description,
	)
	if err := s.bus.Publish(ctx, txExecutor, event.DebitRecorded{Entry: debitEntry}); err != nil {
		return domain.AccountView{}, fmt.Errorf("transfer: failed to record debit entry: %w", err)
	}

	if err := s.accountRepo.UpdateBalance(ctx, txExecutor, destination.ID, amount); err != nil {
		return domain.AccountView{}, fmt.Errorf("transfer: failed to credit destination account: %w", err)
	}
	creditEntry := domain.NewTransaction(
		destination.ID, domain.EntryTypeCredit, domain.PurposeTransfer,
		amount, destination.Balance, newDestinationBalance, reference, in.Description,
	)
	if err := s.bus.Publish(ctx, txExecutor, event.CreditRecorded{Entry: creditEntry}); err != nil {
		return domain.AccountView{}, fmt.Errorf("transfer: failed to record credit entry: %w", err)
	}

	updated, err := s.accountRepo.GetByID(ctx, txExecutor, source.ID)
	if err != nil {
		return domain.AccountView{}, fmt.Errorf("transfer: failed to re-fetch source account %d: %w", source.ID, err)
	}

	if err := s.commitTx(txController); err != nil {
		return domain.AccountView{}, fmt.Errorf("transfer: failed to commit transaction: %w", err)
	}

	return updated.Redacted(), nil
}

// lockPair acquires row locks on sourceID and destinationID in ascending ID
// order and returns the freshly read rows.
func (s *accountService) lockPair(ctx context.Context, q repository.DBExecutor, sourceID, destinationID int64) (source, destination *domain.Account, err error) {
	firstID, secondID := sourceID, destinationID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	lock := func(id int64) (*domain.Account, error) {
		account, err := s.accountRepo.GetByIDForUpdate(ctx, q, id)
		if err != nil {
			if util.IsError(err, util.ErrNotFound) {
				if id == sourceID {
					return nil, util.ErrAccountNotFound
				}
				return nil, util.ErrDestinationNotFound
			}
			return nil, fmt.Errorf("transfer: failed to lock account %d: %w", id, err)
		}
		return account, nil
	}

	first, err := lock(firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := lock(secondID)
	if err != nil {
		return nil, nil, err
	}

	if first.ID == sourceID {
		return first, second, nil
	}
	return second, first, nil
}

// GetAccount retrieves an account projection by account ID.
func (s *accountService) GetAccount(ctx context.Context, id int64) (domain.AccountView, error) {
	account, err := s.accountRepo.GetByID(ctx, s.dbExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return domain.AccountView{}, util.ErrAccountNotFound
		}
		return domain.AccountView{}, fmt.Errorf("get account: failed to get account %d: %w", id, err)
	}
	return account.Redacted(), nil
}

// GetAccountByOwner retrieves the caller's account projection.
func (s *accountService) GetAccountByOwner(ctx context.Context, ownerID int64) (domain.AccountView, error) {
	account, err := s.accountRepo.GetByOwner(ctx, s.dbExecutor, ownerID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return domain.AccountView{}, util.ErrAccountNotFound
		}
		return domain.AccountView{}, fmt.Errorf("get account: failed to get account for owner %d: %w", ownerID, err)
	}
	return account.Redacted(), nil
}

// ListTransactions retrieves ledger entries matching the filter, newest
// first, plus the total match count.
func (s *accountService) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]domain.Transaction, int64, error) {
	transactions, totalCount, err := s.transactionRepo.Find(ctx, s.dbExecutor, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve transaction history: %w", err)
	}
	return transactions, totalCount, nil
}

// UpdateTransactionDescription patches the annotation of a ledger entry.
// Financial fields are immutable.
func (s *accountService) UpdateTransactionDescription(ctx context.Context, id int64, description *string) (*domain.Transaction, error) {
	transaction, err := s.transactionRepo.UpdateDescription(ctx, s.dbExecutor, id, description)
	if err != nil {
		if util.IsError(err, util.ErrTransactionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update transaction %d description: %w", id, err)
	}
	return transaction, nil
}

// CreateUserAndAccount registers a user and their single account in one
// atomic unit. The PIN is hashed before the account value is constructed.
func (s *accountService) CreateUserAndAccount(ctx context.Context, username, pin string) (*domain.User, domain.AccountView, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, domain.AccountView{}, fmt.Errorf("create user and account: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, domain.AccountView{}, fmt.Errorf("create user and account: transaction controller does not implement DBExecutor")
	}

	user := domain.NewUser(username)
	if err := s.userRepo.Create(ctx, txExecutor, user); err != nil {
		if util.IsError(err, util.ErrDuplicateUser) {
			return nil, domain.AccountView{}, err
		}
		return nil, domain.AccountView{}, fmt.Errorf("create user and account: failed to create user: %w", err)
	}

	account, err := domain.NewAccount(user.ID, pin, s.hasher)
	if err != nil {
		return nil, domain.AccountView{}, err
	}
	if err := s.accountRepo.Create(ctx, txExecutor, account); err != nil {
		if util.IsError(err, util.ErrDuplicateAccount) {
			return nil, domain.AccountView{}, err
		}
		return nil, domain.AccountView{}, fmt.Errorf("create user and account: failed to create account: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, domain.AccountView{}, fmt.Errorf("create user and account: failed to commit transaction: %w", err)
	}

	return user, account.Redacted(), nil
}

// DeleteAccount removes an account that has no ledger history.
func (s *accountService) DeleteAccount(ctx context.Context, id int64) error {
	count, err := s.accountRepo.Delete(ctx, s.dbExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrAccountHasHistory) {
			return err
		}
		return fmt.Errorf("failed to delete account %d: %w", id, err)
	}
	if count == 0 {
		return util.ErrAccountNotFound
	}
	return nil
}

// normalizeAmount re-asserts the positive-amount invariant defensively and
// rounds to 2 decimal places (half away from zero), the ledger's precision.
func normalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	rounded := amount.Round(2)
	if rounded.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, util.ErrInvalidInput
	}
	return rounded, nil
}
