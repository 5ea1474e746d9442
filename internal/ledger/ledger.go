// Package ledger implements the debt screen's view-model: a filtered,
// view-scoped copy of the remote debt records, local validation in front of
// every mutation, and the took -> gave settlement transition.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopadmin/internal/shopapi"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrDebtNotFound = errors.New("debt not in the current view")
	ErrAlreadyPaid  = errors.New("debt is not outstanding")
)

// API is the slice of the shop client the ledger talks to.
type API interface {
	GetDebts(ctx context.Context, userID, status string) ([]shopapi.Debt, error)
	CreateDebt(ctx context.Context, in shopapi.DebtInput) error
	UpdateDebt(ctx context.Context, id string, in shopapi.DebtUpdate) error
}

// Ledger holds one screen's worth of state. It is owned by a single
// goroutine, like the view it models.
type Ledger struct {
	api    API
	userID string
	status string
	debts  []shopapi.Debt
}

func New(api API) *Ledger {
	return &Ledger{api: api, status: shopapi.DebtStatusTook}
}

// Select records the current filters without fetching, the way the screen
// remembers its dropdowns before any results arrive.
func (l *Ledger) Select(userID, status string) error {
	if status != shopapi.DebtStatusTook && status != shopapi.DebtStatusGave {
		return fmt.Errorf("%w: status must be %q or %q", ErrValidation, shopapi.DebtStatusTook, shopapi.DebtStatusGave)
	}
	l.userID = userID
	l.status = status
	return nil
}

// List fetches debts for the given filters and replaces the view state.
// With no user selected the view shows an empty list and nothing is
// fetched. On failure the previous state is kept.
func (l *Ledger) List(ctx context.Context, userID, status string) ([]shopapi.Debt, error) {
	if err := l.Select(userID, status); err != nil {
		return nil, err
	}
	if l.userID == "" {
		l.debts = nil
		return nil, nil
	}
	debts, err := l.api.GetDebts(ctx, l.userID, l.status)
	if err != nil {
		return nil, err
	}
	l.debts = debts
	return debts, nil
}

// Debts returns the currently displayed records.
func (l *Ledger) Debts() []shopapi.Debt {
	return l.debts
}

type CreateInput struct {
	UserID string
	Amount float64
	Reason string
}

// Create validates locally first; an invalid input never reaches the
// network. On success the view re-lists with its current filters.
func (l *Ledger) Create(ctx context.Context, in CreateInput) error {
	if strings.TrimSpace(in.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if err := validatePayment(in.Amount, in.Reason); err != nil {
		return err
	}
	err := l.api.CreateDebt(ctx, shopapi.DebtInput{
		UserID: in.UserID,
		Amount: in.Amount,
		Reason: in.Reason,
	})
	if err != nil {
		return err
	}
	return l.refresh(ctx)
}

type Payment struct {
	Amount float64
	Reason string
}

// MarkPaid settles an outstanding debt: status moves to gave exactly once,
// with a possibly revised amount and reason. The debt must be in the
// current view and still outstanding.
func (l *Ledger) MarkPaid(ctx context.Context, debtID string, p Payment) error {
	debt := l.find(debtID)
	if debt == nil {
		return ErrDebtNotFound
	}
	if debt.Status != shopapi.DebtStatusTook {
		return ErrAlreadyPaid
	}
	if err := validatePayment(p.Amount, p.Reason); err != nil {
		return err
	}
	err := l.api.UpdateDebt(ctx, debtID, shopapi.DebtUpdate{
		Amount: p.Amount,
		Reason: p.Reason,
		Status: shopapi.DebtStatusGave,
	})
	if err != nil {
		return err
	}
	return l.refresh(ctx)
}

// Total folds the amounts of the given records. Display-only, never
// persisted.
func Total(debts []shopapi.Debt) float64 {
	var total float64
	for _, d := range debts {
		total += d.Amount
	}
	return total
}

func (l *Ledger) refresh(ctx context.Context) error {
	if l.userID == "" {
		return nil
	}
	debts, err := l.api.GetDebts(ctx, l.userID, l.status)
	if err != nil {
		return err
	}
	l.debts = debts
	return nil
}

func (l *Ledger) find(debtID string) *shopapi.Debt {
	for i := range l.debts {
		if l.debts[i].ID == debtID {
			return &l.debts[i]
		}
	}
	return nil
}

func validatePayment(amount float64, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: reason is required", ErrValidation)
	}
	return nil
}
