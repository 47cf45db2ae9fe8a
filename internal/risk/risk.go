// Package risk defines the pluggable pre-trade check every strategy-
// generated order and cancel passes through before it reaches the
// execution router. The engine does not interpret refusal reasons; they
// exist for audit and operator visibility only.
package risk

import (
	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/state"
)

// Refusal pairs a refused open request with a free-form human-readable
// reason.
type Refusal struct {
	Request domain.OrderRequestOpen
	Reason  string
}

// CancelRefusal pairs a refused cancel request with a reason.
type CancelRefusal struct {
	Request domain.OrderRequestCancel
	Reason  string
}

// Checker is the trait every risk implementation satisfies.
type Checker interface {
	Check(opens []domain.OrderRequestOpen, s *state.Store) (approved []domain.OrderRequestOpen, refused []Refusal)
	CheckCancels(cancels []domain.OrderRequestCancel, s *state.Store) (approved []domain.OrderRequestCancel, refused []CancelRefusal)
}

// ApproveAll is the default risk checker: it approves every open and every
// cancel unconditionally. Suitable for backtests and for strategies that
// implement their own sizing discipline upstream.
type ApproveAll struct{}

var _ Checker = ApproveAll{}

// Check approves every open request.
func (ApproveAll) Check(opens []domain.OrderRequestOpen, _ *state.Store) ([]domain.OrderRequestOpen, []Refusal) {
	return opens, nil
}

// CheckCancels approves every cancel request.
func (ApproveAll) CheckCancels(cancels []domain.OrderRequestCancel, _ *state.Store) ([]domain.OrderRequestCancel, []CancelRefusal) {
	return cancels, nil
}
