package actions

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

type IAction interface {
	Name() string
	Perform(ctx context.Context, writer storage.Writer) error
}

// Effectful actions report the ledger effects of their last successful
// Perform.
type Effectful interface {
	LedgerEffects() *ledger.Effects
}

// Base carries what every ledger action needs. Embed it and set Effects from
// Perform.
type Base struct {
	Processor *ledger.Processor
	BudgetID  uuid.UUID

	Effects *ledger.Effects
}

func (b *Base) LedgerEffects() *ledger.Effects {
	return b.Effects
}
