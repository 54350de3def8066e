package processors

import (
	"fmt"

	"github.com/username/kakeibo/src/models"
)

// MissingMarketDataError reports an asset balance that needs FX conversion
// for a month with no market record. Fatal: skipping the row would corrupt
// the balance-sheet total.
type MissingMarketDataError struct {
	Month    models.Month
	Currency models.Currency
}

func (e *MissingMarketDataError) Error() string {
	return fmt.Sprintf("no market data for %s: cannot convert %s balance to JPY", e.Month, e.Currency)
}

// UnknownReferenceError reports a raw record referencing an account or
// payment-method id absent from master data. Fatal: classification cannot
// proceed, and substituting a default would misstate the statements.
type UnknownReferenceError struct {
	Kind  string // "account" or "payment method"
	ID    string
	Month models.Month
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("unknown %s %q referenced in %s", e.Kind, e.ID, e.Month)
}
