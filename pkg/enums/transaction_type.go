package enums

import "fmt"

// TransactionType classifies one entry in the inventory transaction ledger.
type TransactionType string

const (
	TransactionTypeSale        TransactionType = "sale"
	TransactionTypeRestock     TransactionType = "restock"
	TransactionTypeReturn      TransactionType = "return"
	TransactionTypeAdjustment  TransactionType = "adjustment"
	TransactionTypeReservation TransactionType = "reservation"
	TransactionTypeRelease     TransactionType = "release"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeSale,
	TransactionTypeRestock,
	TransactionTypeReturn,
	TransactionTypeAdjustment,
	TransactionTypeReservation,
	TransactionTypeRelease,
}

// IsValid reports whether the value matches the canonical transaction enum.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
