package models

import "regexp"

var whitespaceRun = regexp.MustCompile(`\s+`)

// Category is a named payment purpose (e.g. "Tuition Fund").
type Category struct {
	// ID is unique within one ledger. Migrated and legacy-imported ledgers use "default".
	ID string `json:"id"`

	Name string `json:"name"`

	Description string `json:"description"`

	// TargetAmount is the collection goal; 0 means no target.
	TargetAmount float64 `json:"targetAmount"`
}

// ColumnKey is the prefix of the category's spreadsheet columns: the name
// with whitespace runs replaced by "_". Keys are unique within a ledger.
func (c Category) ColumnKey() string {
	return whitespaceRun.ReplaceAllString(c.Name, "_")
}

// CategoryRecord is one student's payment state for one category.
type CategoryRecord struct {
	Amount float64 `json:"amount"`

	IsPaid bool `json:"isPaid"`

	// PaymentDate is only meaningful when IsPaid is true.
	PaymentDate Date `json:"paymentDate"`

	// Transactions is an append-only history log. It is informational and is
	// not required to reconcile with Amount or IsPaid.
	Transactions []Transaction `json:"transactions"`
}

// Transaction is one entry of a CategoryRecord's history.
type Transaction struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Date   Date    `json:"date"`
	Notes  string  `json:"notes"`
}

// EmptyRecord returns the zero-valued record every new category starts with.
func EmptyRecord() CategoryRecord {
	return CategoryRecord{Transactions: []Transaction{}}
}

// Clone returns a copy that does not share the transaction slice.
func (r CategoryRecord) Clone() CategoryRecord {
	c := r
	c.Transactions = make([]Transaction, len(r.Transactions))
	copy(c.Transactions, r.Transactions)
	return c
}
