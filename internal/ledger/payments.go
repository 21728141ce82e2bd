package ledger

import (
	"github.com/mmynk/treasurer/internal/models"
)

// Transaction notes written by the ledger.
const (
	notePaymentRecorded = "Payment recorded"
)

// Payment is the input to SetPayment.
type Payment struct {
	Amount float64
	IsPaid bool

	// PaymentDate is optional. When absent and the record becomes paid, today
	// is used; an already-paid record keeps its date.
	PaymentDate models.Date
}

// SetPayment overwrites a student's record for a category. When the record is
// paid and has no history yet, a transaction capturing the payment is appended.
func (l *Ledger) SetPayment(studentID, categoryID string, p Payment) (models.CategoryRecord, error) {
	if err := validateAmount(p.Amount); err != nil {
		return models.CategoryRecord{}, err
	}
	date, err := models.ParseDate(string(p.PaymentDate))
	if err != nil {
		return models.CategoryRecord{}, err
	}
	s, rec, err := l.record(studentID, categoryID)
	if err != nil {
		return models.CategoryRecord{}, err
	}

	wasPaid := rec.IsPaid
	rec.Amount = p.Amount
	rec.IsPaid = p.IsPaid
	switch {
	case !p.IsPaid:
		rec.PaymentDate = ""
	case !date.IsZero():
		rec.PaymentDate = date
	case !wasPaid || rec.PaymentDate.IsZero():
		rec.PaymentDate = l.today()
	}

	if rec.IsPaid && len(rec.Transactions) == 0 {
		rec = l.appendTransaction(rec)
	}
	s.Categories[categoryID] = rec
	return rec.Clone(), nil
}

// TogglePayment flips a record between paid and unpaid. Marking paid stamps
// today's date (and a first transaction); marking unpaid clears the date.
func (l *Ledger) TogglePayment(studentID, categoryID string) (models.CategoryRecord, error) {
	s, rec, err := l.record(studentID, categoryID)
	if err != nil {
		return models.CategoryRecord{}, err
	}

	rec.IsPaid = !rec.IsPaid
	if rec.IsPaid {
		rec.PaymentDate = l.today()
		if len(rec.Transactions) == 0 {
			rec = l.appendTransaction(rec)
		}
	} else {
		rec.PaymentDate = ""
	}
	s.Categories[categoryID] = rec
	return rec.Clone(), nil
}

func (l *Ledger) appendTransaction(rec models.CategoryRecord) models.CategoryRecord {
	rec = rec.Clone()
	rec.Transactions = append(rec.Transactions, models.Transaction{
		ID:     l.newID(),
		Amount: rec.Amount,
		Date:   rec.PaymentDate,
		Notes:  notePaymentRecorded,
	})
	return rec
}
