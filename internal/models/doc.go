// Package models defines the core domain models for Smart Treasurer.
//
// # Models
//
//   - Student: a person in a section, with one CategoryRecord per payment category
//   - Category: a named payment purpose with an optional collection target
//   - CategoryRecord: one student's payment state for one category
//   - Transaction: an informational payment history entry
//   - LedgerData: the persisted per-user record (students, categories, active category)
//   - User: a registered account that owns exactly one LedgerData
//
// # Design Principles
//
// 1. **Plain values**: models carry no behaviour beyond JSON encoding; mutation rules
// live in the ledger package
// 2. **IDs, not pointers**: students reference categories by ID string, and a stale
// ID in Student.Categories is tolerated and ignored by readers
// 3. **Stable wire shape**: JSON field names match the stored browser format
// (`students`, `categories`, `activeCategory`, `isPaid`, `paymentDate`, ...), so
// blobs written by older clients decode without translation
package models
