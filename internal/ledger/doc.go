// Package ledger is the profit-accrual and balance-transfer engine.
//
// Every function here is pure: it takes the current time explicitly, mutates
// only the values passed in, and returns the ledger entries it produced in
// the Book. Persistence and locking belong to the caller, which must run each
// call inside a single storage transaction for the owning account.
package ledger
