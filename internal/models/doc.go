// Package models defines the core domain models for Sharelyst.
//
// # Persisted Models
//
//   - User: a registered member; belongs to at most one group at a time
//   - Group: a set of members joined by a shared 6-digit code
//   - Transaction: one recorded expense with a total and a name
//   - Payment: one member's contribution toward a transaction
//
// # Derived Models
//
// Ledger and Contribution are read-only snapshots assembled by the store for
// the settlement engine. Balances and transfers computed from them are never
// persisted; a reset or delete makes any earlier computation stale.
//
// # Design Principles
//
// 1. **Decimal money**: every amount is a shopspring decimal, never float64
// 2. **Avoid circular references**: use ID strings instead of pointers for relationships
// 3. **Versioned ledgers**: Group.LedgerVersion changes whenever the unsettled set changes
package models
