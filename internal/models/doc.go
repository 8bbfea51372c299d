// Package models defines the core domain records for splitledger.
//
// # Records
//
//   - User: a registered account, identified by a unique username
//   - Group: a shared ledger that people join with a short invite code
//   - Membership: the link between one user and one group
//   - Expense: an amount paid by one user on behalf of a group
//
// # Design Principles
//
//  1. Records reference each other by id only. Joins happen in queries, never
//     through embedded pointers.
//  2. Timestamps are Unix seconds in UTC.
//  3. Money is a decimal.Decimal, never a float.
//  4. Partial updates use Optional fields so that "absent" and "empty" stay
//     distinct.
package models
