package models

// Group is a shared expense ledger that users join with Code.
type Group struct {
	// ID is assigned by the store on insert.
	ID int64 `db:"id"`

	// Name is the display name of the group (e.g., "Trip", "Roommates").
	Name string `db:"name"`

	// Code is the short invite code. It is unique across all groups and is
	// the only way to join.
	Code string `db:"code"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `db:"created_at"`
}

// Membership records that a user belongs to a group.
// At most one Membership exists per (UserID, GroupID) pair.
type Membership struct {
	ID       int64 `db:"id"`
	UserID   int64 `db:"user_id"`
	GroupID  int64 `db:"group_id"`
	JoinedAt int64 `db:"joined_at"`
}

// Member is a group member as shown to clients.
type Member struct {
	UserID   int64  `db:"user_id"`
	Username string `db:"username"`
	JoinedAt int64  `db:"joined_at"`
}
