package friendship

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// IsTerminal reports whether the status can no longer change. Pending
// resolves to accepted or rejected exactly once; resolved rows stay resolved.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Resolve maps a decision to the status it produces. ok is false for
// anything other than accept/reject.
func (d Decision) Resolve() (Status, bool) {
	switch d {
	case DecisionAccept:
		return StatusAccepted, true
	case DecisionReject:
		return StatusRejected, true
	}
	return "", false
}

// Friendship is a directed pending/accepted/rejected edge between two
// accounts. At most one row exists per unordered account pair, in either
// direction; the friendships table enforces this with a unique index on
// (least(requester, recipient), greatest(requester, recipient)).
type Friendship struct {
	ID          int64     `json:"id"`
	RequesterID uuid.UUID `json:"requesterId"`
	RecipientID uuid.UUID `json:"recipientId"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RelationshipView is a friendship row joined with the counterpart's
// profile email for display.
type RelationshipView struct {
	ID          int64     `json:"id"`
	RequesterID uuid.UUID `json:"requesterId"`
	RecipientID uuid.UUID `json:"recipientId"`
	Status      Status    `json:"status"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RelationshipList groups a user's edges by direction. Outgoing carries all
// statuses so the sender sees pending/accepted/rejected history; Incoming is
// filtered to pending, the only rows the user can still act on.
type RelationshipList struct {
	Outgoing []RelationshipView `json:"outgoing"`
	Incoming []RelationshipView `json:"incoming"`
}

// FriendTaskSummary is derived per unique accepted friend and never
// persisted.
type FriendTaskSummary struct {
	FriendID  uuid.UUID `json:"friendId"`
	Email     string    `json:"email"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
}
