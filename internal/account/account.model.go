package account

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile mirrors an Account for lookup-by-email. Exactly one per account,
// created in the same transaction as the account itself.
type Profile struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}
