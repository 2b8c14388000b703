package identity

import "time"

// User is a registered farmer account. Phone is stored in normalized form.
type User struct {
	ID        int64
	Phone     string
	PINHash   string
	CreatedAt time.Time
}
