package users

import "time"

// User is the profile view of an account.
type User struct {
	ID        int64
	Email     string
	FullName  *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileUpdate carries the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	FullName *string
	Email    *string
}
