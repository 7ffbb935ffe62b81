package domain

import "time"

// User registered wallet owner.
type User struct {
	ID               int64     `json:"user_id"`
	Username         string    `json:"username"`
	HashedPassword   string    `json:"hashed_password"`
	RegistrationDate time.Time `json:"registration_date"`
}

// SessionUser identity of the logged-in user.
type SessionUser struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username"`
}
