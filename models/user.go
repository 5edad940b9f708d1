package models

import "time"

// User is an account of the reference remote store.
type User struct {
	UserID       string    `json:"-"`
	Login        string    `json:"login" validate:"required,min=3,max=64"`
	Password     string    `json:"password,omitempty" validate:"required,min=6,max=128"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// Session is returned by the login endpoint.
type Session struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// Credential is the cached session the sync engine attaches to requests.
// It is stored as a singleton in the local user collection.
type Credential struct {
	UserID string    `json:"user_id"`
	Login  string    `json:"login"`
	Token  string    `json:"token"`
	At     time.Time `json:"at"`
}
