package model

import "time"

// Student represents a self-registered quiz taker.
type Student struct {
	ID           int       `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest is the payload shared by admin and student authentication.
// Only presence is checked here: the admin credentials come from
// configuration and need not follow the registration rules.
type LoginRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	ReturnURL string `json:"return_url" binding:"omitempty,max=2048"`
}

// RegisterRequest is the payload for student self-registration.
type RegisterRequest struct {
	FullName        string `json:"full_name" binding:"required,notblank,max=120"`
	Email           string `json:"email" binding:"required,email,max=160"`
	Password        string `json:"password" binding:"required,min=6,max=100"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}
