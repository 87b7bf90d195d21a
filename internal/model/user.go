package model

import "time"

type User struct {
	ID                 int64      `json:"id"`
	Username           *string    `json:"username"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	IsVerified         bool       `json:"is_verified"`
	VerificationCode   *string    `json:"-"`
	VerificationExpiry *time.Time `json:"-"`
	IsAdmin            bool       `json:"is_admin"`
	CreatedAt          time.Time  `json:"created_at"`
}

// CodeMatches reports whether code equals the outstanding verification code.
func (u *User) CodeMatches(code string) bool {
	return u.VerificationCode != nil && *u.VerificationCode == code
}

// CodeExpired reports whether the outstanding verification code has expired at now.
func (u *User) CodeExpired(now time.Time) bool {
	return u.VerificationExpiry == nil || !now.Before(*u.VerificationExpiry)
}
