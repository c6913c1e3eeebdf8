package model

import "time"

// Profile is the optional extended account record.
type Profile struct {
	JobTitle string `json:"job_title,omitempty"`
	Plan     string `json:"plan,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// User is the account record returned by the backend on login.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsBlocked bool      `json:"is_blocked,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
	LastLogin Timestamp `json:"last_login"`
	Profile   *Profile  `json:"profile,omitempty"`
}

// IsAdmin reports whether the user may manage other accounts.
func (u User) IsAdmin() bool {
	return u.Role == "admin" || u.Role == "Admin"
}

// Session is the persisted record of the logged-in user.
type Session struct {
	User       User      `json:"user"`
	LoggedInAt time.Time `json:"logged_in_at"`
}
