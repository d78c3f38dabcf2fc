package models

// Session describes an authenticated dashboard session.
type Session struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateAccountRequest represents the account creation request body
type CreateAccountRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
