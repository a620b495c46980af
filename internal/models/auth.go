package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminLoginRequest holds credentials for the console login.
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AdminLoginResponse returns the issued session token and admin info.
type AdminLoginResponse struct {
	SessionToken string    `json:"session_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
	Admin        AdminInfo `json:"admin"`
}

// AdminInfo describes the authenticated admin in responses.
type AdminInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// SessionClaims is the JWT payload for admin session tokens. The token is
// only honoured while its ID remains present in the session store, so a
// logout revokes it immediately.
type SessionClaims struct {
	AdminID  string `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// LoginResult is returned by the messaging-platform login flow.
type LoginResult struct {
	OpenID    string      `json:"openid"`
	Role      Role        `json:"role"`
	User      interface{} `json:"user"`
	IsNewUser bool        `json:"is_new_user,omitempty"`
}
