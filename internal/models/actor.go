package models

import "time"

// Role identifies which kind of actor a request is acting as.
type Role string

const (
	RoleGuardian Role = "parent"
	RoleStaff    Role = "teacher"
	RoleAdmin    Role = "admin"

	// RoleAny accepts any token-resolved actor.
	RoleAny Role = ""
)

// Guardian is a parent or caregiver bound to a messaging-platform identity.
// OpenID is immutable once set and unique across guardians.
type Guardian struct {
	ID        string    `db:"id" json:"id"`
	OpenID    string    `db:"open_id" json:"openid"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Staff is a teacher-role actor authorized to record pickup events.
type Staff struct {
	ID        string    `db:"id" json:"id"`
	OpenID    string    `db:"open_id" json:"openid"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Admin operates the roster console. Admins authenticate with username and
// password, never via an external identity token.
type Admin struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AuthContext is the resolved identity attached to a request. Exactly one of
// Guardian or Staff is set for token-resolved actors; both are nil for admins.
type AuthContext struct {
	Role     Role
	ActorID  string
	Guardian *Guardian
	Staff    *Staff
	IsNew    bool
}
