package models

import "time"

// Child is a student on the roster. Managed exclusively by admins.
type Child struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	EnrollmentNumber string    `db:"enrollment_number" json:"enrollment_number"`
	ClassName        string    `db:"class_name" json:"class_name"`
	Grade            string    `db:"grade" json:"grade"`
	AvatarURL        string    `db:"avatar_url" json:"avatar_url"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// GuardianChildLink is the authorization edge between a guardian and a child.
// Its presence is necessary and sufficient for the guardian to view the
// child's pickup records. At most one link exists per (guardian, child) pair.
type GuardianChildLink struct {
	ID           string    `db:"id" json:"id"`
	GuardianID   string    `db:"guardian_id" json:"guardian_id"`
	ChildID      string    `db:"child_id" json:"child_id"`
	Relationship *string   `db:"relationship" json:"relationship,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
