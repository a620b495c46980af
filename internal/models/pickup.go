package models

import "time"

// PickupEvent is an immutable record of a child being collected by staff.
// OccurredAt is assigned by the server at creation; there is no update or
// delete path anywhere in the authorized surface.
type PickupEvent struct {
	ID         string    `db:"id" json:"id"`
	ChildID    string    `db:"child_id" json:"child_id"`
	StaffID    string    `db:"staff_id" json:"staff_id"`
	PhotoURL   string    `db:"photo_url" json:"photo_url"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
	Notes      string    `db:"notes" json:"notes"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PickupEventDetail joins display fields for record listings.
type PickupEventDetail struct {
	PickupEvent
	ChildName string `db:"child_name" json:"child_name"`
	StaffName string `db:"staff_name" json:"staff_name"`
}
