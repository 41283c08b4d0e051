package models

import "gorm.io/gorm"

// User represents a WhatsApp sender identity in the PostgreSQL database.
// A user is created on the first inbound message from an unknown mobile
// number and is only ever removed by the admin purge command.
type User struct {
	gorm.Model

	// Mobile is the canonical phone number ("+91" prefixed), globally unique.
	Mobile string `gorm:"uniqueIndex;not null" json:"mobile"`
	// Name is the WhatsApp profile name as reported by the channel.
	Name string `gorm:"type:text" json:"name"`
	// Slug is the opaque public identifier used in status-lookup links.
	// It is assigned once at creation and never changes.
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`
	// Role tags staff accounts; regular senders are "USER".
	Role string `gorm:"type:text;default:USER" json:"role"`
}
