package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Intake phases, in transition order. A complaint moves forward one phase per
// accepted message; COMPLETED is terminal. Suggestions shortcut from
// COMPLAINT_TYPE straight to COMPLETED.
const (
	PhaseInit          = "INIT"
	PhaseLanguage      = "LANGUAGE"
	PhaseComplaintType = "COMPLAINT_TYPE"
	PhaseTaluka        = "TALUKA"
	PhaseDescription   = "DESCRIPTION"
	PhaseAttachment    = "ATTACHMENT"
	PhaseLocation      = "LOCATION"
	PhaseCompleted     = "COMPLETED"
)

// Complaint kinds.
const (
	TypeComplaint  = "COMPLAINT"
	TypeSuggestion = "SUGGESTION"
)

// Supported languages, stored as localization codes.
const (
	LanguageEnglish = "en"
	LanguageHindi   = "hi"
	LanguageMarathi = "mr"
)

// MediaItem is one attached photo or video, already re-hosted on our storage.
type MediaItem struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Kind       string    `json:"kind"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// MediaList is an ordered set of media descriptors stored as a jsonb column.
type MediaList []MediaItem

// Value implements driver.Valuer for GORM.
func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		m = MediaList{}
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for GORM.
func (m *MediaList) Scan(value interface{}) error {
	if value == nil {
		*m = MediaList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported media column type %T", value)
	}
}

// Complaint represents one complaint-or-suggestion intake record.
// The embedded gorm.Model provides ID, CreatedAt, UpdatedAt, and DeletedAt;
// ID and CreatedAt together determine the public reference id.
type Complaint struct {
	gorm.Model

	// UserID is the owning sender.
	UserID uint `gorm:"not null;index"`
	// Type is COMPLAINT or SUGGESTION; empty until the sender picks one.
	Type string `gorm:"type:text"`
	// Phase is the complaint's position in the intake state machine.
	Phase string `gorm:"type:text;not null;index"`
	// Language drives every outbound prompt for this complaint.
	Language string `gorm:"type:text;not null;default:en"`
	// Taluka is the free-text administrative region picked from the list.
	Taluka string `gorm:"type:text"`
	// Description is the complaint or suggestion narrative.
	Description string `gorm:"type:text"`
	// Location is the free-text location detail captured late in the flow.
	Location string `gorm:"type:text"`
	// Media holds re-hosted attachments in upload order.
	Media MediaList `gorm:"type:jsonb"`

	// Public-board attributes. The bot only writes the defaults; the board
	// features themselves live outside this service.
	IsPublic        bool `gorm:"default:true"`
	IsMediaApproved bool `gorm:"default:true"`
	CoSignCount     int  `gorm:"default:0"`
}

// referencePrefix is the fixed prefix of every public complaint id.
const referencePrefix = "BG"

// ReferenceID derives the human-facing complaint id, e.g. "BG-150126-0042":
// day, month, and two-digit year of creation, then the numeric id padded to
// four digits. The same complaint always yields the same string.
func (c *Complaint) ReferenceID() string {
	return fmt.Sprintf("%s-%02d%02d%02d-%04d",
		referencePrefix,
		c.CreatedAt.Day(),
		int(c.CreatedAt.Month()),
		c.CreatedAt.Year()%100,
		c.ID)
}

// IsTerminal reports whether the complaint has left the intake flow.
func (c *Complaint) IsTerminal() bool {
	return c.Phase == PhaseCompleted
}
