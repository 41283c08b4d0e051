package models

// InboundMessage is one webhook delivery from the WhatsApp gateway. Field
// names mirror the gateway's JSON payload.
type InboundMessage struct {
	// Mobile is the sender's phone number ("+91" prefixed after
	// normalization at the webhook boundary).
	Mobile string `json:"mobileNo"`
	// Name is the sender's WhatsApp profile name.
	Name string `json:"customerName"`
	// MsgType is the gateway event kind: "text", "image", "video",
	// "interactive" (button reply) or "list_reply" (list selection).
	MsgType string `json:"msgType"`
	// Message is the textual payload: plain text, a caption, or the label
	// of the tapped button / list row.
	Message string `json:"message"`
	// MsgFile references a raw media file on the gateway, when present.
	MsgFile string `json:"msgfile"`
	// FileType is the declared media kind for MsgFile ("image", "video").
	FileType string `json:"fileType"`
	// MessageID is the channel's message identifier, used for redelivery
	// deduplication.
	MessageID string `json:"whatsappMsgId"`
	// ReplyMsgID is set when the sender replied to an earlier message.
	ReplyMsgID string `json:"whatsappReplyMsgId"`
	// MsgDate is the gateway's delivery timestamp, passed through untouched.
	MsgDate string `json:"msgDate"`
}

// HasMedia reports whether the delivery carries a raw media payload.
func (m *InboundMessage) HasMedia() bool {
	return m.MsgFile != "" && m.FileType != ""
}

// IntakeResult summarizes what one processed webhook delivery did. It feeds
// the HTTP response body and is inspected by tests.
type IntakeResult struct {
	Message     string `json:"message"`
	ComplaintID uint   `json:"complaintId,omitempty"`
	Phase       string `json:"phase,omitempty"`
	MediaAdded  bool   `json:"mediaAdded,omitempty"`
	Duplicate   bool   `json:"-"`
}
