package intake

import (
	"strings"

	"mitrabot/backend/internal/models"
)

// Gateway event kinds as delivered on the webhook.
const (
	eventKindText        = "text"
	eventKindImage       = "image"
	eventKindVideo       = "video"
	eventKindInteractive = "interactive"
	eventKindListReply   = "list_reply"
)

// Privileged sentinel commands. Exact, case-sensitive match required.
const (
	clearAllCommand  = "#clear-all-command#"
	resetFlowCommand = "#reset-flow-command#"
)

// statusInquiryText is the canned free-text phrase the public site tells
// users to send; it is answered before any other routing.
const statusInquiryText = "Hi Mitra! Tell me the status of my complaint."

// languageByLabel maps the language-picker button labels to language codes.
var languageByLabel = map[string]string{
	"English": models.LanguageEnglish,
	"हिंदी":   models.LanguageHindi,
	"मराठी":   models.LanguageMarathi,
}

// Button labels, one variant per supported language. These strings are part
// of the approved WhatsApp templates and must match byte for byte.
var (
	complaintLabels  = []string{"Complaint 📝", "📝 शिकायत दर्ज करें", "📝 तक्रार नोंदवा"}
	suggestionLabels = []string{"Suggestion💡", "💡 सुझाव भेजें", "💡 सूचना द्या"}
	submitLabels     = []string{"Submit ✅", "दर्ज करें ✅", "दर्ज करा ✅"}
	cancelLabels     = []string{"Cancel ❌", "रद्द करें ❌", "रद्द करा ❌"}
	restartLabels    = []string{"Restart 🔃", "फिर से शुरू करें 🔃", "पुन्हा सुरू करा 🔃"}
	statusLabels     = []string{"Check Status 🔎", "🔍 स्थिति देखें", "🔍 स्थिती पाहा"}
)

func hasLabel(labels []string, message string) bool {
	message = strings.TrimSpace(message)
	for _, l := range labels {
		if l == message {
			return true
		}
	}
	return false
}

func isInteractive(msgType string) bool {
	return msgType == eventKindInteractive
}

// isContentKind reports whether the event can carry a free-text payload.
func isContentKind(msgType string) bool {
	return msgType == eventKindText || msgType == eventKindImage || msgType == eventKindVideo
}

func isSubmit(message, msgType string) bool {
	return isInteractive(msgType) && hasLabel(submitLabels, message)
}

func isCancel(message, msgType string) bool {
	return isInteractive(msgType) && hasLabel(cancelLabels, message)
}

func isRestart(message, msgType string) bool {
	return isInteractive(msgType) && hasLabel(restartLabels, message)
}

func isCheckStatus(message, msgType string) bool {
	return isInteractive(msgType) && hasLabel(statusLabels, message)
}

func isComplaintChoice(message, msgType string) bool {
	return isInteractive(msgType) && hasLabel(complaintLabels, message)
}

func isSuggestionChoice(message, msgType string) bool {
	return isInteractive(msgType) && hasLabel(suggestionLabels, message)
}
