package intake

import (
	"log"
	"strings"

	"mitrabot/backend/internal/config"
	"mitrabot/backend/internal/models"
	"mitrabot/backend/internal/storage"
)

// applyPhase validates the message against the complaint's current phase and
// performs at most one transition. Rejected input leaves the complaint
// untouched and queues the invalid-input notice.
func (s *Service) applyPhase(tx storage.Storage, user *models.User, complaint *models.Complaint, in models.InboundMessage, out *outbox) (*models.IntakeResult, error) {
	message := strings.TrimSpace(in.Message)

	switch complaint.Phase {

	case models.PhaseInit:
		lang, known := languageByLabel[message]
		if !known || !isInteractive(in.MsgType) {
			return s.invalidInput(out, in.Mobile, complaint), nil
		}
		complaint.Language = lang
		complaint.Phase = models.PhaseLanguage
		if err := tx.SaveComplaint(complaint); err != nil {
			return nil, err
		}
		out.template(in.Mobile, s.Templates.Resolve(lang, config.TemplateCompType))
		return s.transitioned(complaint, "Stored language"), nil

	case models.PhaseLanguage:
		switch {
		case isComplaintChoice(message, in.MsgType):
			complaint.Type = models.TypeComplaint
			complaint.Phase = models.PhaseComplaintType
			if err := tx.SaveComplaint(complaint); err != nil {
				return nil, err
			}
			out.template(in.Mobile, s.Templates.Resolve(complaint.Language, config.TemplateTaluka))
			return s.transitioned(complaint, "Stored complaint type"), nil

		case isSuggestionChoice(message, in.MsgType):
			complaint.Type = models.TypeSuggestion
			complaint.Phase = models.PhaseComplaintType
			if err := tx.SaveComplaint(complaint); err != nil {
				return nil, err
			}
			out.text(in.Mobile, s.Localizer.GetString(complaint.Language, "SUGGESTION_DESCRIPTION"))
			return s.transitioned(complaint, "Stored complaint type"), nil
		}
		return s.invalidInput(out, in.Mobile, complaint), nil

	case models.PhaseComplaintType:
		if in.MsgType == eventKindListReply && complaint.Type == models.TypeComplaint {
			complaint.Taluka = message
			complaint.Phase = models.PhaseTaluka
			if err := tx.SaveComplaint(complaint); err != nil {
				return nil, err
			}
			out.text(in.Mobile, s.Localizer.GetString(complaint.Language, "COMPLAINT_DESCRIPTION"))
			return s.transitioned(complaint, "Stored taluka"), nil
		}
		if complaint.Type == models.TypeSuggestion {
			// Suggestions shortcut: the narrative is all we collect.
			complaint.Description = message
			complaint.Phase = models.PhaseCompleted
			if err := tx.SaveComplaint(complaint); err != nil {
				return nil, err
			}
			if tid := s.Templates.Resolve(complaint.Language, config.TemplateSuggestEnd); tid != "" {
				out.template(in.Mobile, tid)
			} else {
				out.text(in.Mobile, s.Localizer.GetString(complaint.Language, "SUGGESTION_CONFIRMATION"))
			}
			return s.transitioned(complaint, "Stored suggestion"), nil
		}
		return s.invalidInput(out, in.Mobile, complaint), nil

	case models.PhaseTaluka:
		if !isContentKind(in.MsgType) || message == "" {
			return s.invalidInput(out, in.Mobile, complaint), nil
		}
		complaint.Description = message
		complaint.Phase = models.PhaseDescription
		if err := tx.SaveComplaint(complaint); err != nil {
			return nil, err
		}
		out.text(in.Mobile, s.Localizer.GetString(complaint.Language, "MEDIA_UPLOAD"))
		return s.transitioned(complaint, "Stored description"), nil

	case models.PhaseDescription:
		// The attachment is optional: any message moves on to the location
		// prompt. Media uploads on this phase advance it through the
		// side-channel instead.
		complaint.Phase = models.PhaseAttachment
		if err := tx.SaveComplaint(complaint); err != nil {
			return nil, err
		}
		out.text(in.Mobile, s.Localizer.GetString(complaint.Language, "LOCATION"))
		return s.transitioned(complaint, "Skipping attachment"), nil

	case models.PhaseAttachment:
		if !isContentKind(in.MsgType) || message == "" {
			return s.invalidInput(out, in.Mobile, complaint), nil
		}
		complaint.Location = message
		complaint.Phase = models.PhaseLocation
		if err := tx.SaveComplaint(complaint); err != nil {
			return nil, err
		}
		out.template(in.Mobile, s.Templates.Resolve(complaint.Language, config.TemplateConfirmation))
		return s.transitioned(complaint, "Stored location"), nil

	case models.PhaseLocation:
		if isSubmit(message, in.MsgType) {
			complaint.Phase = models.PhaseCompleted
			if err := tx.SaveComplaint(complaint); err != nil {
				return nil, err
			}
			s.queueCompletionNotices(out, user, complaint)
			return s.transitioned(complaint, "Complaint completed"), nil
		}
		if isCancel(message, in.MsgType) {
			if err := tx.DeleteComplaint(complaint.ID); err != nil {
				return nil, err
			}
			out.text(in.Mobile, s.Localizer.GetString(complaint.Language, "CANCEL"))
			return &models.IntakeResult{Message: "Deleted current complaint", ComplaintID: complaint.ID}, nil
		}
		return s.invalidInput(out, in.Mobile, complaint), nil

	default:
		// A phase value outside the state machine is a broken invariant.
		// Keep the process alive and tell the sender something went wrong.
		log.Printf("ERROR: Complaint %d for user %d is in unknown phase %q", complaint.ID, complaint.UserID, complaint.Phase)
		return s.invalidInput(out, in.Mobile, complaint), nil
	}
}

func (s *Service) transitioned(complaint *models.Complaint, message string) *models.IntakeResult {
	return &models.IntakeResult{
		Message:     message,
		ComplaintID: complaint.ID,
		Phase:       complaint.Phase,
	}
}
