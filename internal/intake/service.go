// Package intake drives the WhatsApp complaint dialogue. Every webhook
// delivery passes through here: sentinel commands first, then the media
// side-channel, then the phase engine against the sender's active complaint.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"mitrabot/backend/internal/config"
	"mitrabot/backend/internal/localization"
	"mitrabot/backend/internal/media"
	"mitrabot/backend/internal/models"
	"mitrabot/backend/internal/storage"
)

// ErrMissingIdentity marks a webhook delivery without the sender fields
// required to route it. Such events are rejected wholesale.
var ErrMissingIdentity = errors.New("missing required fields: mobileNo and customerName")

// Notifier delivers outbound messages over the channel. Both calls are
// fire-and-forget: a false return means the gateway refused the send, which
// never unwinds an already-committed phase transition.
type Notifier interface {
	SendText(mobile, message string) bool
	SendTemplate(mobile, templateID string) bool
}

// Service wires the intake flow to its collaborators.
type Service struct {
	Store         storage.Storage
	Notifier      Notifier
	Uploader      media.Uploader
	Localizer     *localization.Localizer
	Templates     config.Templates
	PublicBaseURL string
}

// NewService creates the intake service.
func NewService(store storage.Storage, notifier Notifier, uploader media.Uploader, localizer *localization.Localizer, templates config.Templates, publicBaseURL string) *Service {
	return &Service{
		Store:         store,
		Notifier:      notifier,
		Uploader:      uploader,
		Localizer:     localizer,
		Templates:     templates,
		PublicBaseURL: publicBaseURL,
	}
}

// notice is one outbound message queued during a transaction and delivered
// only after it commits.
type notice struct {
	mobile     string
	text       string
	templateID string
}

// outbox accumulates notices produced while mutating a complaint.
type outbox struct {
	notices []notice
}

func (o *outbox) text(mobile, message string) {
	o.notices = append(o.notices, notice{mobile: mobile, text: message})
}

func (o *outbox) template(mobile, templateID string) {
	o.notices = append(o.notices, notice{mobile: mobile, templateID: templateID})
}

// HandleMessage processes one webhook delivery end to end: per-sender lock,
// dedupe guard, command dispatch, media side-channel, phase engine.
func (s *Service) HandleMessage(ctx context.Context, in models.InboundMessage) (*models.IntakeResult, error) {
	if in.Mobile == "" || in.Name == "" {
		return nil, ErrMissingIdentity
	}

	release, err := s.Store.AcquireSenderLock(ctx, in.Mobile)
	if err != nil {
		return nil, err
	}
	defer release()

	// The redelivery check runs under the sender lock so a concurrent
	// duplicate cannot slip past while the first delivery is in flight.
	if in.MessageID != "" {
		seen, err := s.Store.IsMessageProcessed(ctx, in.MessageID)
		if err != nil {
			return nil, err
		}
		if seen {
			return &models.IntakeResult{Message: "Duplicate delivery ignored", Duplicate: true}, nil
		}
	}

	result, err := s.process(ctx, in)
	if err != nil {
		// The id stays unmarked; the channel's redelivery of this event
		// gets a fresh attempt.
		return nil, err
	}

	if in.MessageID != "" {
		if err := s.Store.MarkMessageProcessed(ctx, in.MessageID); err != nil {
			log.Printf("ERROR: Failed to record processed message %s: %v", in.MessageID, err)
		}
	}
	return result, nil
}

func (s *Service) process(ctx context.Context, in models.InboundMessage) (*models.IntakeResult, error) {
	if handled, result, err := s.runCommand(in); handled {
		return result, err
	}

	user, err := s.Store.FirstOrCreateUser(in.Mobile, in.Name)
	if err != nil {
		return nil, err
	}

	// The canned status phrase is answered before any complaint routing and
	// touches no complaint state.
	if strings.TrimSpace(in.Message) == statusInquiryText {
		s.sendText(in.Mobile, s.statusMessage(models.LanguageEnglish, user.Slug))
		return &models.IntakeResult{Message: "Reverted with status URL"}, nil
	}

	var mediaAdded bool
	if in.HasMedia() {
		added, stop, err := s.applyAttachment(ctx, user, in)
		if err != nil {
			return nil, err
		}
		if stop != nil {
			return stop, nil
		}
		mediaAdded = added
	}

	// Resolver selection and the phase transition commit together; the
	// queued notices go out only after the transaction does.
	out := &outbox{}
	var result *models.IntakeResult
	err = s.Store.Transaction(func(tx storage.Storage) error {
		out.notices = nil
		var txErr error
		result, txErr = s.advance(tx, user, in, out)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.flush(out)
	result.MediaAdded = result.MediaAdded || mediaAdded
	return result, nil
}

// advance resolves the active complaint and applies the message to it. Runs
// inside the per-event transaction.
func (s *Service) advance(tx storage.Storage, user *models.User, in models.InboundMessage, out *outbox) (*models.IntakeResult, error) {
	complaints, err := tx.IncompleteComplaints(user.ID)
	if err != nil {
		return nil, err
	}
	complaint := ActiveComplaint(complaints)
	message := strings.TrimSpace(in.Message)

	// Global controls, honored from any phase. LOCATION defines its own
	// submit/cancel handling in the engine.
	if complaint != nil && message != "" && complaint.Phase != models.PhaseLocation {
		if isSubmit(message, in.MsgType) {
			complaint.Phase = models.PhaseCompleted
			if err := tx.SaveComplaint(complaint); err != nil {
				return nil, err
			}
			s.queueCompletionNotices(out, user, complaint)
			return &models.IntakeResult{
				Message:     "Complaint prematurely submitted",
				ComplaintID: complaint.ID,
				Phase:       models.PhaseCompleted,
			}, nil
		}
		if isCancel(message, in.MsgType) {
			if err := tx.DeleteComplaint(complaint.ID); err != nil {
				return nil, err
			}
			return &models.IntakeResult{Message: "Deleted current complaint", ComplaintID: complaint.ID}, nil
		}
	}

	if complaint != nil && message != "" && isRestart(message, in.MsgType) {
		if _, err := tx.DeleteIncompleteComplaints(user.ID); err != nil {
			return nil, err
		}
		fresh, err := s.initComplaint(tx, user, out)
		if err != nil {
			return nil, err
		}
		return &models.IntakeResult{
			Message:     "Complaint flow restarted",
			ComplaintID: fresh.ID,
			Phase:       models.PhaseInit,
		}, nil
	}

	if message != "" && isCheckStatus(message, in.MsgType) {
		lang := models.LanguageEnglish
		if complaint != nil && complaint.Language != "" {
			lang = complaint.Language
		}
		out.text(in.Mobile, s.statusMessage(lang, user.Slug))
		if complaint != nil {
			if err := tx.DeleteComplaint(complaint.ID); err != nil {
				return nil, err
			}
		}
		return &models.IntakeResult{Message: "Reverted with status URL"}, nil
	}

	if complaint == nil {
		fresh, err := s.initComplaint(tx, user, out)
		if err != nil {
			return nil, err
		}
		return &models.IntakeResult{
			Message:     "New complaint initiated",
			ComplaintID: fresh.ID,
			Phase:       models.PhaseInit,
		}, nil
	}

	if message == "" {
		// Nothing textual to validate; the media side-channel already did
		// its work for this event.
		return &models.IntakeResult{
			Message:     "No message content",
			ComplaintID: complaint.ID,
			Phase:       complaint.Phase,
		}, nil
	}

	return s.applyPhase(tx, user, complaint, in, out)
}

// initComplaint creates a fresh INIT-phase complaint and queues the
// language-picker template, the flow's opening prompt.
func (s *Service) initComplaint(tx storage.Storage, user *models.User, out *outbox) (*models.Complaint, error) {
	complaint := &models.Complaint{
		UserID:          user.ID,
		Phase:           models.PhaseInit,
		Language:        models.LanguageEnglish,
		IsPublic:        true,
		IsMediaApproved: true,
	}
	if err := tx.CreateComplaint(complaint); err != nil {
		return nil, err
	}
	out.template(user.Mobile, s.Templates.Resolve(models.LanguageEnglish, config.TemplateLanguage))
	return complaint, nil
}

// queueCompletionNotices queues the short confirmation (with the public
// reference id) followed by the status-lookup link.
func (s *Service) queueCompletionNotices(out *outbox, user *models.User, complaint *models.Complaint) {
	confirm := fmt.Sprintf(
		s.Localizer.GetString(complaint.Language, "SHORT_CONFIRMATION"),
		user.Name,
		complaint.ReferenceID(),
		time.Now().Format("2 January 2006"),
	)
	status := s.statusMessage(complaint.Language, user.Slug)
	out.text(user.Mobile, confirm+"\n\n"+status)
}

// statusMessage builds the localized status-lookup message for a user slug.
func (s *Service) statusMessage(lang, slug string) string {
	url := s.PublicBaseURL + "?user=" + slug
	return fmt.Sprintf(s.Localizer.GetString(lang, "STATUS_URL"), url)
}

// invalidInput queues the localized invalid-input template and reports the
// unchanged phase. Phase mismatches are expected traffic, not errors.
func (s *Service) invalidInput(out *outbox, mobile string, complaint *models.Complaint) *models.IntakeResult {
	out.template(mobile, s.Templates.Resolve(complaint.Language, config.TemplateInvalid))
	return &models.IntakeResult{
		Message:     "Invalid input for current phase",
		ComplaintID: complaint.ID,
		Phase:       complaint.Phase,
	}
}

// flush delivers queued notices. Failed sends are logged and dropped; the
// state transition they announce has already committed.
func (s *Service) flush(out *outbox) {
	for _, n := range out.notices {
		if n.templateID != "" {
			if !s.Notifier.SendTemplate(n.mobile, n.templateID) {
				log.Printf("ERROR: Failed to deliver template %s to %s", n.templateID, n.mobile)
			}
			continue
		}
		s.sendText(n.mobile, n.text)
	}
}

func (s *Service) sendText(mobile, message string) {
	if !s.Notifier.SendText(mobile, message) {
		log.Printf("ERROR: Failed to deliver message to %s", mobile)
	}
}
