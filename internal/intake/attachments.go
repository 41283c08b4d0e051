package intake

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"mitrabot/backend/internal/models"

	"github.com/google/uuid"
)

// applyAttachment handles the media side-channel. Inbound files always
// target the sender's most recently created complaint, whatever its phase;
// a user often sends photos after the flow moved on or even after
// completion. Returns whether media was appended, and a non-nil result when
// processing must stop here (no usable text payload on the event).
func (s *Service) applyAttachment(ctx context.Context, user *models.User, in models.InboundMessage) (bool, *models.IntakeResult, error) {
	textless := strings.TrimSpace(in.Message) == ""

	target, err := s.Store.LatestComplaint(user.ID)
	if err != nil {
		return false, nil, err
	}
	if target == nil {
		// First contact arrived as a bare photo; the normal flow will
		// create the INIT complaint and this file is lost.
		return false, nil, nil
	}

	url, err := s.Uploader.Rehost(ctx, in.MsgFile, in.FileType)
	if err != nil {
		log.Printf("ERROR: Failed to re-host media for user %d: %v", user.ID, err)
		if textless {
			return false, &models.IntakeResult{
				Message:     "Media upload failed",
				ComplaintID: target.ID,
				Phase:       target.Phase,
			}, nil
		}
		return false, nil, nil
	}

	phaseBefore := target.Phase
	target.Media = append(target.Media, models.MediaItem{
		ID:         uuid.New().String(),
		URL:        url,
		Kind:       in.FileType,
		UploadedAt: time.Now(),
	})

	// A media upload while the narrative was just set doubles as the
	// "done with attachments" signal.
	advanced := phaseBefore == models.PhaseDescription
	if advanced {
		target.Phase = models.PhaseAttachment
	}
	if err := s.Store.SaveComplaint(target); err != nil {
		return false, nil, err
	}
	if advanced {
		s.sendText(in.Mobile, s.Localizer.GetString(target.Language, "LOCATION"))
	}

	if textless {
		return true, &models.IntakeResult{
			Message:     fmt.Sprintf("Attachment uploaded to %s complaint", phaseBefore),
			ComplaintID: target.ID,
			Phase:       target.Phase,
			MediaAdded:  true,
		}, nil
	}
	return true, nil, nil
}
