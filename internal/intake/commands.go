package intake

import (
	"fmt"

	"mitrabot/backend/internal/models"
)

// runCommand recognizes the privileged sentinel commands. They bind to the
// sender identity only, never to a resolved complaint, and re-running one
// after it already took effect is a zero-row no-op.
func (s *Service) runCommand(in models.InboundMessage) (bool, *models.IntakeResult, error) {
	switch in.Message {

	case clearAllCommand:
		user, err := s.Store.GetUserByMobile(in.Mobile)
		if err != nil {
			return true, nil, err
		}
		if user == nil {
			return true, &models.IntakeResult{Message: "Purged user and 0 complaints"}, nil
		}
		deleted, err := s.Store.DeleteUserAndComplaints(user.ID)
		if err != nil {
			return true, nil, err
		}
		s.sendText(in.Mobile, "Deleted the user for you and all your complaints")
		return true, &models.IntakeResult{
			Message: fmt.Sprintf("Purged user and %d complaints", deleted),
		}, nil

	case resetFlowCommand:
		user, err := s.Store.GetUserByMobile(in.Mobile)
		if err != nil {
			return true, nil, err
		}
		if user == nil {
			return true, &models.IntakeResult{Message: "Reset flow completed. Deleted 0 incomplete complaints"}, nil
		}
		deleted, err := s.Store.DeleteIncompleteComplaints(user.ID)
		if err != nil {
			return true, nil, err
		}
		s.sendText(in.Mobile, "Bot state reset successfully")
		return true, &models.IntakeResult{
			Message: fmt.Sprintf("Reset flow completed. Deleted %d incomplete complaints", deleted),
		}, nil
	}

	return false, nil, nil
}
