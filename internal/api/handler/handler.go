// Package handler exposes the webhook HTTP surface consumed by the WhatsApp
// gateway.
package handler

import (
	"context"

	"mitrabot/backend/internal/models"
)

// IntakeService processes one inbound webhook delivery.
type IntakeService interface {
	HandleMessage(ctx context.Context, in models.InboundMessage) (*models.IntakeResult, error)
}

// Handler holds the intake service behind the HTTP routes.
type Handler struct {
	Intake IntakeService
}

func NewHandler(intake IntakeService) *Handler {
	return &Handler{Intake: intake}
}
