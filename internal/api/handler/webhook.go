package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"mitrabot/backend/internal/intake"
	"mitrabot/backend/internal/models"
	"mitrabot/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// HandleInbound receives one message event from the WhatsApp gateway.
func (h *Handler) HandleInbound(c *gin.Context) {
	var in models.InboundMessage
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if in.Mobile == "" || in.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: mobileNo and customerName"})
		return
	}

	mobile, ok := normalizeMobile(in.Mobile)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mobile number format"})
		return
	}
	in.Mobile = mobile

	result, err := h.Intake.HandleMessage(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, intake.ErrMissingIdentity):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, storage.ErrSenderBusy):
			// Let the gateway retry once the in-flight delivery finishes.
			c.JSON(http.StatusConflict, gin.H{"error": "Another message from this sender is being processed"})
		default:
			log.Printf("ERROR: Failed to process inbound message %s: %v", in.MessageID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     result.Message,
		"complaintId": result.ComplaintID,
		"phase":       result.Phase,
		"mediaAdded":  result.MediaAdded,
	})
}

// Healthz answers liveness probes.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// normalizeMobile reduces a raw sender number to the canonical "+91" form.
// Accepts a bare 10-digit number or a 12-digit one already carrying the
// country code.
func normalizeMobile(raw string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	switch {
	case len(digits) == 10:
		return "+91" + digits, true
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return "+" + digits, true
	default:
		return "", false
	}
}
