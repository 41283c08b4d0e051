// Package whatsapp sends outbound messages through the WhatsApp business
// gateway. Sends are fire-and-forget: the caller gets a boolean for
// channel-level acceptance and delivery failures are only logged, never
// propagated back into the intake flow.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	requestTimeout = 10 * time.Second

	// Gateway throughput limits; bursts above this are smoothed out.
	sendsPerSecond = 20
	sendBurst      = 5
)

// Client posts text and template messages to the gateway endpoints.
type Client struct {
	TextURL     string
	TemplateURL string

	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a gateway client for the configured endpoints.
func NewClient(textURL, templateURL string) *Client {
	return &Client{
		TextURL:     textURL,
		TemplateURL: templateURL,
		httpClient:  &http.Client{Timeout: requestTimeout},
		limiter:     rate.NewLimiter(rate.Limit(sendsPerSecond), sendBurst),
	}
}

type textPayload struct {
	CustomerMobileNo string `json:"customerMobileNo"`
	Type             string `json:"type"`
	Message          string `json:"message"`
}

type templatePayload struct {
	MobileNo   string `json:"mobileNo"`
	TemplateID string `json:"templateId"`
}

// SendText delivers a free-text message to a mobile number.
func (c *Client) SendText(mobile, message string) bool {
	return c.post(c.TextURL, textPayload{
		CustomerMobileNo: mobile,
		Type:             "text",
		Message:          message,
	})
}

// SendTemplate delivers a pre-approved template by id.
func (c *Client) SendTemplate(mobile, templateID string) bool {
	if templateID == "" {
		log.Printf("ERROR: Refusing to send empty template id to %s", mobile)
		return false
	}
	return c.post(c.TemplateURL, templatePayload{
		MobileNo:   mobile,
		TemplateID: templateID,
	})
}

func (c *Client) post(url string, payload interface{}) bool {
	if url == "" {
		log.Println("ERROR: WhatsApp gateway URL is not configured")
		return false
	}

	if err := c.limiter.Wait(context.Background()); err != nil {
		log.Printf("ERROR: WhatsApp rate limiter interrupted: %v", err)
		return false
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: Failed to encode WhatsApp payload: %v", err)
		return false
	}

	resp, err := c.httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("ERROR: Failed to reach WhatsApp gateway: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("ERROR: WhatsApp gateway returned status %d", resp.StatusCode)
		return false
	}
	return true
}
