package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendWithSendgrid sends an email using the Sendgrid API
func (s *Service) sendWithSendgrid(ctx context.Context, data EmailData, htmlContent, textContent string) error {
	response, err := s.sendgridClient.SendWithContext(ctx, sendgridMessage(data, htmlContent, textContent))
	if err != nil {
		return fmt.Errorf("failed to send email via Sendgrid: %w", err)
	}

	// Sendgrid answers 202 for queued mail; anything else was rejected.
	if response.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected Sendgrid status code: %d, body: %s", response.StatusCode, response.Body)
	}

	return nil
}

func sendgridMessage(data EmailData, htmlContent, textContent string) *mail.SGMailV3 {
	from := mail.NewEmail(data.FromName, data.From)
	to := mail.NewEmail("", data.To)
	message := mail.NewSingleEmail(from, data.Subject, to, textContent, htmlContent)
	if data.Category != "" {
		message.AddCategories(data.Category)
	}
	return message
}
