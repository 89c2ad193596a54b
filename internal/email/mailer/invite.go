// internal/email/mailer/invite.go
package mailer

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/email"
	"github.com/dangerclosesec/bizcontrol/internal/model"
)

// InviteTemplateData contains data for the invite email template
type InviteTemplateData struct {
	AppTitle    string
	CompanyName string
	Role        string
	Code        string
	AcceptURL   string
	ExpiresAt   string
}

// Sender is satisfied by *email.Service.
type Sender interface {
	SendEmail(ctx context.Context, data email.EmailData) error
}

// InviteMailer delivers invite codes to the invited address.
type InviteMailer struct {
	sender   Sender
	appTitle string
	baseURL  string
}

func NewInviteMailer(sender Sender, appTitle, baseURL string) *InviteMailer {
	return &InviteMailer{sender: sender, appTitle: appTitle, baseURL: baseURL}
}

func (m *InviteMailer) SendInvite(ctx context.Context, invite *model.Invite, companyName string) error {
	acceptURL := fmt.Sprintf("%s/api/v1/invites/accept?code=%s", m.baseURL, url.QueryEscape(invite.Code))

	data := email.EmailData{
		To:           invite.Email,
		Subject:      fmt.Sprintf("You are invited to join %s", companyName),
		TemplateName: "invite",
		Category:     "invite",
		TemplateData: InviteTemplateData{
			AppTitle:    m.appTitle,
			CompanyName: companyName,
			Role:        string(invite.Role),
			Code:        invite.Code,
			AcceptURL:   acceptURL,
			ExpiresAt:   invite.ExpiresAt.UTC().Format(time.RFC1123),
		},
	}

	if err := m.sender.SendEmail(ctx, data); err != nil {
		return fmt.Errorf("sending invite to %s: %w", invite.Email, err)
	}
	return nil
}
