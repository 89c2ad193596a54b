// internal/email/service.go
package email

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	texttemplate "text/template"

	"github.com/dangerclosesec/bizcontrol/internal/config"
	"github.com/sendgrid/sendgrid-go"
)

//go:embed templates
var templateFS embed.FS

// Provider selects how rendered messages leave the process.
type Provider string

const (
	ProviderSMTP     Provider = "smtp"
	ProviderSendgrid Provider = "sendgrid"
	// ProviderLog renders messages and writes them to the log instead of sending.
	ProviderLog Provider = "log"

	DefaultTemplatePath = "templates/emails"
)

// EmailData describes one outgoing message. From and FromName fall back to
// the configured sender.
type EmailData struct {
	To           string
	From         string
	FromName     string
	Subject      string
	TemplateName string
	TemplateData any
	// Category tags the message for provider-side statistics.
	Category string
}

type Service struct {
	config         *config.Config
	provider       Provider
	sendgridClient *sendgrid.Client
	Templates      map[string]*Template
}

type Template struct {
	HTML      *template.Template
	Plaintext *texttemplate.Template
}

// NewEmailService validates provider settings and parses the embedded templates.
func NewEmailService(cfg *config.Config, provider Provider) (*Service, error) {
	s := &Service{
		config:    cfg,
		provider:  provider,
		Templates: make(map[string]*Template),
	}

	switch provider {
	case ProviderSendgrid:
		if cfg.Sendgrid.APIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is required for the sendgrid provider")
		}
		s.sendgridClient = sendgrid.NewSendClient(cfg.Sendgrid.APIKey)
	case ProviderSMTP:
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("SMTP_HOST is required for the smtp provider")
		}
	case ProviderLog:
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", provider)
	}

	if err := s.loadTemplates(); err != nil {
		return nil, fmt.Errorf("loading email templates: %w", err)
	}

	return s, nil
}

// loadTemplates parses every <name>/html.tmpl + <name>/plaintext.tmpl pair
// under the embedded templates directory.
func (s *Service) loadTemplates() error {
	root, err := fs.Sub(templateFS, DefaultTemplatePath)
	if err != nil {
		return err
	}

	groups, err := fs.ReadDir(root, ".")
	if err != nil {
		return fmt.Errorf("reading template directory: %w", err)
	}

	for _, group := range groups {
		if !group.IsDir() {
			continue
		}
		name := group.Name()

		html, err := template.ParseFS(root, path.Join(name, "html.tmpl"))
		if err != nil {
			return fmt.Errorf("template group %s: %w", name, err)
		}
		text, err := texttemplate.ParseFS(root, path.Join(name, "plaintext.tmpl"))
		if err != nil {
			return fmt.Errorf("template group %s: %w", name, err)
		}
		s.Templates[name] = &Template{HTML: html, Plaintext: text}
	}

	if len(s.Templates) == 0 {
		return fmt.Errorf("no email templates found")
	}
	return nil
}

// SendEmail renders data.TemplateName and hands the result to the provider.
func (s *Service) SendEmail(ctx context.Context, data EmailData) error {
	htmlContent, textContent, err := s.renderTemplate(data.TemplateName, data.TemplateData)
	if err != nil {
		return fmt.Errorf("rendering template: %w", err)
	}

	if data.From == "" {
		data.From = s.config.Mail.From
	}
	if data.FromName == "" {
		data.FromName = s.config.Mail.FromName
	}

	switch s.provider {
	case ProviderSendgrid:
		return s.sendWithSendgrid(ctx, data, htmlContent, textContent)
	case ProviderSMTP:
		if data.From == "" {
			return fmt.Errorf("missing sender email address (From)")
		}
		return s.sendWithSMTP(data, htmlContent, textContent)
	case ProviderLog:
		slog.InfoContext(ctx, "email not sent, log provider",
			"to", data.To,
			"subject", data.Subject,
			"template", data.TemplateName,
			"body", textContent,
		)
		return nil
	default:
		return fmt.Errorf("unsupported email provider: %s", s.provider)
	}
}

// renderTemplate executes both variants of the named template.
func (s *Service) renderTemplate(name string, data any) (html, text string, err error) {
	tmpl, ok := s.Templates[name]
	if !ok {
		return "", "", fmt.Errorf("template %s not found", name)
	}

	var buf strings.Builder
	if err := tmpl.HTML.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("executing %s html: %w", name, err)
	}
	html = buf.String()

	buf.Reset()
	if err := tmpl.Plaintext.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("executing %s plaintext: %w", name, err)
	}
	return html, buf.String(), nil
}
