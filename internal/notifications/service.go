package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/paws-and-plates/lead-radar/internal/config"
	"github.com/paws-and-plates/lead-radar/internal/models"
)

// Service handles sending lead digests via various channels
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements Notifier
var _ Notifier = (*Service)(nil)

// DiscordMessage represents a Discord webhook payload
type DiscordMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []DiscordEmbed `json:"embeds,omitempty"`
}

type DiscordEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url,omitempty"`
	Color       int            `json:"color,omitempty"`
	Fields      []DiscordField `json:"fields,omitempty"`
}

type DiscordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendDigest sends a lead queue digest via configured notification channels
func (s *Service) SendDigest(snapshot *models.Snapshot) error {
	var errors []string

	// Send to Discord if configured
	if s.config.DiscordWebhookURL != "" {
		if err := s.sendToDiscord(snapshot); err != nil {
			logrus.Errorf("Failed to send Discord notification: %v", err)
			errors = append(errors, fmt.Sprintf("Discord: %v", err))
		} else {
			logrus.Info("Successfully sent digest to Discord")
		}
	}

	// Send via email if configured
	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(snapshot); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent digest via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToDiscord(snapshot *models.Snapshot) error {
	message := s.buildDiscordMessage(snapshot)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.DiscordWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Discord message: %w", err)
	}

	if resp.StatusCode() >= 300 {
		return fmt.Errorf("Discord webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildDiscordMessage(snapshot *models.Snapshot) *DiscordMessage {
	message := &DiscordMessage{
		Content: fmt.Sprintf("Lead queue updated: %d leads waiting for review (%d high intent)",
			len(snapshot.Leads), snapshot.Stats.HighIntent),
	}

	limit := 5
	if len(snapshot.Leads) < limit {
		limit = len(snapshot.Leads)
	}

	for i := 0; i < limit; i++ {
		lead := snapshot.Leads[i]
		embed := DiscordEmbed{
			Title: lead.Title,
			URL:   lead.URL,
			Color: 0x2e8b57,
			Fields: []DiscordField{
				{Name: "Channel", Value: lead.Channel, Inline: true},
				{Name: "Score", Value: fmt.Sprintf("%.3f", lead.Score), Inline: true},
				{Name: "Mode", Value: string(lead.EngagementMode), Inline: true},
			},
		}
		if len(lead.Species) > 0 {
			embed.Description = "Species: " + strings.Join(lead.Species, ", ")
		}
		message.Embeds = append(message.Embeds, embed)
	}

	return message
}

func (s *Service) sendEmail(snapshot *models.Snapshot) error {
	subject := fmt.Sprintf("Lead Radar Digest - %d leads (%d high intent)",
		len(snapshot.Leads), snapshot.Stats.HighIntent)

	htmlBody, err := s.buildEmailHTML(snapshot)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	textBody := s.buildEmailText(snapshot)

	// Create message
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	// Send email
	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) buildEmailHTML(snapshot *models.Snapshot) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Lead Radar Digest</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #2e8b57; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .lead { border-left: 4px solid #2e8b57; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .lead-title { font-weight: bold; margin-bottom: 5px; }
        .lead-meta { color: #666; font-size: 0.9em; }
        .draft { background-color: #eef5ef; padding: 8px; margin-top: 8px; font-style: italic; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Lead Radar Digest</h1>
        <p>Generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Leads in queue:</strong> {{len .Leads}}</p>
        <p><strong>High intent:</strong> {{.Stats.HighIntent}}</p>
        <p><strong>Items scanned last cycle:</strong> {{.Stats.TotalScanned}}</p>
    </div>

    {{if .Leads}}
    <h2>Top Leads</h2>
    {{range $index, $lead := .Leads}}
        {{if lt $index 10}}
        <div class="lead">
            <div class="lead-title">
                <a href="{{$lead.URL}}" target="_blank">{{$lead.Title}}</a>
            </div>
            <div class="lead-meta">
                By {{$lead.Author}} in {{$lead.Channel}} | Score: {{printf "%.3f" $lead.Score}} | {{$lead.EngagementMode}}
            </div>
            {{if $lead.DraftReply}}
            <div class="draft">{{truncate $lead.DraftReply 300}}</div>
            {{end}}
        </div>
        {{end}}
    {{end}}
    {{end}}

    <hr>
    <p><small>This digest was generated automatically by Lead Radar.</small></p>
</body>
</html>
`

	// Create template with custom functions
	t := template.New("email").Funcs(template.FuncMap{
		"truncate": func(s string, length int) string {
			if len(s) <= length {
				return s
			}
			return s[:length] + "..."
		},
	})

	t, err := t.Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, snapshot); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Service) buildEmailText(snapshot *models.Snapshot) string {
	var text strings.Builder

	text.WriteString("Lead Radar Digest\n")
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", snapshot.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Leads in queue: %d\n", len(snapshot.Leads)))
	text.WriteString(fmt.Sprintf("High intent: %d\n", snapshot.Stats.HighIntent))
	text.WriteString(fmt.Sprintf("Items scanned last cycle: %d\n", snapshot.Stats.TotalScanned))

	if len(snapshot.Leads) > 0 {
		text.WriteString("\nTOP LEADS\n")
		text.WriteString("=========\n")

		limit := 10
		if len(snapshot.Leads) < limit {
			limit = len(snapshot.Leads)
		}

		for i := 0; i < limit; i++ {
			lead := snapshot.Leads[i]
			text.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, lead.Title))
			text.WriteString(fmt.Sprintf("   Channel: %s | Author: %s | Score: %.3f\n",
				lead.Channel, lead.Author, lead.Score))
			text.WriteString(fmt.Sprintf("   URL: %s\n", lead.URL))
			if lead.DraftReply != "" {
				draft := lead.DraftReply
				if len(draft) > 300 {
					draft = draft[:300] + "..."
				}
				text.WriteString(fmt.Sprintf("   Draft: %s\n", draft))
			}
		}
	}

	text.WriteString("\n---\nThis digest was generated automatically by Lead Radar.\n")

	return text.String()
}
