package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// EventCreatedEmailData holds data for the new event announcement.
type EventCreatedEmailData struct {
	Title       string
	Description string
	EventType   string
	Date        string
	Location    string
	ImageURL    string
}

// EventAnnouncer tells interested people about a newly created event.
type EventAnnouncer interface {
	AnnounceEvent(ctx context.Context, event *Event) error
}
