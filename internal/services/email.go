package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"collegeevents/internal/domain"
)

const eventCreatedTemplate = "event_created"

type announcementService struct {
	mailer     domain.Mailer
	renderer   domain.EmailTemplateRenderer
	recipients []string
	imageBase  string
	logger     *slog.Logger
}

// NewAnnouncementService returns an EventAnnouncer that mails every recipient about new events.
// imageBase is prepended to relative image references so links work from a mail client.
func NewAnnouncementService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, recipients []string, imageBase string, logger *slog.Logger) domain.EventAnnouncer {
	return &announcementService{
		mailer:     mailer,
		renderer:   renderer,
		recipients: recipients,
		imageBase:  strings.TrimSuffix(imageBase, "/"),
		logger:     logger,
	}
}

// AnnounceEvent sends the "event_created" template to each recipient.
// It keeps going after a failed send and reports the first failure.
func (s *announcementService) AnnounceEvent(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}
	if len(s.recipients) == 0 {
		return nil
	}
	data := &domain.EventCreatedEmailData{
		Title:       event.Title,
		Description: event.Description,
		EventType:   event.EventType,
		Date:        event.Date.Format("Mon, 02 Jan 2006 15:04 MST"),
		Location:    event.Location,
		ImageURL:    s.imageURL(event.Image),
	}
	subject, htmlBody, textBody, err := s.renderer.Render(eventCreatedTemplate, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", eventCreatedTemplate, err)
	}
	var firstErr error
	for _, to := range s.recipients {
		if err := s.mailer.Send(ctx, to, subject, htmlBody, textBody); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to send announcement to %s: %w", to, err)
			}
			continue
		}
		s.logger.InfoContext(ctx, "event announcement sent", "to", to, "event_id", event.ID)
	}
	return firstErr
}

func (s *announcementService) imageURL(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || s.imageBase == "" {
		return ref
	}
	return s.imageBase + "/" + strings.TrimPrefix(ref, "/")
}
