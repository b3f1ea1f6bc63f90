package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"collegeevents/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	images         domain.ImageStore
	announcer      domain.EventAnnouncer
	eventTypes     domain.EventTypes
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewEventService wires the event use cases. announcer may be nil.
func NewEventService(eventRepo domain.EventRepository,
	images domain.ImageStore,
	announcer domain.EventAnnouncer,
	eventTypes domain.EventTypes,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		images:         images,
		announcer:      announcer,
		eventTypes:     eventTypes,
		logger:         logger,
		contextTimeout: timeout,
		now:            func() time.Time { return domain.StoredTime(time.Now()) },
	}
}

func (s *eventService) EventTypes() []string {
	return s.eventTypes.Names()
}

func (s *eventService) ListEvents(ctx context.Context, query string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return events, nil
	}
	matched := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		if matchesSearch(e, query) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// matchesSearch reports whether a lower-cased query occurs in the title, description or type.
func matchesSearch(e *domain.Event, query string) bool {
	return strings.Contains(strings.ToLower(e.Title), query) ||
		strings.Contains(strings.ToLower(e.Description), query) ||
		strings.Contains(strings.ToLower(e.EventType), query)
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) CreateEvent(ctx context.Context, in domain.EventInput, image *domain.ImageUpload) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var errs []string
	title := requireText("title", in.Title, &errs)
	description := requireText("description", in.Description, &errs)
	location := requireText("location", in.Location, &errs)
	eventType := s.checkEventType(in.EventType, &errs)
	if in.Date.IsZero() {
		errs = append(errs, "date is required")
	}
	if image == nil || image.Content == nil {
		errs = append(errs, "image is required")
	}
	if err := domain.NewValidationError(errs...); err != nil {
		return nil, err
	}

	ref, err := s.images.Save(ctx, image.Filename, image.Content)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	now := s.now()
	event := domain.NewEvent(title, description, eventType, in.Date, location, ref, now, now)
	event.NormalizeTimes()
	if err := s.eventRepo.Create(ctx, event); err != nil {
		s.discardImage(ref)
		return nil, fmt.Errorf("create event: %w", persistenceError(err))
	}

	if s.announcer != nil {
		if err := s.announcer.AnnounceEvent(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "announce event failed", "event_id", event.ID, "err", err)
		}
	}
	return event, nil
}

// UpdateEvent loads the event, applies the patch and writes the whole record back.
// Two concurrent updates of the same event race; the later save wins.
func (s *eventService) UpdateEvent(ctx context.Context, id string, patch domain.EventPatch, image *domain.ImageUpload) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var errs []string
	if patch.Title != nil {
		v := requireText("title", *patch.Title, &errs)
		patch.Title = &v
	}
	if patch.Description != nil {
		v := requireText("description", *patch.Description, &errs)
		patch.Description = &v
	}
	if patch.Location != nil {
		v := requireText("location", *patch.Location, &errs)
		patch.Location = &v
	}
	if patch.EventType != nil {
		v := s.checkEventType(*patch.EventType, &errs)
		patch.EventType = &v
	}
	if patch.Date != nil && patch.Date.IsZero() {
		errs = append(errs, "date must not be empty")
	}
	if err := domain.NewValidationError(errs...); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	// The previous image file is left on disk.
	patch.Image = nil
	if image != nil && image.Content != nil {
		ref, err := s.images.Save(ctx, image.Filename, image.Content)
		if err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
		patch.Image = &ref
	}

	patch.Apply(event)
	event.UpdatedAt = s.now()
	event.NormalizeTimes()
	if err := s.eventRepo.Save(ctx, event); err != nil {
		if patch.Image != nil {
			s.discardImage(*patch.Image)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", persistenceError(err))
	}
	return event, nil
}

// DeleteEvent removes the record only; the image file stays until the janitor sweeps it.
func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *eventService) checkEventType(value string, errs *[]string) string {
	if strings.TrimSpace(value) == "" {
		*errs = append(*errs, "eventType is required")
		return ""
	}
	canonical, ok := s.eventTypes.Canonical(value)
	if !ok {
		*errs = append(*errs, fmt.Sprintf("eventType must be one of: %s", strings.Join(s.eventTypes.Names(), ", ")))
		return ""
	}
	return canonical
}

// discardImage removes an image stored for a write that did not go through.
func (s *eventService) discardImage(ref string) {
	if err := s.images.Remove(context.Background(), ref); err != nil {
		s.logger.Warn("discard image failed", "image", ref, "err", err)
	}
}

// requireText trims value and records a message when nothing is left.
func requireText(field, value string, errs *[]string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		*errs = append(*errs, field+" is required")
	}
	return v
}

// persistenceError keeps store failures distinguishable as rejected writes.
func persistenceError(err error) error {
	if errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
}
