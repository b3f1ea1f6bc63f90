package domain

import (
	"context"
	"io"
	"time"
)

// Event represents a scheduled college event
// swagger:model Event
type Event struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventType   string    `json:"eventType"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewEvent returns a new Event with the given fields. ID is set by the repository on create.
func NewEvent(title, description, eventType string, date time.Time, location, image string, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Title:       title,
		Description: description,
		EventType:   eventType,
		Date:        date,
		Location:    location,
		Image:       image,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// NormalizeTimes rounds Date, CreatedAt and UpdatedAt to stored precision in UTC,
// so the record a write returns equals the one a later read returns.
func (e *Event) NormalizeTimes() {
	e.Date = StoredTime(e.Date)
	e.CreatedAt = StoredTime(e.CreatedAt)
	e.UpdatedAt = StoredTime(e.UpdatedAt)
}

// EventPatch holds the fields present in an update request. A nil field is left unchanged.
type EventPatch struct {
	Title       *string
	Description *string
	EventType   *string
	Date        *time.Time
	Location    *string
	Image       *string
}

// Empty reports whether the patch carries no field at all.
func (p EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.EventType == nil &&
		p.Date == nil && p.Location == nil && p.Image == nil
}

// Apply copies every present field of p onto e. It does not touch timestamps.
func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.EventType != nil {
		e.EventType = *p.EventType
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Image != nil {
		e.Image = *p.Image
	}
}

// EventRepository defines the interface for event storage.
// Save replaces the whole stored record; it is not a field-level atomic update.
type EventRepository interface {
	List(ctx context.Context) ([]*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	Create(ctx context.Context, event *Event) error
	Save(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// EventInput carries the raw text fields of a create request.
type EventInput struct {
	Title       string
	Description string
	EventType   string
	Date        time.Time
	Location    string
}

// ImageUpload is a single uploaded file waiting to be stored.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// EventService defines the event use cases exposed to the HTTP layer.
type EventService interface {
	ListEvents(ctx context.Context, query string) ([]*Event, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	CreateEvent(ctx context.Context, in EventInput, image *ImageUpload) (*Event, error)
	UpdateEvent(ctx context.Context, id string, patch EventPatch, image *ImageUpload) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
	EventTypes() []string
}
