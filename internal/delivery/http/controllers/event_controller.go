package controllers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"collegeevents/internal/delivery/http/helpers"
	"collegeevents/internal/domain"
)

// imageField is the multipart field carrying the event image.
const imageField = "image"

// CreateEventRequest holds the text fields of POST /api/events. The image arrives as a file part.
type CreateEventRequest struct {
	Title       string `form:"title" validate:"required,notblank"`
	Description string `form:"description" validate:"required,notblank"`
	EventType   string `form:"eventType" validate:"required,eventtype"`
	Date        string `form:"date" validate:"required,eventdate"`
	Location    string `form:"location" validate:"required,notblank"`
}

// UpdateEventRequest holds the text fields of PUT /api/events/{id}. A nil field was not sent and stays unchanged.
type UpdateEventRequest struct {
	Title       *string `form:"title" validate:"omitnil,notblank"`
	Description *string `form:"description" validate:"omitnil,notblank"`
	EventType   *string `form:"eventType" validate:"omitnil,eventtype"`
	Date        *string `form:"date" validate:"omitnil,eventdate"`
	Location    *string `form:"location" validate:"omitnil,notblank"`
}

// EventController serves the event CRUD endpoints.
type EventController struct {
	Logger         *slog.Logger
	Service        domain.EventService
	Validator      *helpers.Validator
	MaxUploadBytes int64
}

func NewEventController(logger *slog.Logger, svc domain.EventService, validator *helpers.Validator, maxUploadBytes int64) *EventController {
	return &EventController{
		Logger:         logger,
		Service:        svc,
		Validator:      validator,
		MaxUploadBytes: maxUploadBytes,
	}
}

// ListEvents godoc
// @Summary List events
// @Description Returns every event, newest date first. q filters by title, description or event type, case-insensitively.
// @Tags events
// @Produce json
// @Param q query string false "Search text"
// @Success 200 {array} domain.Event
// @Failure 500 {object} helpers.MessageResponse
// @Router /api/events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListEvents(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} domain.Event
// @Failure 404 {object} helpers.MessageResponse
// @Failure 500 {object} helpers.MessageResponse
// @Router /api/events/{id} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := c.Service.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, event)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Every text field and an image file are required.
// @Tags events
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param eventType formData string true "Event type"
// @Param date formData string true "Date (YYYY-MM-DD or date-time)"
// @Param location formData string true "Location"
// @Param image formData file true "Image"
// @Success 201 {object} domain.Event
// @Failure 400 {object} helpers.MessageResponse
// @Failure 500 {object} helpers.MessageResponse
// @Router /api/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if !helpers.ParseForm(w, r, c.MaxUploadBytes) {
		return
	}
	req := CreateEventRequest{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		EventType:   r.PostFormValue("eventType"),
		Date:        r.PostFormValue("date"),
		Location:    r.PostFormValue("location"),
	}
	if msgs := c.Validator.Validate(&req); len(msgs) > 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.JoinMessages(msgs))
		return
	}
	date, _ := domain.ParseEventDate(req.Date)

	image, ok := c.readImage(w, r)
	if !ok {
		return
	}
	if image == nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer helpers.DrainAndClose(image.file)

	event, err := c.Service.CreateEvent(r.Context(), domain.EventInput{
		Title:       req.Title,
		Description: req.Description,
		EventType:   req.EventType,
		Date:        date,
		Location:    req.Location,
	}, &image.upload)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Only the fields sent are changed. A new image replaces the stored reference.
// @Tags events
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Event ID"
// @Param title formData string false "Title"
// @Param description formData string false "Description"
// @Param eventType formData string false "Event type"
// @Param date formData string false "Date (YYYY-MM-DD or date-time)"
// @Param location formData string false "Location"
// @Param image formData file false "Image"
// @Success 200 {object} domain.Event
// @Failure 400 {object} helpers.MessageResponse
// @Failure 404 {object} helpers.MessageResponse
// @Failure 500 {object} helpers.MessageResponse
// @Router /api/events/{id} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	if !helpers.ParseForm(w, r, c.MaxUploadBytes) {
		return
	}
	req := UpdateEventRequest{
		Title:       helpers.FormValue(r, "title"),
		Description: helpers.FormValue(r, "description"),
		EventType:   helpers.FormValue(r, "eventType"),
		Date:        helpers.FormValue(r, "date"),
		Location:    helpers.FormValue(r, "location"),
	}
	if msgs := c.Validator.Validate(&req); len(msgs) > 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.JoinMessages(msgs))
		return
	}
	patch := domain.EventPatch{
		Title:       req.Title,
		Description: req.Description,
		EventType:   req.EventType,
		Location:    req.Location,
	}
	if req.Date != nil {
		date, _ := domain.ParseEventDate(*req.Date)
		patch.Date = &date
	}

	image, ok := c.readImage(w, r)
	if !ok {
		return
	}
	var upload *domain.ImageUpload
	if image != nil {
		defer helpers.DrainAndClose(image.file)
		upload = &image.upload
	}

	event, err := c.Service.UpdateEvent(r.Context(), r.PathValue("id"), patch, upload)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Removes the record. The image file is left for the sweeper.
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} helpers.MessageResponse
// @Failure 404 {object} helpers.MessageResponse
// @Failure 500 {object} helpers.MessageResponse
// @Router /api/events/{id} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.DeleteEvent(r.Context(), r.PathValue("id")); err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, helpers.MessageResponse{Message: "Event deleted"})
}

// ListEventTypes godoc
// @Summary List accepted event types
// @Description Returns the configured event types as a bare array, in configuration order.
// @Tags events
// @Produce json
// @Success 200 {array} string
// @Router /api/event-types [get]
func (c *EventController) ListEventTypes(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, c.Service.EventTypes())
}

type uploadedImage struct {
	file   multipart.File
	upload domain.ImageUpload
}

// readImage returns the uploaded image, or nil when none was sent. ok is false when a response was written.
func (c *EventController) readImage(w http.ResponseWriter, r *http.Request) (*uploadedImage, bool) {
	file, header, found, err := helpers.FormFile(r, imageField)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, "invalid image upload: "+err.Error())
		return nil, false
	}
	if !found {
		return nil, true
	}
	return &uploadedImage{
		file:   file,
		upload: domain.ImageUpload{Filename: header.Filename, Content: file},
	}, true
}

// fail maps service errors onto status codes. Unexpected errors are logged.
func (c *EventController) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		helpers.WriteJSONError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, "Event not found")
	case errors.Is(err, domain.ErrPersistence):
		c.Logger.WarnContext(r.Context(), "write rejected", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
