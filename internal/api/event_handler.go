package api

import (
	"adiestra/events-app/internal/domain"
	"adiestra/events-app/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventHandler exposes the public event reads and the trainer-scoped event
// management routes.
type EventHandler struct {
	eventService service.EventService
	viewers      *service.ViewerResolver
}

func NewEventHandler(eventService service.EventService, viewers *service.ViewerResolver) *EventHandler {
	return &EventHandler{eventService: eventService, viewers: viewers}
}

// --- DTOs ---

type CreateEventRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" binding:"required"`
	Capacity    *int      `json:"capacity"`
	GuestList   []string  `json:"guestList"`
}

type UpdateEventRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	Capacity    *int       `json:"capacity"`
	GuestList   *[]string  `json:"guestList"`
}

type ImageUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type EventResponse struct {
	ID            string    `json:"id"`
	TrainerID     string    `json:"trainerId"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Date          time.Time `json:"date"`
	Capacity      *int      `json:"capacity,omitempty"`
	AttendeeCount int       `json:"attendeeCount"`
	Private       bool      `json:"private"`
	Finished      bool      `json:"finished"`
}

// MapEventToResponse converts a domain.Event to its API representation.
func MapEventToResponse(event *domain.Event) EventResponse {
	return EventResponse{
		ID:            event.ID.Hex(),
		TrainerID:     event.TrainerID.Hex(),
		Name:          event.Name,
		Description:   event.Description,
		Date:          event.Date,
		Capacity:      event.Capacity,
		AttendeeCount: len(event.Attendees),
		Private:       event.IsPrivate(),
		Finished:      event.IsPast(time.Now().UTC()),
	}
}

// MapEventsToResponse converts a slice of domain.Event to EventResponse DTOs.
func MapEventsToResponse(events []domain.Event) []EventResponse {
	responses := make([]EventResponse, len(events))
	for i := range events {
		responses[i] = MapEventToResponse(&events[i])
	}
	return responses
}

func parseGuestList(raw []string) ([]primitive.ObjectID, bool) {
	guests := make([]primitive.ObjectID, 0, len(raw))
	for _, hex := range raw {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, false
		}
		guests = append(guests, id)
	}
	return guests, true
}

// --- Public reads ---

// ListEvents returns the events visible to the caller, who may be anonymous.
// ?history=true includes the caller's own past events.
func (h *EventHandler) ListEvents(c *gin.Context) {
	viewer, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	includeHistory := c.Query("history") == "true"
	events, err := h.eventService.ListEvents(c.Request.Context(), viewer, includeHistory)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEventsToResponse(events))
}

// GetEvent returns one event if the caller may see it.
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, ok := parseObjectID(c, "eventId")
	if !ok {
		return
	}
	viewer, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	event, err := h.eventService.GetEvent(c.Request.Context(), viewer, eventID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEventToResponse(event))
}

// GetEventImageURL returns a presigned download URL for the event image.
func (h *EventHandler) GetEventImageURL(c *gin.Context) {
	eventID, ok := parseObjectID(c, "eventId")
	if !ok {
		return
	}
	viewer, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	url, err := h.eventService.ImageDownloadURL(c.Request.Context(), viewer, eventID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// --- Trainer-scoped management ---

// GetTrainerEvents lists a trainer's events, visibility-filtered for the caller.
func (h *EventHandler) GetTrainerEvents(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
	if !ok {
		return
	}
	viewer, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	events, err := h.eventService.GetTrainerEvents(c.Request.Context(), viewer, trainerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEventsToResponse(events))
}

// CreateEvent creates an event owned by the trainer in the path.
func (h *EventHandler) CreateEvent(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
	if !ok {
		return
	}
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	guestList, ok := parseGuestList(req.GuestList)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid guest list entry.")
		return
	}
	actor, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	input := service.EventInput{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
		Capacity:    req.Capacity,
		GuestList:   guestList,
	}
	event, err := h.eventService.CreateEvent(c.Request.Context(), actor, trainerID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": event.ID.Hex()})
}

// UpdateEvent applies a partial edit to an owned event.
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
	if !ok {
		return
	}
	eventID, ok := parseObjectID(c, "eventId")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	actor, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	update := service.EventUpdate{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
		Capacity:    req.Capacity,
	}
	if req.GuestList != nil {
		guestList, ok := parseGuestList(*req.GuestList)
		if !ok {
			abortWithError(c, http.StatusBadRequest, "Invalid guest list entry.")
			return
		}
		update.GuestList = &guestList
	}

	event, err := h.eventService.UpdateEvent(c.Request.Context(), actor, trainerID, eventID, update)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEventToResponse(event))
}

// DeleteEvent removes an owned event and every reference to it.
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
	if !ok {
		return
	}
	eventID, ok := parseObjectID(c, "eventId")
	if !ok {
		return
	}
	actor, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	if err := h.eventService.DeleteEvent(c.Request.Context(), actor, trainerID, eventID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// EventImageUpload returns a presigned PUT URL for the event image.
func (h *EventHandler) EventImageUpload(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
	if !ok {
		return
	}
	eventID, ok := parseObjectID(c, "eventId")
	if !ok {
		return
	}
	var req ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	actor, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	url, err := h.eventService.ImageUploadURL(c.Request.Context(), actor, trainerID, eventID, req.ContentType)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploadUrl": url})
}
