package api

import (
	"adiestra/events-app/internal/domain"
	"adiestra/events-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientHandler exposes client CRUD and the enrollment endpoints. Enrollment
// and cancellation go through the client service, which owns the commit
// ordering between the event's attendee set and the client's mirror.
type ClientHandler struct {
	clientService service.ClientService
	viewers       *service.ViewerResolver
}

func NewClientHandler(clientService service.ClientService, viewers *service.ViewerResolver) *ClientHandler {
	return &ClientHandler{clientService: clientService, viewers: viewers}
}

// --- DTOs ---

type CreateClientRequest struct {
	UserID string `json:"userId" binding:"required"`
	Name   string `json:"name" binding:"required"`
}

type UpdateClientRequest struct {
	Name *string `json:"name"`
}

type EnrollRequest struct {
	EventID string `json:"eventId" binding:"required"`
}

type ClientResponse struct {
	ID               string   `json:"id"`
	UserID           string   `json:"userId"`
	Name             string   `json:"name"`
	EnrolledEventIDs []string `json:"enrolledEventIds"`
}

// MapClientToResponse converts a domain.Client to its API representation.
func MapClientToResponse(client *domain.Client) ClientResponse {
	eventIDs := make([]string, len(client.EnrolledEventIDs))
	for i, id := range client.EnrolledEventIDs {
		eventIDs[i] = id.Hex()
	}
	return ClientResponse{
		ID:               client.ID.Hex(),
		UserID:           client.UserID.Hex(),
		Name:             client.Name,
		EnrolledEventIDs: eventIDs,
	}
}

// MapClientsToResponse converts a slice of domain.Client to ClientResponse DTOs.
func MapClientsToResponse(clients []domain.Client) []ClientResponse {
	responses := make([]ClientResponse, len(clients))
	for i := range clients {
		responses[i] = MapClientToResponse(&clients[i])
	}
	return responses
}

// --- Handlers ---

// GetAllClients lists every client.
func (h *ClientHandler) GetAllClients(c *gin.Context) {
	clients, err := h.clientService.GetAllClients(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientsToResponse(clients))
}

// GetClient returns a single client.
func (h *ClientHandler) GetClient(c *gin.Context) {
	clientID, ok := parseObjectID(c, "clientId")
	if !ok {
		return
	}
	client, err := h.clientService.GetClient(c.Request.Context(), clientID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientToResponse(client))
}

// CreateClient creates a client record for a client-role user account.
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid userId format.")
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), service.ClientInput{
		UserID: userID,
		Name:   req.Name,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": client.ID.Hex()})
}

// UpdateClient applies a partial edit to the client's own fields.
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	clientID, ok := parseObjectID(c, "clientId")
	if !ok {
		return
	}
	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	actor, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	client, err := h.clientService.UpdateClient(c.Request.Context(), actor, clientID, service.ClientUpdate{
		Name: req.Name,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientToResponse(client))
}

// DeleteClient removes the client and the owning account.
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	clientID, ok := parseObjectID(c, "clientId")
	if !ok {
		return
	}
	actor, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	if err := h.clientService.DeleteClient(c.Request.Context(), actor, clientID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetEnrolledEvents lists the events the client is enrolled in.
func (h *ClientHandler) GetEnrolledEvents(c *gin.Context) {
	clientID, ok := parseObjectID(c, "clientId")
	if !ok {
		return
	}
	actor, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	events, err := h.clientService.GetEnrolledEvents(c.Request.Context(), actor, clientID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEventsToResponse(events))
}

// Enroll joins the client to an event, subject to visibility and capacity.
func (h *ClientHandler) Enroll(c *gin.Context) {
	clientID, ok := parseObjectID(c, "clientId")
	if !ok {
		return
	}
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	eventID, err := primitive.ObjectIDFromHex(req.EventID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid eventId format.")
		return
	}
	actor, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	if err := h.clientService.Enroll(c.Request.Context(), actor, clientID, eventID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Enrolled successfully."})
}

// Cancel removes the client's enrollment. Cancelling a membership that does
// not exist succeeds without effect.
func (h *ClientHandler) Cancel(c *gin.Context) {
	clientID, ok := parseObjectID(c, "clientId")
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

	if err := h.clientService.Cancel(c.Request.Context(), actor, clientID, eventID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
