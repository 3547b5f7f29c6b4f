package api

import (
	"adiestra/events-app/internal/domain"
	"adiestra/events-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainerHandler exposes trainer CRUD, the rating endpoints, and the
// trainer's client roster.
type TrainerHandler struct {
	trainerService service.TrainerService
	viewers        *service.ViewerResolver
}

func NewTrainerHandler(trainerService service.TrainerService, viewers *service.ViewerResolver) *TrainerHandler {
	return &TrainerHandler{trainerService: trainerService, viewers: viewers}
}

// --- DTOs ---

type CreateTrainerRequest struct {
	UserID string `json:"userId" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Bio    string `json:"bio"`
}

type UpdateTrainerRequest struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

type RateTrainerRequest struct {
	Score *float64 `json:"score" binding:"required"`
}

type TrainerResponse struct {
	ID            string   `json:"id"`
	UserID        string   `json:"userId"`
	Name          string   `json:"name"`
	Bio           string   `json:"bio,omitempty"`
	EventIDs      []string `json:"eventIds"`
	AverageRating *float64 `json:"averageRating,omitempty"`
}

// MapTrainerToResponse converts a domain.Trainer to its API representation.
// The average is derived from the rating set on every read; a trainer with
// no ratings has no average rather than a zero one.
func MapTrainerToResponse(trainer *domain.Trainer) TrainerResponse {
	eventIDs := make([]string, len(trainer.EventIDs))
	for i, id := range trainer.EventIDs {
		eventIDs[i] = id.Hex()
	}
	resp := TrainerResponse{
		ID:       trainer.ID.Hex(),
		UserID:   trainer.UserID.Hex(),
		Name:     trainer.Name,
		Bio:      trainer.Bio,
		EventIDs: eventIDs,
	}
	if average, ok := trainer.AverageRating(); ok {
		resp.AverageRating = &average
	}
	return resp
}

// MapTrainersToResponse converts a slice of domain.Trainer to TrainerResponse DTOs.
func MapTrainersToResponse(trainers []domain.Trainer) []TrainerResponse {
	responses := make([]TrainerResponse, len(trainers))
	for i := range trainers {
		responses[i] = MapTrainerToResponse(&trainers[i])
	}
	return responses
}

// --- Handlers ---

// GetAllTrainers lists every trainer.
func (h *TrainerHandler) GetAllTrainers(c *gin.Context) {
	trainers, err := h.trainerService.GetAllTrainers(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapTrainersToResponse(trainers))
}

// GetTrainer returns a single trainer.
func (h *TrainerHandler) GetTrainer(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
	if !ok {
		return
	}
	trainer, err := h.trainerService.GetTrainer(c.Request.Context(), trainerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapTrainerToResponse(trainer))
}

// CreateTrainer creates a trainer record for a trainer-role user account.
func (h *TrainerHandler) CreateTrainer(c *gin.Context) {
	var req CreateTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid userId format.")
		return
	}

	trainer, err := h.trainerService.CreateTrainer(c.Request.Context(), service.TrainerInput{
		UserID: userID,
		Name:   req.Name,
		Bio:    req.Bio,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": trainer.ID.Hex()})
}

// UpdateTrainer applies a partial edit to the trainer's profile fields.
func (h *TrainerHandler) UpdateTrainer(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
	if !ok {
		return
	}
	var req UpdateTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	actor, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	trainer, err := h.trainerService.UpdateTrainer(c.Request.Context(), actor, trainerID, service.TrainerUpdate{
		Name: req.Name,
		Bio:  req.Bio,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapTrainerToResponse(trainer))
}

// DeleteTrainer removes the trainer, their profile, and the owning account.
func (h *TrainerHandler) DeleteTrainer(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
	if !ok {
		return
	}
	actor, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	if err := h.trainerService.DeleteTrainer(c.Request.Context(), actor, trainerID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetRating returns the trainer's average score, or null when unrated.
func (h *TrainerHandler) GetRating(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
	if !ok {
		return
	}
	average, rated, err := h.trainerService.GetRating(c.Request.Context(), trainerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if !rated {
		c.JSON(http.StatusOK, gin.H{"average": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"average": average})
}

// RateTrainer upserts the calling client's score and returns the new average.
func (h *TrainerHandler) RateTrainer(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
	if !ok {
		return
	}
	var req RateTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	actor, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	average, err := h.trainerService.Rate(c.Request.Context(), actor, trainerID, *req.Score)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"average": average})
}

// GetTrainerClients lists the clients enrolled in the trainer's events.
func (h *TrainerHandler) GetTrainerClients(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
	if !ok {
		return
	}
	actor, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	clients, err := h.trainerService.GetTrainerClients(c.Request.Context(), actor, trainerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientsToResponse(clients))
}

// TrainerImageUpload returns a presigned PUT URL for the trainer's image.
func (h *TrainerHandler) TrainerImageUpload(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
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

	url, err := h.trainerService.ImageUploadURL(c.Request.Context(), actor, trainerID, req.ContentType)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploadUrl": url})
}
