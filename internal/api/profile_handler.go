package api

import (
	"adiestra/events-app/internal/domain"
	"adiestra/events-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ProfileHandler exposes the trainer's public commercial profile.
type ProfileHandler struct {
	profileService service.ProfileService
	viewers        *service.ViewerResolver
}

func NewProfileHandler(profileService service.ProfileService, viewers *service.ViewerResolver) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, viewers: viewers}
}

// --- DTOs ---

type ProfileRequest struct {
	Price   float64 `json:"price"`
	Contact string  `json:"contact" binding:"required"`
}

type ProfileResponse struct {
	ID        string  `json:"id"`
	TrainerID string  `json:"trainerId"`
	Price     float64 `json:"price"`
	Contact   string  `json:"contact"`
}

func MapProfileToResponse(profile *domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        profile.ID.Hex(),
		TrainerID: profile.TrainerID.Hex(),
		Price:     profile.Price,
		Contact:   profile.Contact,
	}
}

// --- Handlers ---

// GetProfile returns the trainer's profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
	if !ok {
		return
	}
	profile, err := h.profileService.GetProfile(c.Request.Context(), trainerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(profile))
}

// CreateProfile creates the trainer's profile. One per trainer.
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
	if !ok {
		return
	}
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	actor, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	profile, err := h.profileService.CreateProfile(c.Request.Context(), actor, trainerID, service.ProfileInput{
		Price:   req.Price,
		Contact: req.Contact,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": profile.ID.Hex()})
}

// UpdateProfile replaces the profile's editable fields.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
	if !ok {
		return
	}
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	actor, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), actor, trainerID, service.ProfileInput{
		Price:   req.Price,
		Contact: req.Contact,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(profile))
}

// DeleteProfile removes the trainer's profile.
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	trainerID, ok := parseObjectID(c, "trainerId")
	if !ok {
		return
	}
	actor, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	if err := h.profileService.DeleteProfile(c.Request.Context(), actor, trainerID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
