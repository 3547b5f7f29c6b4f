package api

import (
	"adiestra/events-app/internal/domain"
	"adiestra/events-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHandler exposes account creation, login, and the password-reset flow.
type UserHandler struct {
	authService service.AuthService
	viewers     *service.ViewerResolver
}

func NewUserHandler(authService service.AuthService, viewers *service.ViewerResolver) *UserHandler {
	return &UserHandler{authService: authService, viewers: viewers}
}

// --- DTOs ---

type RegisterRequest struct {
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required"`
	Role     domain.Role `json:"role" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	Validity  int         `json:"validity"` // Seconds
	UserID    string      `json:"userId"`
	Role      domain.Role `json:"role"`
	TrainerID string      `json:"trainerId,omitempty"`
	ClientID  string      `json:"clientId,omitempty"`
}

type ResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// MapUserToResponse converts a domain.User to its API representation.
func MapUserToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:    user.ID.Hex(),
		Email: user.Email,
		Role:  user.Role,
	}
}

// --- Handlers ---

// Register creates a new account. The trainer/client entity record is
// created separately once the account exists.
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// Login authenticates and returns a bearer token plus the caller's entity id.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	resp := LoginResponse{
		Token:    result.Token,
		Validity: int(result.Validity.Seconds()),
		UserID:   result.User.ID.Hex(),
		Role:     result.User.Role,
	}
	if result.TrainerID != primitive.NilObjectID {
		resp.TrainerID = result.TrainerID.Hex()
	}
	if result.ClientID != primitive.NilObjectID {
		resp.ClientID = result.ClientID.Hex()
	}
	c.JSON(http.StatusOK, resp)
}

// GetUser returns an account. Owner or admin only.
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := parseObjectID(c, "userId")
	if !ok {
		return
	}
	viewer, err := viewerFromContext(c, h.viewers)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), viewer, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// RequestPasswordReset kicks off the reset email. Always 200 for valid input
// so the endpoint cannot be used to probe registered emails.
func (h *UserHandler) RequestPasswordReset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a reset link has been sent."})
}

// ResetPassword consumes the emailed token and sets the new password.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	userID, ok := parseObjectID(c, "userId")
	if !ok {
		return
	}
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), userID, c.Param("token"), req.Password); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated."})
}
