package api

import (
	"adiestra/events-app/internal/domain"
	"adiestra/events-app/internal/service"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Constants for context keys
const (
	ContextUserIDKey   = "userID"
	ContextUserRoleKey = "userRole"
)

// jwtClaims defines the structure we expect in the JWT payload.
// Mirroring the structure used in authService.generateJWT
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}
		if err := setIdentityFromHeader(c, authHeader, jwtSecret); err != nil {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the caller's identity when a bearer token
// is present but lets anonymous requests through. Listing and read endpoints
// use it: what they return depends on who is asking, if anyone.
func OptionalAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			// A token that is present but invalid is still a 401: callers
			// should know their credential is broken rather than silently
			// see the anonymous view.
			if err := setIdentityFromHeader(c, authHeader, jwtSecret); err != nil {
				abortWithError(c, http.StatusUnauthorized, err.Error())
				return
			}
		}
		c.Next()
	}
}

// setIdentityFromHeader parses and validates the bearer token and stores the
// caller's id and role in the Gin context.
func setIdentityFromHeader(c *gin.Context, authHeader, jwtSecret string) error {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return errors.New("authorization header format must be Bearer {token}")
	}
	tokenString := parts[1]

	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return errors.New("token has expired")
		}
		return fmt.Errorf("invalid token: %v", err)
	}
	if !token.Valid || claims.UserID == "" || claims.Role == "" {
		return errors.New("invalid token or missing claims")
	}

	c.Set(ContextUserIDKey, claims.UserID)
	c.Set(ContextUserRoleKey, claims.Role)
	return nil
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RoleMiddleware creates middleware to check if user has the required role(s).
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleRaw, exists := c.Get(ContextUserRoleKey)
		if !exists {
			abortWithError(c, http.StatusInternalServerError, "User role not found in context")
			return
		}
		userRole, ok := roleRaw.(domain.Role)
		if !ok {
			abortWithError(c, http.StatusInternalServerError, "Invalid user role type in context")
			return
		}

		allowed := false
		for _, allowedRole := range allowedRoles {
			if userRole == allowedRole {
				allowed = true
				break
			}
		}
		if !allowed {
			abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", userRole))
			return
		}
		c.Next()
	}
}

// viewerFromContext builds the service.Viewer for the current request. A nil
// viewer means the request is unauthenticated (only possible behind
// OptionalAuthMiddleware).
func viewerFromContext(c *gin.Context, resolver *service.ViewerResolver) (*service.Viewer, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return nil, nil
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return nil, errors.New("invalid user ID type in context")
	}
	userID, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		return nil, errors.New("invalid user ID format in token")
	}

	roleRaw, exists := c.Get(ContextUserRoleKey)
	if !exists {
		return nil, errors.New("user role not found in context")
	}
	role, ok := roleRaw.(domain.Role)
	if !ok {
		return nil, errors.New("invalid user role type in context")
	}

	return resolver.Resolve(c.Request.Context(), userID, role)
}

// parseObjectID parses a path parameter into an ObjectID.
func parseObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format.", param))
		return primitive.NilObjectID, false
	}
	return id, true
}
