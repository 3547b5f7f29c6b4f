package service

import (
	"adiestra/events-app/internal/domain"
	"adiestra/events-app/internal/notify"
	"adiestra/events-app/internal/repository"
	"context"
	"errors"
	"log"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Reset tokens are valid for one hour, matching the window promised in the
// reset email.
const resetTokenValidity = time.Hour

// --- Error Definitions ---
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrUserAccessDenied     = errors.New("access denied to this user account")
	ErrInvalidRole          = errors.New("invalid role for registration")
	ErrWeakPassword         = errors.New("password must be 8-16 characters with upper, lower, and digit")
	ErrResetTokenInvalid    = errors.New("password reset token is invalid or expired")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

// LoginResult is what a successful login hands back: the signed token plus
// the caller's entity record id, so clients don't need a second lookup.
type LoginResult struct {
	Token     string
	Validity  time.Duration
	User      *domain.User
	TrainerID primitive.ObjectID
	ClientID  primitive.ObjectID
}

// --- Service Interface ---
type AuthService interface {
	Register(ctx context.Context, email, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	GetUser(ctx context.Context, actor *Viewer, userID primitive.ObjectID) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, userID primitive.ObjectID, token, newPassword string) error
}

// --- Service Implementation ---

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	trainerRepo   repository.TrainerRepository
	clientRepo    repository.ClientRepository
	mailer        notify.Mailer
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(
	userRepo repository.UserRepository,
	trainerRepo repository.TrainerRepository,
	clientRepo repository.ClientRepository,
	mailer notify.Mailer,
	jwtSecret string,
	jwtExpiration time.Duration,
) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour * 1
	}
	return &authService{
		userRepo:      userRepo,
		trainerRepo:   trainerRepo,
		clientRepo:    clientRepo,
		mailer:        mailer,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Register handles new account creation. The admin role cannot be
// self-assigned, and the role is immutable from here on.
func (s *authService) Register(ctx context.Context, email, password string, role domain.Role) (*domain.User, error) {
	if email == "" || password == "" || role == "" {
		return nil, errors.New("email, password, and role cannot be empty")
	}
	if role == domain.RoleAdmin || !domain.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if !validPassword(password) {
		return nil, ErrWeakPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID

	user.PasswordHash = ""
	return user, nil
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password cannot be empty")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrAuthenticationFailed
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, ErrTokenGeneration
	}

	result := &LoginResult{
		Token:    token,
		Validity: s.jwtExpiration,
		User:     user,
	}
	// Attach the caller's entity record id when one exists.
	switch user.Role {
	case domain.RoleTrainer:
		if trainer, err := s.trainerRepo.GetByUserID(ctx, user.ID); err == nil {
			result.TrainerID = trainer.ID
		}
	case domain.RoleClient:
		if client, err := s.clientRepo.GetByUserID(ctx, user.ID); err == nil {
			result.ClientID = client.ID
		}
	}

	user.PasswordHash = ""
	return result, nil
}

// GetUser returns a user account. Only the account owner and admins may read it.
func (s *authService) GetUser(ctx context.Context, actor *Viewer, userID primitive.ObjectID) (*domain.User, error) {
	if actor == nil || (!actor.IsAdmin() && actor.UserID != userID) {
		return nil, ErrUserAccessDenied
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// RequestPasswordReset stores a one-shot reset token on the account and
// mails it out. The email is fire-and-forget: delivery failures are logged,
// never surfaced, and an unknown email reports success to avoid account
// enumeration.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	token := uuid.NewString()
	expiry := time.Now().UTC().Add(resetTokenValidity)
	if err := s.userRepo.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		return err
	}

	go func() {
		if err := s.mailer.SendPasswordReset(context.Background(), user.Email, user.ID.Hex(), token); err != nil {
			log.Printf("WARN: failed to send password reset email: %v", err)
		}
	}()
	return nil
}

// ResetPassword consumes a reset token and replaces the account password.
func (s *authService) ResetPassword(ctx context.Context, userID primitive.ObjectID, token, newPassword string) error {
	if !validPassword(newPassword) {
		return ErrWeakPassword
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if user.ResetToken == "" || user.ResetToken != token {
		return ErrResetTokenInvalid
	}
	if user.ResetTokenExpiry == nil || user.ResetTokenExpiry.Before(time.Now().UTC()) {
		return ErrResetTokenInvalid
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrHashingFailed
	}
	// UpdatePassword also clears the token, making it one-shot.
	return s.userRepo.UpdatePassword(ctx, userID, string(hashedPassword))
}

// validPassword enforces the account password policy: 8-16 characters, no
// whitespace, at least one upper-case letter, one lower-case letter, and one
// digit.
func validPassword(password string) bool {
	if len(password) < 8 || len(password) > 16 {
		return false
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return false
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	expirationTime := time.Now().Add(s.jwtExpiration)
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "events-app",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}
	return signedToken, nil
}
