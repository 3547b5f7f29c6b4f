package service

import (
	"adiestra/events-app/internal/domain"
	"adiestra/events-app/internal/repository"
	"adiestra/events-app/internal/storage"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Valid rating bounds, inclusive. Zero is a valid (harsh) score.
const (
	MinRatingScore = 0
	MaxRatingScore = 5
)

// --- Error Definitions ---
var (
	ErrTrainerNotFound     = errors.New("trainer not found")
	ErrTrainerExists       = errors.New("user already owns a trainer record")
	ErrTrainerAccessDenied = errors.New("access denied to this trainer")
	ErrRoleMismatch        = errors.New("referenced user does not have the required role")
	ErrHasActiveEvents     = errors.New("entity has events that have not taken place yet")
	ErrScoreOutOfRange     = errors.New("rating score out of range")
	ErrNoTrainerHistory    = errors.New("client has no enrollment history with this trainer")
)

// TrainerInput carries the fields supplied when creating a trainer.
type TrainerInput struct {
	UserID primitive.ObjectID
	Name   string
	Bio    string
}

// TrainerUpdate carries a partial edit; nil fields are left unchanged.
// The owning user is immutable and has no field here.
type TrainerUpdate struct {
	Name *string
	Bio  *string
}

// --- Service Interface ---
type TrainerService interface {
	CreateTrainer(ctx context.Context, input TrainerInput) (*domain.Trainer, error)
	GetTrainer(ctx context.Context, id primitive.ObjectID) (*domain.Trainer, error)
	GetAllTrainers(ctx context.Context) ([]domain.Trainer, error)
	UpdateTrainer(ctx context.Context, actor *Viewer, id primitive.ObjectID, update TrainerUpdate) (*domain.Trainer, error)
	DeleteTrainer(ctx context.Context, actor *Viewer, id primitive.ObjectID) error

	// Rating aggregator.
	Rate(ctx context.Context, actor *Viewer, trainerID primitive.ObjectID, score float64) (float64, error)
	GetRating(ctx context.Context, trainerID primitive.ObjectID) (float64, bool, error)

	GetTrainerClients(ctx context.Context, actor *Viewer, trainerID primitive.ObjectID) ([]domain.Client, error)
	ImageUploadURL(ctx context.Context, actor *Viewer, trainerID primitive.ObjectID, contentType string) (string, error)
}

// --- Service Implementation ---

// trainerService implements the TrainerService interface.
type trainerService struct {
	trainerRepo repository.TrainerRepository
	userRepo    repository.UserRepository
	clientRepo  repository.ClientRepository
	eventRepo   repository.EventRepository
	profileRepo repository.ProfileRepository
	fileStorage storage.FileStorage
}

// NewTrainerService creates a new instance of trainerService.
func NewTrainerService(
	trainerRepo repository.TrainerRepository,
	userRepo repository.UserRepository,
	clientRepo repository.ClientRepository,
	eventRepo repository.EventRepository,
	profileRepo repository.ProfileRepository,
	fileStorage storage.FileStorage,
) TrainerService {
	return &trainerService{
		trainerRepo: trainerRepo,
		userRepo:    userRepo,
		clientRepo:  clientRepo,
		eventRepo:   eventRepo,
		profileRepo: profileRepo,
		fileStorage: fileStorage,
	}
}

// CreateTrainer creates a trainer record for a user account. The referenced
// user must exist and carry the trainer role; a user owns at most one
// trainer record.
func (s *trainerService) CreateTrainer(ctx context.Context, input TrainerInput) (*domain.Trainer, error) {
	if input.UserID == primitive.NilObjectID || input.Name == "" {
		return nil, errors.New("trainer user ID and name are required")
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoleMismatch
		}
		return nil, err
	}
	if !user.IsTrainer() {
		return nil, ErrRoleMismatch
	}

	trainer := &domain.Trainer{
		UserID: input.UserID,
		Name:   input.Name,
		Bio:    input.Bio,
	}
	trainerID, err := s.trainerRepo.Create(ctx, trainer)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrTrainerExists
		}
		return nil, err
	}
	trainer.ID = trainerID
	return trainer, nil
}

// GetTrainer retrieves a trainer by id.
func (s *trainerService) GetTrainer(ctx context.Context, id primitive.ObjectID) (*domain.Trainer, error) {
	trainer, err := s.trainerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	return trainer, nil
}

// GetAllTrainers retrieves every trainer.
func (s *trainerService) GetAllTrainers(ctx context.Context) ([]domain.Trainer, error) {
	return s.trainerRepo.GetAll(ctx)
}

// UpdateTrainer applies a partial edit to the trainer's profile fields.
func (s *trainerService) UpdateTrainer(ctx context.Context, actor *Viewer, id primitive.ObjectID, update TrainerUpdate) (*domain.Trainer, error) {
	if !actor.IsAdmin() && !actor.OwnsTrainer(id) {
		return nil, ErrTrainerAccessDenied
	}

	trainer, err := s.GetTrainer(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		trainer.Name = *update.Name
	}
	if update.Bio != nil {
		trainer.Bio = *update.Bio
	}

	if err := s.trainerRepo.Update(ctx, trainer); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	return trainer, nil
}

// DeleteTrainer removes a trainer, their profile, and the owning user
// account. Rejected while the trainer still owns an event that has not
// taken place yet.
func (s *trainerService) DeleteTrainer(ctx context.Context, actor *Viewer, id primitive.ObjectID) error {
	if !actor.IsAdmin() && !actor.OwnsTrainer(id) {
		return ErrTrainerAccessDenied
	}

	trainer, err := s.GetTrainer(ctx, id)
	if err != nil {
		return err
	}

	events, err := s.eventRepo.GetByIDs(ctx, trainer.EventIDs)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for i := range events {
		if !events[i].IsPast(now) {
			return ErrHasActiveEvents
		}
	}

	if err := s.profileRepo.DeleteByTrainerID(ctx, id); err != nil {
		return err
	}
	if err := s.trainerRepo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return s.userRepo.Delete(ctx, trainer.UserID)
}

// Rate upserts the acting client's score for the trainer and returns the new
// average. The client must have at least one enrollment, past or present, in
// an event owned by the trainer.
func (s *trainerService) Rate(ctx context.Context, actor *Viewer, trainerID primitive.ObjectID, score float64) (float64, error) {
	if score < MinRatingScore || score > MaxRatingScore {
		return 0, ErrScoreOutOfRange
	}
	if actor == nil || actor.Role != domain.RoleClient || actor.ClientID == primitive.NilObjectID {
		return 0, ErrNoTrainerHistory
	}

	trainer, err := s.GetTrainer(ctx, trainerID)
	if err != nil {
		return 0, err
	}

	client, err := s.clientRepo.GetByID(ctx, actor.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrNoTrainerHistory
		}
		return 0, err
	}

	owned := make(map[primitive.ObjectID]struct{}, len(trainer.EventIDs))
	for _, id := range trainer.EventIDs {
		owned[id] = struct{}{}
	}
	shared := false
	for _, id := range client.EnrolledEventIDs {
		if _, ok := owned[id]; ok {
			shared = true
			break
		}
	}
	if !shared {
		return 0, ErrNoTrainerHistory
	}

	if err := s.trainerRepo.SetRating(ctx, trainerID, client.ID, score); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrTrainerNotFound
		}
		return 0, err
	}

	// Re-read so the returned average reflects the committed rating set.
	updated, err := s.GetTrainer(ctx, trainerID)
	if err != nil {
		return 0, err
	}
	average, _ := updated.AverageRating()
	return average, nil
}

// GetRating returns the trainer's average score. The second return value is
// false when the trainer has no ratings: the average is undefined, not zero.
func (s *trainerService) GetRating(ctx context.Context, trainerID primitive.ObjectID) (float64, bool, error) {
	trainer, err := s.GetTrainer(ctx, trainerID)
	if err != nil {
		return 0, false, err
	}
	average, ok := trainer.AverageRating()
	return average, ok, nil
}

// GetTrainerClients lists the clients enrolled in any of the trainer's
// events. Restricted to the owner and admins.
func (s *trainerService) GetTrainerClients(ctx context.Context, actor *Viewer, trainerID primitive.ObjectID) ([]domain.Client, error) {
	if !actor.IsAdmin() && !actor.OwnsTrainer(trainerID) {
		return nil, ErrTrainerAccessDenied
	}

	trainer, err := s.GetTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	return s.clientRepo.FindByEnrolledEvents(ctx, trainer.EventIDs)
}

// ImageUploadURL returns a presigned PUT URL for the trainer's image and
// stores the generated object key.
func (s *trainerService) ImageUploadURL(ctx context.Context, actor *Viewer, trainerID primitive.ObjectID, contentType string) (string, error) {
	if !actor.IsAdmin() && !actor.OwnsTrainer(trainerID) {
		return "", ErrTrainerAccessDenied
	}

	trainer, err := s.GetTrainer(ctx, trainerID)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("trainers/%s/%s", trainerID.Hex(), uuid.NewString())
	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, key, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", err
	}

	trainer.ImageKey = key
	if err := s.trainerRepo.Update(ctx, trainer); err != nil {
		return "", err
	}
	return url, nil
}
