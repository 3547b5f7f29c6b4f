package service

import (
	"adiestra/events-app/internal/domain"
	"adiestra/events-app/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("trainer already has a profile")
)

// ProfileInput carries the fields supplied when creating or editing a profile.
type ProfileInput struct {
	Price   float64
	Contact string
}

// --- Service Interface ---
type ProfileService interface {
	GetProfile(ctx context.Context, trainerID primitive.ObjectID) (*domain.Profile, error)
	CreateProfile(ctx context.Context, actor *Viewer, trainerID primitive.ObjectID, input ProfileInput) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, actor *Viewer, trainerID primitive.ObjectID, input ProfileInput) (*domain.Profile, error)
	DeleteProfile(ctx context.Context, actor *Viewer, trainerID primitive.ObjectID) error
}

// --- Service Implementation ---

type profileService struct {
	profileRepo repository.ProfileRepository
	trainerRepo repository.TrainerRepository
}

// NewProfileService creates a new instance of profileService.
func NewProfileService(profileRepo repository.ProfileRepository, trainerRepo repository.TrainerRepository) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		trainerRepo: trainerRepo,
	}
}

// GetProfile returns a trainer's public profile.
func (s *profileService) GetProfile(ctx context.Context, trainerID primitive.ObjectID) (*domain.Profile, error) {
	profile, err := s.profileRepo.GetByTrainerID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// CreateProfile creates the trainer's profile. One per trainer.
func (s *profileService) CreateProfile(ctx context.Context, actor *Viewer, trainerID primitive.ObjectID, input ProfileInput) (*domain.Profile, error) {
	if !actor.IsAdmin() && !actor.OwnsTrainer(trainerID) {
		return nil, ErrTrainerAccessDenied
	}
	if input.Contact == "" {
		return nil, errors.New("profile contact is required")
	}

	if _, err := s.trainerRepo.GetByID(ctx, trainerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}

	profile := &domain.Profile{
		TrainerID: trainerID,
		Price:     input.Price,
		Contact:   input.Contact,
	}
	profileID, err := s.profileRepo.Create(ctx, profile)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrProfileExists
		}
		return nil, err
	}
	profile.ID = profileID
	return profile, nil
}

// UpdateProfile edits the trainer's profile.
func (s *profileService) UpdateProfile(ctx context.Context, actor *Viewer, trainerID primitive.ObjectID, input ProfileInput) (*domain.Profile, error) {
	if !actor.IsAdmin() && !actor.OwnsTrainer(trainerID) {
		return nil, ErrTrainerAccessDenied
	}

	profile, err := s.GetProfile(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if input.Contact != "" {
		profile.Contact = input.Contact
	}
	if input.Price != 0 {
		profile.Price = input.Price
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// DeleteProfile removes the trainer's profile. Absent profiles are a no-op.
func (s *profileService) DeleteProfile(ctx context.Context, actor *Viewer, trainerID primitive.ObjectID) error {
	if !actor.IsAdmin() && !actor.OwnsTrainer(trainerID) {
		return ErrTrainerAccessDenied
	}
	return s.profileRepo.DeleteByTrainerID(ctx, trainerID)
}
