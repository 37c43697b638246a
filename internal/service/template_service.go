package service

import (
	"context"
	"errors"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrTemplateNotFound     = newError(KindNotFound, "template not found")
	ErrTemplateNameRequired = newError(KindValidation, "template name is required")
)

// TemplateService manages trainer-owned plan templates. Templates of
// other trainers are reported as not found.
type TemplateService interface {
	Create(ctx context.Context, trainerID primitive.ObjectID, in PlanInput) (*domain.PlanTemplate, error)
	Get(ctx context.Context, trainerID, templateID primitive.ObjectID) (*domain.PlanTemplate, error)
	List(ctx context.Context, trainerID primitive.ObjectID) ([]domain.PlanTemplate, error)
	Update(ctx context.Context, trainerID, templateID primitive.ObjectID, in PlanInput) (*domain.PlanTemplate, error)
	Delete(ctx context.Context, trainerID, templateID primitive.ObjectID) error
}

// templateService implements the TemplateService interface.
type templateService struct {
	templateRepo repository.PlanTemplateRepository
}

// NewTemplateService creates a new instance of templateService.
func NewTemplateService(templateRepo repository.PlanTemplateRepository) TemplateService {
	return &templateService{templateRepo: templateRepo}
}

func normalizeTemplate(in PlanInput) (PlanInput, error) {
	in, err := in.normalize(domain.DefaultTemplateWeeks, false)
	if err != nil {
		return in, err
	}
	if in.Name == "" {
		return in, ErrTemplateNameRequired
	}
	return in, nil
}

// Create handles the creation of a new template by a trainer.
func (s *templateService) Create(ctx context.Context, trainerID primitive.ObjectID, in PlanInput) (*domain.PlanTemplate, error) {
	in, err := normalizeTemplate(in)
	if err != nil {
		return nil, err
	}
	tpl := &domain.PlanTemplate{
		Trainer:         trainerID,
		Name:            in.Name,
		Weeks:           in.Weeks,
		SessionsPerWeek: in.SessionsPerWeek,
		Days:            in.Days,
		Notes:           in.Notes,
	}
	if _, err := s.templateRepo.Create(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// Get retrieves a single template owned by trainerID.
func (s *templateService) Get(ctx context.Context, trainerID, templateID primitive.ObjectID) (*domain.PlanTemplate, error) {
	tpl, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	if tpl.Trainer != trainerID {
		return nil, ErrTemplateNotFound
	}
	return tpl, nil
}

// List retrieves all templates of a trainer, newest first.
func (s *templateService) List(ctx context.Context, trainerID primitive.ObjectID) ([]domain.PlanTemplate, error) {
	return s.templateRepo.GetByTrainerID(ctx, trainerID)
}

// Update replaces the content of a template, ensuring ownership.
func (s *templateService) Update(ctx context.Context, trainerID, templateID primitive.ObjectID, in PlanInput) (*domain.PlanTemplate, error) {
	in, err := normalizeTemplate(in)
	if err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, trainerID, templateID)
	if err != nil {
		return nil, err
	}

	existing.Name = in.Name
	existing.Weeks = in.Weeks
	existing.SessionsPerWeek = in.SessionsPerWeek
	existing.Days = in.Days
	existing.Notes = in.Notes

	if err := s.templateRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return existing, nil
}

// Delete removes a template. The repository filter includes the trainer,
// so another trainer's template is simply not found.
func (s *templateService) Delete(ctx context.Context, trainerID, templateID primitive.ObjectID) error {
	if err := s.templateRepo.Delete(ctx, templateID, trainerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	return nil
}
