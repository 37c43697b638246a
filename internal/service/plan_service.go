package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound     = newError(KindNotFound, "plan not found")
	ErrPlanAccessDenied = newError(KindForbidden, "plan belongs to another trainer")
)

// PlanInput is the trainer-authored shape shared by plans and templates.
type PlanInput struct {
	Name            string
	Weeks           int
	SessionsPerWeek int
	Days            []domain.WorkoutDay
	Notes           string
}

// normalize fills defaults and validates in. capExercises enforces the
// per-day exercise limit of directly authored plans.
func (in PlanInput) normalize(defaultWeeks int, capExercises bool) (PlanInput, error) {
	out := in
	out.Name = strings.TrimSpace(in.Name)
	if out.Weeks == 0 {
		out.Weeks = defaultWeeks
	}
	if out.Weeks < 1 {
		return out, validationf("weeks must be at least 1")
	}
	if out.SessionsPerWeek == 0 {
		out.SessionsPerWeek = domain.DefaultSessionsPerWeek
	}
	if !domain.ValidSessionsPerWeek(out.SessionsPerWeek) {
		return out, validationf("sessionsPerWeek must be 3, 4 or 5")
	}

	seen := map[time.Weekday]bool{}
	out.Days = make([]domain.WorkoutDay, 0, len(in.Days))
	for _, day := range in.Days {
		wd, ok := domain.ParseWeekday(day.DayOfWeek)
		if !ok {
			return out, validationf("invalid dayOfWeek %q", day.DayOfWeek)
		}
		if seen[wd] {
			return out, validationf("%s appears more than once", wd)
		}
		seen[wd] = true
		if capExercises && len(day.Exercises) > domain.MaxExercisesPerPlanDay {
			return out, validationf("the limit is %d exercises per session; %s has %d",
				domain.MaxExercisesPerPlanDay, wd, len(day.Exercises))
		}
		exercises := make([]domain.Exercise, 0, len(day.Exercises))
		for i, ex := range day.Exercises {
			ex.Name = strings.TrimSpace(ex.Name)
			if ex.Name == "" {
				return out, validationf("%s exercise %d: name is required", wd, i+1)
			}
			if ex.Sets < 1 {
				return out, validationf("%s exercise %q: sets must be at least 1", wd, ex.Name)
			}
			exercises = append(exercises, ex)
		}
		out.Days = append(out.Days, domain.WorkoutDay{DayOfWeek: wd.String(), Exercises: exercises})
	}
	return out, nil
}

// PlanView is a plan with its trainer and client loaded for display.
type PlanView struct {
	Plan    domain.Plan
	Trainer *domain.User
	Client  *domain.User
}

// PlanStats summarises a client's progress for the dashboard.
type PlanStats struct {
	WorkoutsThisMonth   int
	WeeklyAdherence     string // "NN%"
	WeightLostThisMonth string // "X.X kg"
	CaloriesToday       float64
}

type PlanService interface {
	ApplyTemplate(ctx context.Context, trainerID, clientID, templateID primitive.ObjectID) (*PlanView, error)
	CreateDirect(ctx context.Context, trainerID, clientID primitive.ObjectID, in PlanInput) (*PlanView, error)
	RemoveForClient(ctx context.Context, trainerID, clientID primitive.ObjectID) error
	// GetForClient returns the caller's own plan and marks plan notifications read.
	GetForClient(ctx context.Context, clientID primitive.ObjectID) (*PlanView, error)
	GetAsTrainer(ctx context.Context, trainerID, clientID primitive.ObjectID) (*PlanView, error)
	ListForTrainer(ctx context.Context, trainerID primitive.ObjectID, clientID *primitive.ObjectID) ([]PlanView, error)
	MyStats(ctx context.Context, clientID primitive.ObjectID) (*PlanStats, error)
}

type planService struct {
	userRepo         repository.UserRepository
	planRepo         repository.PlanRepository
	templateRepo     repository.PlanTemplateRepository
	entryRepo        repository.EntryRepository
	notificationRepo repository.NotificationRepository
	notifier         *notifier
}

func NewPlanService(
	userRepo repository.UserRepository,
	planRepo repository.PlanRepository,
	templateRepo repository.PlanTemplateRepository,
	entryRepo repository.EntryRepository,
	notificationRepo repository.NotificationRepository,
) PlanService {
	return &planService{
		userRepo:         userRepo,
		planRepo:         planRepo,
		templateRepo:     templateRepo,
		entryRepo:        entryRepo,
		notificationRepo: notificationRepo,
		notifier:         newNotifier(notificationRepo),
	}
}

func (s *planService) ApplyTemplate(ctx context.Context, trainerID, clientID, templateID primitive.ObjectID) (*PlanView, error) {
	// 1. Template must belong to the trainer
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

	// 2. Client must be the trainer's
	client, err := ownedClient(ctx, s.userRepo, trainerID, clientID)
	if err != nil {
		return nil, err
	}

	plan := &domain.Plan{
		Trainer:         trainerID,
		Client:          clientID,
		Name:            tpl.Name,
		Weeks:           tpl.Weeks,
		SessionsPerWeek: tpl.SessionsPerWeek,
		Days:            domain.CloneDays(tpl.Days),
		Notes:           tpl.Notes,
		IsFromTemplate:  true,
	}
	return s.replacePlan(ctx, client, plan, "New plan assigned: "+tpl.Name)
}

func (s *planService) CreateDirect(ctx context.Context, trainerID, clientID primitive.ObjectID, in PlanInput) (*PlanView, error) {
	client, err := ownedClient(ctx, s.userRepo, trainerID, clientID)
	if err != nil {
		return nil, err
	}
	in, err = in.normalize(domain.DefaultPlanWeeks, true)
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		in.Name = domain.DefaultPlanName
	}

	plan := &domain.Plan{
		Trainer:         trainerID,
		Client:          clientID,
		Name:            in.Name,
		Weeks:           in.Weeks,
		SessionsPerWeek: in.SessionsPerWeek,
		Days:            in.Days,
		Notes:           in.Notes,
	}
	return s.replacePlan(ctx, client, plan, "You have a new personalised workout plan!")
}

// replacePlan makes plan the client's only plan, bumps the trainer's
// lifetime counter and notifies the client.
func (s *planService) replacePlan(ctx context.Context, client *domain.User, plan *domain.Plan, content string) (*PlanView, error) {
	// 1. Correct the lifetime counter upwards if legacy data left it short
	active, err := s.planRepo.CountByTrainer(ctx, plan.Trainer)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.RaiseTotalPlans(ctx, plan.Trainer, int(active)); err != nil {
		return nil, err
	}

	// 2. Hard replace. A concurrent writer can slip a plan in between the
	// delete and the insert; the unique client index reports it and the
	// later write wins.
	if _, err := s.planRepo.DeleteByClient(ctx, plan.Client); err != nil {
		return nil, err
	}
	if _, err := s.planRepo.Create(ctx, plan); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		if _, err := s.planRepo.DeleteByClient(ctx, plan.Client); err != nil {
			return nil, err
		}
		if _, err := s.planRepo.Create(ctx, plan); err != nil {
			return nil, err
		}
	}

	// 3. Count the prescription
	if err := s.userRepo.IncTotalPlans(ctx, plan.Trainer, 1); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("trainer_id", plan.Trainer.Hex()).Msg("Failed to increment plan counter")
	}

	// 4. Notify
	s.notifier.notify(ctx, client, domain.NotificationPlan, content, &plan.ID)

	logging.Ctx(ctx).Info().
		Str("plan_id", plan.ID.Hex()).
		Str("client_id", plan.Client.Hex()).
		Bool("from_template", plan.IsFromTemplate).
		Msg("Plan assigned")

	return &PlanView{Plan: *plan, Trainer: s.lookup(ctx, plan.Trainer), Client: client}, nil
}

func (s *planService) lookup(ctx context.Context, id primitive.ObjectID) *domain.User {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	return u
}

func (s *planService) RemoveForClient(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	plan, err := s.planRepo.GetByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	if plan.Trainer != trainerID {
		return ErrPlanAccessDenied
	}
	if _, err := s.planRepo.DeleteByClient(ctx, clientID); err != nil {
		return err
	}
	return nil
}

func (s *planService) GetForClient(ctx context.Context, clientID primitive.ObjectID) (*PlanView, error) {
	// Viewing the plan is what clears the plan badge.
	if _, err := s.notificationRepo.MarkReadByKind(ctx, clientID, domain.NotificationPlan, nil); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to mark plan notifications read")
	}

	plan, err := s.planRepo.GetByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &PlanView{Plan: *plan, Trainer: s.lookup(ctx, plan.Trainer)}, nil
}

func (s *planService) GetAsTrainer(ctx context.Context, trainerID, clientID primitive.ObjectID) (*PlanView, error) {
	client, err := ownedClient(ctx, s.userRepo, trainerID, clientID)
	if err != nil {
		return nil, err
	}
	plan, err := s.planRepo.GetByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &PlanView{Plan: *plan, Trainer: s.lookup(ctx, plan.Trainer), Client: client}, nil
}

func (s *planService) ListForTrainer(ctx context.Context, trainerID primitive.ObjectID, clientID *primitive.ObjectID) ([]PlanView, error) {
	plans, err := s.planRepo.ListByTrainer(ctx, trainerID, clientID)
	if err != nil {
		return nil, err
	}
	out := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanView{Plan: p, Client: s.lookup(ctx, p.Client)})
	}
	return out, nil
}

func (s *planService) MyStats(ctx context.Context, clientID primitive.ObjectID) (*PlanStats, error) {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := nowFunc()
	today := domain.StartOfDay(now)
	monthStart := domain.StartOfMonth(now)
	weekStart := domain.StartOfWeek(now)
	from := monthStart
	if weekStart.Before(from) {
		from = weekStart
	}

	entries, err := s.entryRepo.Find(ctx, repository.EntryFilter{
		ClientID:      clientID,
		From:          &from,
		To:            &today,
		CompletedOnly: true,
	})
	if err != nil {
		return nil, err
	}

	stats := &PlanStats{}
	thisWeek := 0
	for _, e := range entries {
		if !e.Date.Before(monthStart) {
			stats.WorkoutsThisMonth++
		}
		if !e.Date.Before(weekStart) {
			thisWeek++
		}
		if domain.SameDay(today, e.Date) {
			stats.CaloriesToday += e.CaloriesBurned
		}
	}

	planDays := 0
	if plan, err := s.planRepo.GetByClient(ctx, clientID); err == nil {
		planDays = len(plan.Days)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	stats.WeeklyAdherence = adherence(thisWeek, planDays)
	stats.WeightLostThisMonth = fmt.Sprintf("%.1f kg", weightLostSince(client.Profile, monthStart))
	return stats, nil
}

func adherence(done, planned int) string {
	if planned <= 0 {
		return "0%"
	}
	pct := int(math.Round(float64(done) / float64(planned) * 100))
	if pct > 100 {
		pct = 100
	}
	return fmt.Sprintf("%d%%", pct)
}

// weightLostSince measures against the last reading before since, falling
// back to the first reading after it. Unknown baselines yield 0.
func weightLostSince(p domain.Profile, since time.Time) float64 {
	if p.Weight == 0 || len(p.WeightHistory) == 0 {
		return 0
	}
	var before, first *domain.WeightRecord
	for i := range p.WeightHistory {
		rec := &p.WeightHistory[i]
		if rec.Date.Before(since) {
			if before == nil || rec.Date.After(before.Date) {
				before = rec
			}
		} else if first == nil || rec.Date.Before(first.Date) {
			first = rec
		}
	}
	baseline := before
	if baseline == nil {
		baseline = first
	}
	if baseline == nil {
		return 0
	}
	return domain.Round1(baseline.Weight - p.Weight)
}
