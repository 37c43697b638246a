package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stats periods.
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// Accepted body weight range in kg, exclusive.
const (
	MinWeightKg = 30
	MaxWeightKg = 300
)

// --- Error Definitions ---
var (
	ErrFutureCompletion = newError(KindForbidden, "you cannot complete this workout yet; wait until the day of the workout")
	ErrNegativeCalories = newError(KindValidation, "caloriesBurned must be zero or positive")
	ErrInvalidWeight    = newError(KindValidation, "weight must be between 30 and 300 kg")
	ErrInvalidPeriod    = newError(KindValidation, "period must be week or month")
	ErrEntryAccess      = newError(KindForbidden, "you cannot view entries of this user")
)

// EntryInput is one day's log as submitted by the client.
type EntryInput struct {
	Date           time.Time
	Completed      bool
	Reason         string
	ProofMedia     string
	CaloriesBurned float64
	Notes          string
	Weight         *float64 // optional reading recorded with a completion
}

// HistoryFilter bounds an entry listing; dates are inclusive.
type HistoryFilter struct {
	From      *time.Time
	To        *time.Time
	Ascending bool
}

// MissedWorkout is the outcome of the missed-workout check.
type MissedWorkout struct {
	Missed   bool
	Notified bool
	Reason   string
}

type EntryService interface {
	Upsert(ctx context.Context, clientID primitive.ObjectID, in EntryInput) (*domain.Entry, error)
	// Stats and History act on the viewer's own entries unless clientID
	// names another user, which only that user's trainer or an admin may see.
	Stats(ctx context.Context, viewer *domain.User, clientID *primitive.ObjectID, period string) ([]domain.EntryBucket, error)
	History(ctx context.Context, viewer *domain.User, clientID *primitive.ObjectID, filter HistoryFilter) ([]domain.Entry, error)
	CheckMissedWorkout(ctx context.Context, clientID primitive.ObjectID) (*MissedWorkout, error)
}

type entryService struct {
	userRepo  repository.UserRepository
	entryRepo repository.EntryRepository
	planRepo  repository.PlanRepository
	alerts    repository.NotificationRepository
	notifier  *notifier
}

func NewEntryService(
	userRepo repository.UserRepository,
	entryRepo repository.EntryRepository,
	planRepo repository.PlanRepository,
	notificationRepo repository.NotificationRepository,
) EntryService {
	return &entryService{
		userRepo:  userRepo,
		entryRepo: entryRepo,
		planRepo:  planRepo,
		alerts:    notificationRepo,
		notifier:  newNotifier(notificationRepo),
	}
}

const upsertAttempts = 3

func validWeight(w float64) bool {
	return w > MinWeightKg && w < MaxWeightKg
}

func (s *entryService) Upsert(ctx context.Context, clientID primitive.ObjectID, in EntryInput) (*domain.Entry, error) {
	// 1. Validate against the server's calendar
	now := nowFunc()
	today := domain.StartOfDay(now)
	date := domain.StartOfDay(in.Date.In(now.Location()))
	if in.Completed && date.After(today) {
		return nil, ErrFutureCompletion
	}
	if in.CaloriesBurned < 0 {
		return nil, ErrNegativeCalories
	}
	if in.Weight != nil && !validWeight(*in.Weight) {
		return nil, ErrInvalidWeight
	}

	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// 2. Upsert keyed by (client, date). A concurrent first write for the
	// same day surfaces as ErrDuplicate, and a concurrent completion flip
	// makes the conditional update miss; either way the entry is re-read.
	var (
		entry          *domain.Entry
		newCompletion  bool
		lostCompletion bool
	)
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		existing, err := s.entryRepo.GetByClientAndDate(ctx, clientID, date)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			was := existing.Completed
			applyEntryUpdate(existing, in, now)
			applied, err := s.entryRepo.Update(ctx, existing, was)
			if err != nil {
				return nil, err
			}
			if !applied {
				continue
			}
			newCompletion = !was && in.Completed
			lostCompletion = was && !in.Completed
			entry = existing
			break
		}

		created := &domain.Entry{
			Client:         clientID,
			Date:           date,
			Completed:      in.Completed,
			Reason:         in.Reason,
			ProofMedia:     in.ProofMedia,
			CaloriesBurned: in.CaloriesBurned,
			Notes:          in.Notes,
		}
		if in.Completed {
			stamp := now
			created.CompletedAt = &stamp
		}
		if _, err := s.entryRepo.Create(ctx, created); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return nil, err
		}
		newCompletion = in.Completed
		entry = created
		break
	}
	if entry == nil {
		return nil, fmt.Errorf("upsert entry for %s: %w", date.Format(time.DateOnly), repository.ErrUpdateFailed)
	}

	// 3. Side effects of a completion transition
	if newCompletion {
		if err := s.userRepo.IncTotalWorkouts(ctx, clientID, 1); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to increment workout counter")
		}
		if in.Weight != nil {
			client.Profile.RecordWeight(*in.Weight, now)
			if err := s.userRepo.Update(ctx, client); err != nil {
				return nil, err
			}
		}
		s.notifier.notify(ctx, client, domain.NotificationSystem, "Congratulations! You completed today's workout.", &entry.ID)
	} else if lostCompletion {
		if err := s.userRepo.IncTotalWorkouts(ctx, clientID, -1); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to decrement workout counter")
		}
	}
	return entry, nil
}

// applyEntryUpdate merges in. Completed and calories always overwrite;
// the text fields keep their previous values when left empty.
func applyEntryUpdate(e *domain.Entry, in EntryInput, now time.Time) {
	e.Completed = in.Completed
	e.CaloriesBurned = in.CaloriesBurned
	if in.Reason != "" {
		e.Reason = in.Reason
	}
	if in.ProofMedia != "" {
		e.ProofMedia = in.ProofMedia
	}
	if in.Notes != "" {
		e.Notes = in.Notes
	}
	switch {
	case !in.Completed:
		e.CompletedAt = nil
	case e.CompletedAt == nil:
		stamp := now
		e.CompletedAt = &stamp
	}
}

// target resolves whose entries the viewer asked for.
func (s *entryService) target(ctx context.Context, viewer *domain.User, clientID *primitive.ObjectID) (primitive.ObjectID, error) {
	if clientID == nil || *clientID == viewer.ID {
		return viewer.ID, nil
	}
	switch viewer.Role {
	case domain.RoleAdmin:
		return *clientID, nil
	case domain.RoleTrainer:
		if _, err := ownedClient(ctx, s.userRepo, viewer.ID, *clientID); err != nil {
			return primitive.NilObjectID, err
		}
		return *clientID, nil
	default:
		return primitive.NilObjectID, ErrEntryAccess
	}
}

func (s *entryService) Stats(ctx context.Context, viewer *domain.User, clientID *primitive.ObjectID, period string) ([]domain.EntryBucket, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = PeriodWeek
	}
	if period != PeriodWeek && period != PeriodMonth {
		return nil, ErrInvalidPeriod
	}
	id, err := s.target(ctx, viewer, clientID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entryRepo.Find(ctx, repository.EntryFilter{ClientID: id, CompletedOnly: true, Ascending: true})
	if err != nil {
		return nil, err
	}
	return bucketEntries(entries, period, nowFunc().Location()), nil
}

// bucketEntries groups entries by ISO week ("2006-W01") or month
// ("2006-01"), ordered chronologically by key.
func bucketEntries(entries []domain.Entry, period string, loc *time.Location) []domain.EntryBucket {
	byKey := map[string]*domain.EntryBucket{}
	for _, e := range entries {
		d := e.Date.In(loc)
		var key string
		if period == PeriodMonth {
			key = d.Format("2006-01")
		} else {
			y, w := d.ISOWeek()
			key = fmt.Sprintf("%04d-W%02d", y, w)
		}
		b, ok := byKey[key]
		if !ok {
			b = &domain.EntryBucket{Key: key}
			byKey[key] = b
		}
		b.Count++
		b.Calories += e.CaloriesBurned
	}

	out := make([]domain.EntryBucket, 0, len(byKey))
	for _, b := range byKey {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *entryService) History(ctx context.Context, viewer *domain.User, clientID *primitive.ObjectID, filter HistoryFilter) ([]domain.Entry, error) {
	id, err := s.target(ctx, viewer, clientID)
	if err != nil {
		return nil, err
	}
	return s.entryRepo.Find(ctx, repository.EntryFilter{
		ClientID:  id,
		From:      filter.From,
		To:        filter.To,
		Ascending: filter.Ascending,
	})
}

func (s *entryService) CheckMissedWorkout(ctx context.Context, clientID primitive.ObjectID) (*MissedWorkout, error) {
	// 1. Which weekday was yesterday?
	yesterday := domain.StartOfDay(nowFunc()).AddDate(0, 0, -1)
	weekday := yesterday.Weekday()

	// 2. Did the plan schedule a workout then?
	plan, err := s.planRepo.GetByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &MissedWorkout{Reason: "no active plan"}, nil
		}
		return nil, err
	}
	day, ok := plan.DayFor(weekday)
	if !ok || !day.HasWorkout() {
		return &MissedWorkout{Reason: "yesterday was not a workout day"}, nil
	}

	// 3. Was it completed?
	entry, err := s.entryRepo.GetByClientAndDate(ctx, clientID, yesterday)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if entry != nil && entry.Completed {
		return &MissedWorkout{Reason: "workout completed"}, nil
	}

	// 4. At most one alert per missed-day window
	exists, err := s.alerts.ExistsSince(ctx, clientID, domain.NotificationAlert, yesterday)
	if err != nil {
		return nil, err
	}
	if exists {
		return &MissedWorkout{Missed: true, Reason: "already notified"}, nil
	}

	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	content := fmt.Sprintf("Alert: you missed yesterday's workout (%s)! Consistency is key.", weekday)
	if err := s.notifier.deliver(ctx, client, domain.NotificationAlert, content, nil); err != nil {
		return nil, err
	}
	return &MissedWorkout{Missed: true, Notified: true, Reason: "notification created"}, nil
}
