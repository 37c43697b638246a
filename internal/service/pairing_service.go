package service

import (
	"context"
	"errors"
	"strings"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/metrics"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultAlertMessage = "Your trainer noticed you have been missing sessions. Let's get back on track!"

// --- Error Definitions ---
var (
	ErrTrainerUnavailable = newError(KindNotFound, "trainer not found or not validated")
	ErrAlreadyYourTrainer = newError(KindValidation, "this trainer is already assigned to you")
	ErrDuplicateRequest   = newError(KindConflict, "you already have a pending request for this trainer")
	ErrTrainerAtCapacity  = newError(KindConflict, "trainer has reached the limit of 10 clients")
	ErrRequestNotFound    = newError(KindNotFound, "trainer change request not found")
	ErrRequestAccess      = newError(KindForbidden, "this request is addressed to another trainer")
	ErrRequestDecided     = newError(KindConflict, "trainer change request was already decided")
	ErrNotClientRole      = newError(KindValidation, "user is not a client")
)

// RequestView is a trainer change request with its participants loaded.
// Participants that no longer exist are nil.
type RequestView struct {
	Request        domain.TrainerChangeRequest
	Client         *domain.User
	CurrentTrainer *domain.User
	NewTrainer     *domain.User
}

// PairingService manages the trainer/client assignment ledger.
type PairingService interface {
	// RequestAssignment opens a pending request for clientID to train with trainerID.
	RequestAssignment(ctx context.Context, clientID, trainerID primitive.ObjectID) (*RequestView, error)
	ListPendingForTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]RequestView, error)
	ListPending(ctx context.Context) ([]RequestView, error)
	// Resolve is the target trainer's decision on a request.
	Resolve(ctx context.Context, requestID, trainerID primitive.ObjectID, accept bool) (*domain.TrainerChangeRequest, error)
	// Adjudicate is the admin decision on any pending request.
	Adjudicate(ctx context.Context, requestID primitive.ObjectID, accept bool) (*domain.TrainerChangeRequest, error)
	RemoveClient(ctx context.Context, trainerID, clientID primitive.ObjectID) error
	AlertClient(ctx context.Context, trainerID, clientID primitive.ObjectID, message string) error
}

type pairingService struct {
	userRepo    repository.UserRepository
	requestRepo repository.TrainerRequestRepository
	planRepo    repository.PlanRepository
	notifier    *notifier
}

func NewPairingService(
	userRepo repository.UserRepository,
	requestRepo repository.TrainerRequestRepository,
	planRepo repository.PlanRepository,
	notificationRepo repository.NotificationRepository,
) PairingService {
	return &pairingService{
		userRepo:    userRepo,
		requestRepo: requestRepo,
		planRepo:    planRepo,
		notifier:    newNotifier(notificationRepo),
	}
}

func (s *pairingService) RequestAssignment(ctx context.Context, clientID, trainerID primitive.ObjectID) (*RequestView, error) {
	// 1. The target must be a discoverable trainer
	trainer, err := s.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerUnavailable
		}
		return nil, err
	}
	if !trainer.IsTrainer() || !trainer.Validated {
		return nil, ErrTrainerUnavailable
	}

	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, ErrNotClientRole
	}
	if client.HasTrainer(trainerID) {
		return nil, ErrAlreadyYourTrainer
	}

	// 2. One pending request per (client, target)
	exists, err := s.requestRepo.ExistsPending(ctx, clientID, trainerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateRequest
	}

	// 3. Early capacity check; it is repeated when the request is accepted
	count, err := s.userRepo.CountClientsOfTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if count >= domain.MaxClientsPerTrainer {
		return nil, ErrTrainerAtCapacity
	}

	// 4. Record the request with the current trainer as context
	req := &domain.TrainerChangeRequest{
		Client:         clientID,
		CurrentTrainer: client.TrainerAssigned,
		NewTrainer:     trainerID,
		Status:         domain.RequestPending,
	}
	if _, err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().
		Str("request_id", req.ID.Hex()).
		Str("client_id", clientID.Hex()).
		Str("trainer_id", trainerID.Hex()).
		Msg("Trainer change requested")

	view := &RequestView{Request: *req, Client: client, NewTrainer: trainer}
	if client.TrainerAssigned != nil {
		view.CurrentTrainer = s.lookup(ctx, *client.TrainerAssigned)
	}
	return view, nil
}

func (s *pairingService) ListPendingForTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]RequestView, error) {
	reqs, err := s.requestRepo.ListPendingForTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, reqs), nil
}

func (s *pairingService) ListPending(ctx context.Context) ([]RequestView, error) {
	reqs, err := s.requestRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, reqs), nil
}

func (s *pairingService) views(ctx context.Context, reqs []domain.TrainerChangeRequest) []RequestView {
	cache := map[primitive.ObjectID]*domain.User{}
	get := func(id primitive.ObjectID) *domain.User {
		if u, ok := cache[id]; ok {
			return u
		}
		u := s.lookup(ctx, id)
		cache[id] = u
		return u
	}

	out := make([]RequestView, 0, len(reqs))
	for _, r := range reqs {
		v := RequestView{Request: r, Client: get(r.Client), NewTrainer: get(r.NewTrainer)}
		if r.CurrentTrainer != nil {
			v.CurrentTrainer = get(*r.CurrentTrainer)
		}
		out = append(out, v)
	}
	return out
}

// lookup returns nil for missing users.
func (s *pairingService) lookup(ctx context.Context, id primitive.ObjectID) *domain.User {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logging.Ctx(ctx).Warn().Err(err).Str("user_id", id.Hex()).Msg("Failed to load request participant")
		}
		return nil
	}
	return u
}

func (s *pairingService) getRequest(ctx context.Context, id primitive.ObjectID) (*domain.TrainerChangeRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

func (s *pairingService) Resolve(ctx context.Context, requestID, trainerID primitive.ObjectID, accept bool) (*domain.TrainerChangeRequest, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.NewTrainer != trainerID {
		return nil, ErrRequestAccess
	}
	return s.decide(ctx, req, accept)
}

func (s *pairingService) Adjudicate(ctx context.Context, requestID primitive.ObjectID, accept bool) (*domain.TrainerChangeRequest, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return s.decide(ctx, req, accept)
}

// decide applies an accept/reject to a pending request. Both the trainer
// and the admin path go through here, so capacity is always re-checked
// at acceptance time.
func (s *pairingService) decide(ctx context.Context, req *domain.TrainerChangeRequest, accept bool) (*domain.TrainerChangeRequest, error) {
	if !req.IsPending() {
		return nil, ErrRequestDecided
	}

	status := domain.RequestRejected
	if accept {
		count, err := s.userRepo.CountClientsOfTrainer(ctx, req.NewTrainer)
		if err != nil {
			return nil, err
		}
		if count >= domain.MaxClientsPerTrainer {
			metrics.RecordPairingDecision(metrics.OutcomeCapacityRejected)
			return nil, ErrTrainerAtCapacity
		}
		status = domain.RequestAccepted
	}

	// The status flip is conditional on the request still being pending,
	// which makes concurrent deciders lose cleanly.
	if err := s.requestRepo.Decide(ctx, req.ID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestDecided
		}
		return nil, err
	}

	var content string
	if accept {
		trainerID := req.NewTrainer
		if err := s.userRepo.SetTrainer(ctx, req.Client, &trainerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrClientNotFound
			}
			return nil, err
		}
		metrics.RecordPairingDecision(metrics.OutcomeAccepted)
		content = "Your trainer request was accepted. You are now on the same team!"
	} else {
		metrics.RecordPairingDecision(metrics.OutcomeRejected)
		content = "Your trainer request was not accepted at this time."
	}

	if client := s.lookup(ctx, req.Client); client != nil {
		s.notifier.notify(ctx, client, domain.NotificationSystem, content, &req.ID)
	}

	logging.Ctx(ctx).Info().
		Str("request_id", req.ID.Hex()).
		Str("status", string(status)).
		Msg("Trainer change request decided")

	req.Status = status
	req.UpdatedAt = nowFunc()
	return req, nil
}

// ownedClient loads clientID and checks it is assigned to trainerID.
func ownedClient(ctx context.Context, users repository.UserRepository, trainerID, clientID primitive.ObjectID) (*domain.User, error) {
	client, err := users.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, ErrNotClientRole
	}
	if !client.HasTrainer(trainerID) {
		return nil, ErrNotYourClient
	}
	return client, nil
}

func (s *pairingService) RemoveClient(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	client, err := ownedClient(ctx, s.userRepo, trainerID, clientID)
	if err != nil {
		return err
	}

	// 1. Clear the assignment
	if err := s.userRepo.SetTrainer(ctx, clientID, nil); err != nil {
		return err
	}
	// 2. Drop the plan so it does not point at a trainer no longer responsible
	if _, err := s.planRepo.DeleteByClient(ctx, clientID); err != nil {
		return err
	}
	// 3. Tell the client
	s.notifier.notify(ctx, client, domain.NotificationSystem,
		"Your trainer has ended your coaching. You can pick a new trainer from the list.", &trainerID)

	logging.Ctx(ctx).Info().Str("trainer_id", trainerID.Hex()).Str("client_id", clientID.Hex()).Msg("Client removed")
	return nil
}

func (s *pairingService) AlertClient(ctx context.Context, trainerID, clientID primitive.ObjectID, message string) error {
	client, err := ownedClient(ctx, s.userRepo, trainerID, clientID)
	if err != nil {
		return err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = defaultAlertMessage
	}
	return s.notifier.deliver(ctx, client, domain.NotificationAlert, message, &trainerID)
}
