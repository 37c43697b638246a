package memory

import (
	"context"
	"sort"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type trainerRequestRepository struct {
	s *Store
}

// TrainerRequests returns the trainer change request view of the store.
func (s *Store) TrainerRequests() repository.TrainerRequestRepository {
	return &trainerRequestRepository{s: s}
}

func (r *trainerRequestRepository) Create(_ context.Context, req *domain.TrainerChangeRequest) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req.ID = primitive.NewObjectID()
	req.CreatedAt = r.s.clock.now()
	req.UpdatedAt = req.CreatedAt
	if req.Status == "" {
		req.Status = domain.RequestPending
	}
	r.s.requests[req.ID] = *req
	return req.ID, nil
}

func (r *trainerRequestRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainerChangeRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &req, nil
}

func (r *trainerRequestRepository) ExistsPending(_ context.Context, clientID, newTrainerID primitive.ObjectID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, req := range r.s.requests {
		if req.Client == clientID && req.NewTrainer == newTrainerID && req.IsPending() {
			return true, nil
		}
	}
	return false, nil
}

func (r *trainerRequestRepository) pending(keep func(domain.TrainerChangeRequest) bool) []domain.TrainerChangeRequest {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.TrainerChangeRequest{}
	for _, req := range r.s.requests {
		if req.IsPending() && keep(req) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *trainerRequestRepository) ListPendingForTrainer(_ context.Context, trainerID primitive.ObjectID) ([]domain.TrainerChangeRequest, error) {
	return r.pending(func(req domain.TrainerChangeRequest) bool { return req.NewTrainer == trainerID }), nil
}

func (r *trainerRequestRepository) ListPending(_ context.Context) ([]domain.TrainerChangeRequest, error) {
	return r.pending(func(domain.TrainerChangeRequest) bool { return true }), nil
}

func (r *trainerRequestRepository) Decide(_ context.Context, id primitive.ObjectID, status domain.RequestStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok || !req.IsPending() {
		return repository.ErrNotFound
	}
	req.Status = status
	req.UpdatedAt = r.s.clock.now()
	r.s.requests[id] = req
	return nil
}
