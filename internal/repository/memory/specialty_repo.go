package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type specialtyRepository struct {
	s *Store
}

// Specialties returns the specialty view of the store.
func (s *Store) Specialties() repository.SpecialtyRepository {
	return &specialtyRepository{s: s}
}

func (r *specialtyRepository) nameTaken(name string, except primitive.ObjectID) bool {
	for id, sp := range r.s.specialties {
		if id != except && strings.EqualFold(sp.Name, name) {
			return true
		}
	}
	return false
}

func (r *specialtyRepository) Create(_ context.Context, sp *domain.Specialty) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(sp.Name, primitive.NilObjectID) {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	sp.ID = primitive.NewObjectID()
	sp.CreatedAt = r.s.clock.now()
	sp.UpdatedAt = sp.CreatedAt
	r.s.specialties[sp.ID] = *sp
	return sp.ID, nil
}

func (r *specialtyRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Specialty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sp, ok := r.s.specialties[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sp, nil
}

func (r *specialtyRepository) GetByName(_ context.Context, name string) (*domain.Specialty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sp := range r.s.specialties {
		if strings.EqualFold(sp.Name, name) {
			return &sp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *specialtyRepository) List(_ context.Context, activeOnly bool) ([]domain.Specialty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Specialty{}
	for _, sp := range r.s.specialties {
		if !activeOnly || sp.Active {
			out = append(out, sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (r *specialtyRepository) Update(_ context.Context, sp *domain.Specialty) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.specialties[sp.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(sp.Name, sp.ID) {
		return repository.ErrDuplicate
	}
	next := *sp
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.s.clock.now()
	sp.UpdatedAt = next.UpdatedAt
	r.s.specialties[sp.ID] = next
	return nil
}

func (r *specialtyRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.specialties[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.specialties, id)
	return nil
}
