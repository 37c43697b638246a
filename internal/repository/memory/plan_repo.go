package memory

import (
	"context"
	"sort"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type planRepository struct {
	s *Store
}

// Plans returns the plan view of the store.
func (s *Store) Plans() repository.PlanRepository {
	return &planRepository{s: s}
}

func (r *planRepository) Create(_ context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.plans {
		if p.Client == plan.Client {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = r.s.clock.now()
	plan.UpdatedAt = plan.CreatedAt
	stored := *plan
	stored.Days = domain.CloneDays(plan.Days)
	r.s.plans[plan.ID] = stored
	return plan.ID, nil
}

func (r *planRepository) GetByClient(_ context.Context, clientID primitive.ObjectID) (*domain.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.plans {
		if p.Client == clientID {
			p.Days = domain.CloneDays(p.Days)
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *planRepository) DeleteByClient(_ context.Context, clientID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, p := range r.s.plans {
		if p.Client == clientID {
			delete(r.s.plans, id)
			n++
		}
	}
	return n, nil
}

func (r *planRepository) CountByTrainer(_ context.Context, trainerID primitive.ObjectID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, p := range r.s.plans {
		if p.Trainer == trainerID {
			n++
		}
	}
	return n, nil
}

func (r *planRepository) ListByTrainer(_ context.Context, trainerID primitive.ObjectID, clientID *primitive.ObjectID) ([]domain.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Plan{}
	for _, p := range r.s.plans {
		if p.Trainer != trainerID || (clientID != nil && p.Client != *clientID) {
			continue
		}
		p.Days = domain.CloneDays(p.Days)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type planTemplateRepository struct {
	s *Store
}

// PlanTemplates returns the template view of the store.
func (s *Store) PlanTemplates() repository.PlanTemplateRepository {
	return &planTemplateRepository{s: s}
}

func (r *planTemplateRepository) Create(_ context.Context, tpl *domain.PlanTemplate) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tpl.ID = primitive.NewObjectID()
	tpl.CreatedAt = r.s.clock.now()
	tpl.UpdatedAt = tpl.CreatedAt
	stored := *tpl
	stored.Days = domain.CloneDays(tpl.Days)
	r.s.templates[tpl.ID] = stored
	return tpl.ID, nil
}

func (r *planTemplateRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.PlanTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tpl, ok := r.s.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	tpl.Days = domain.CloneDays(tpl.Days)
	return &tpl, nil
}

func (r *planTemplateRepository) GetByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.PlanTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.PlanTemplate{}
	for _, tpl := range r.s.templates {
		if tpl.Trainer == trainerID {
			tpl.Days = domain.CloneDays(tpl.Days)
			out = append(out, tpl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *planTemplateRepository) Update(_ context.Context, tpl *domain.PlanTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.templates[tpl.ID]
	if !ok || cur.Trainer != tpl.Trainer {
		return repository.ErrNotFound
	}
	cur.Name = tpl.Name
	cur.Weeks = tpl.Weeks
	cur.SessionsPerWeek = tpl.SessionsPerWeek
	cur.Days = domain.CloneDays(tpl.Days)
	cur.Notes = tpl.Notes
	cur.UpdatedAt = r.s.clock.now()
	tpl.UpdatedAt = cur.UpdatedAt
	r.s.templates[tpl.ID] = cur
	return nil
}

func (r *planTemplateRepository) Delete(_ context.Context, id, trainerID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.templates[id]
	if !ok || cur.Trainer != trainerID {
		return repository.ErrNotFound
	}
	delete(r.s.templates, id)
	return nil
}
