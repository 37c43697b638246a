package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepository struct {
	s *Store
}

// Users returns the user repository view of the store.
func (s *Store) Users() repository.UserRepository {
	return &userRepository{s: s}
}

func (r *userRepository) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = r.s.clock.now()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = copyUser(*user)
	return user.ID, nil
}

func (r *userRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := copyUser(u)
	return &c, nil
}

func (r *userRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == username {
			c := copyUser(u)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, u := range r.s.users {
		if id != user.ID && u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	next := copyUser(*user)
	next.Profile.TotalPlans = cur.Profile.TotalPlans
	next.Profile.TotalWorkouts = cur.Profile.TotalWorkouts
	next.TrainerAssigned = cur.TrainerAssigned
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.s.clock.now()
	r.s.users[user.ID] = next
	return nil
}

func (r *userRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

// sorted returns the users matching keep, ordered by less.
func (r *userRepository) sorted(keep func(domain.User) bool, less func(a, b domain.User) bool) []domain.User {
	out := []domain.User{}
	for _, u := range r.s.users {
		if keep(u) {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func newestFirst(a, b domain.User) bool { return a.CreatedAt.After(b.CreatedAt) }

func byName(a, b domain.User) bool {
	if a.Profile.Name != b.Profile.Name {
		return a.Profile.Name < b.Profile.Name
	}
	return a.ID.Hex() < b.ID.Hex()
}

func (r *userRepository) List(_ context.Context, limit int) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.sorted(func(domain.User) bool { return true }, newestFirst)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *userRepository) FindFirstByRole(_ context.Context, role domain.Role) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.sorted(func(u domain.User) bool { return u.Role == role }, func(a, b domain.User) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	})
	if len(out) == 0 {
		return nil, repository.ErrNotFound
	}
	return &out[0], nil
}

func (r *userRepository) ListTrainers(_ context.Context, f repository.TrainerFilter) ([]domain.User, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q := strings.ToLower(f.Query)
	all := r.sorted(func(u domain.User) bool {
		return u.Role == domain.RoleTrainer && u.Validated && u.IsActive &&
			strings.Contains(strings.ToLower(u.Profile.Name), q)
	}, byName)

	total := int64(len(all))
	start := (f.Page - 1) * f.Limit
	if start < 0 || start >= len(all) {
		return []domain.User{}, total, nil
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *userRepository) ListClientsOfTrainer(_ context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.sorted(func(u domain.User) bool {
		return u.Role == domain.RoleClient && u.HasTrainer(trainerID)
	}, byName), nil
}

func (r *userRepository) CountClientsOfTrainer(ctx context.Context, trainerID primitive.ObjectID) (int64, error) {
	clients, err := r.ListClientsOfTrainer(ctx, trainerID)
	return int64(len(clients)), err
}

func (r *userRepository) SetTrainer(_ context.Context, clientID primitive.ObjectID, trainerID *primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[clientID]
	if !ok || u.Role != domain.RoleClient {
		return repository.ErrNotFound
	}
	if trainerID != nil {
		id := *trainerID
		u.TrainerAssigned = &id
	} else {
		u.TrainerAssigned = nil
	}
	u.UpdatedAt = r.s.clock.now()
	r.s.users[clientID] = u
	return nil
}

func (r *userRepository) CountWithSpecialty(_ context.Context, specialtyID primitive.ObjectID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, u := range r.s.users {
		for _, id := range u.Profile.Specialties {
			if id == specialtyID {
				n++
				break
			}
		}
	}
	return n, nil
}

func (r *userRepository) mutate(id primitive.ObjectID, fn func(*domain.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	r.s.users[id] = u
	return nil
}

func (r *userRepository) IncTotalPlans(_ context.Context, trainerID primitive.ObjectID, delta int) error {
	return r.mutate(trainerID, func(u *domain.User) { u.Profile.TotalPlans += delta })
}

func (r *userRepository) RaiseTotalPlans(_ context.Context, trainerID primitive.ObjectID, atLeast int) error {
	return r.mutate(trainerID, func(u *domain.User) {
		if u.Profile.TotalPlans < atLeast {
			u.Profile.TotalPlans = atLeast
		}
	})
}

func (r *userRepository) IncTotalWorkouts(_ context.Context, clientID primitive.ObjectID, delta int) error {
	return r.mutate(clientID, func(u *domain.User) { u.Profile.TotalWorkouts += delta })
}
