package memory

import (
	"context"
	"sort"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type entryRepository struct {
	s *Store
}

// Entries returns the entry view of the store.
func (s *Store) Entries() repository.EntryRepository {
	return &entryRepository{s: s}
}

func (r *entryRepository) Create(_ context.Context, entry *domain.Entry) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.entries {
		if e.Client == entry.Client && e.Date.Equal(entry.Date) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = r.s.clock.now()
	entry.UpdatedAt = entry.CreatedAt
	r.s.entries[entry.ID] = *entry
	return entry.ID, nil
}

func (r *entryRepository) GetByClientAndDate(_ context.Context, clientID primitive.ObjectID, date time.Time) (*domain.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.entries {
		if e.Client == clientID && e.Date.Equal(date) {
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *entryRepository) Update(_ context.Context, entry *domain.Entry, wasCompleted bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.entries[entry.ID]
	if !ok || cur.Completed != wasCompleted {
		return false, nil
	}
	cur.Completed = entry.Completed
	cur.CompletedAt = entry.CompletedAt
	cur.Reason = entry.Reason
	cur.ProofMedia = entry.ProofMedia
	cur.CaloriesBurned = entry.CaloriesBurned
	cur.Notes = entry.Notes
	cur.UpdatedAt = r.s.clock.now()
	entry.UpdatedAt = cur.UpdatedAt
	r.s.entries[entry.ID] = cur
	return true, nil
}

func (r *entryRepository) Find(_ context.Context, f repository.EntryFilter) ([]domain.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Entry{}
	for _, e := range r.s.entries {
		if e.Client != f.ClientID || (f.CompletedOnly && !e.Completed) {
			continue
		}
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Date.After(*f.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Ascending {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

type uploadRepository struct {
	s *Store
}

// Uploads returns the upload metadata view of the store.
func (s *Store) Uploads() repository.UploadRepository {
	return &uploadRepository{s: s}
}

func (r *uploadRepository) Create(_ context.Context, upload *domain.Upload) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	upload.ID = primitive.NewObjectID()
	if upload.UploadedAt.IsZero() {
		upload.UploadedAt = r.s.clock.now()
	}
	r.s.uploads[upload.ID] = *upload
	return upload.ID, nil
}

func (r *uploadRepository) GetByURL(_ context.Context, url string) (*domain.Upload, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.uploads {
		if u.URL == url {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *uploadRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.uploads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.uploads, id)
	return nil
}
