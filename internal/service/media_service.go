package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/repository"
	"github.com/PauloVieira29/Fitness/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrNoFile          = newError(KindValidation, "no file uploaded")
	ErrFileTooLarge    = newError(KindValidation, "file is too large")
	ErrUnsupportedFile = newError(KindValidation, "unsupported file type")
)

// FileInput is one uploaded file as received by the API.
type FileInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type MediaService interface {
	// UploadProof stores an image or video proving a workout.
	UploadProof(ctx context.Context, ownerID primitive.ObjectID, file FileInput) (*domain.Upload, error)
	// UploadAvatar stores an image and makes it the owner's avatar.
	UploadAvatar(ctx context.Context, ownerID primitive.ObjectID, file FileInput) (*domain.Upload, error)
}

type mediaService struct {
	userRepo    repository.UserRepository
	uploadRepo  repository.UploadRepository
	fileStorage storage.FileStorage
	maxBytes    int64
}

func NewMediaService(userRepo repository.UserRepository, uploadRepo repository.UploadRepository, fileStorage storage.FileStorage, maxBytes int64) MediaService {
	return &mediaService{
		userRepo:    userRepo,
		uploadRepo:  uploadRepo,
		fileStorage: fileStorage,
		maxBytes:    maxBytes,
	}
}

func (s *mediaService) UploadProof(ctx context.Context, ownerID primitive.ObjectID, file FileInput) (*domain.Upload, error) {
	if err := s.check(file, "image/", "video/"); err != nil {
		return nil, err
	}
	return s.store(ctx, ownerID, domain.UploadProof, file)
}

func (s *mediaService) UploadAvatar(ctx context.Context, ownerID primitive.ObjectID, file FileInput) (*domain.Upload, error) {
	if err := s.check(file, "image/"); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	up, err := s.store(ctx, ownerID, domain.UploadAvatar, file)
	if err != nil {
		return nil, err
	}

	previous := user.Profile.AvatarURL
	user.Profile.AvatarURL = up.URL
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if previous != "" && previous != up.URL {
		s.discard(ctx, previous)
	}
	return up, nil
}

func (s *mediaService) check(file FileInput, allowed ...string) error {
	if file.Body == nil || file.Size == 0 {
		return ErrNoFile
	}
	if s.maxBytes > 0 && file.Size > s.maxBytes {
		return ErrFileTooLarge
	}
	ct := strings.ToLower(file.ContentType)
	for _, prefix := range allowed {
		if strings.HasPrefix(ct, prefix) {
			return nil
		}
	}
	return ErrUnsupportedFile
}

func (s *mediaService) store(ctx context.Context, ownerID primitive.ObjectID, kind domain.UploadKind, file FileInput) (*domain.Upload, error) {
	// 1. Put the object under <kind>/<owner>/<uuid><ext>
	key := fmt.Sprintf("%s/%s/%s%s", kind, ownerID.Hex(), uuid.NewString(), strings.ToLower(path.Ext(file.FileName)))
	if err := s.fileStorage.PutObject(ctx, key, file.ContentType, file.Body, file.Size); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("object_key", key).Msg("Failed to store upload")
		return nil, err
	}

	// 2. Record metadata
	up := &domain.Upload{
		Owner:       ownerID,
		Kind:        kind,
		ObjectKey:   key,
		URL:         s.fileStorage.ObjectURL(key),
		FileName:    file.FileName,
		ContentType: file.ContentType,
		Size:        file.Size,
		UploadedAt:  nowFunc(),
	}
	id, err := s.uploadRepo.Create(ctx, up)
	if err != nil {
		// Orphaned object; try to clean it up.
		if delErr := s.fileStorage.DeleteObject(ctx, key); delErr != nil {
			logging.Ctx(ctx).Warn().Err(delErr).Str("object_key", key).Msg("Failed to remove orphaned upload")
		}
		return nil, err
	}
	up.ID = id
	return up, nil
}

// discard removes a replaced avatar. Failures are only logged.
func (s *mediaService) discard(ctx context.Context, url string) {
	old, err := s.uploadRepo.GetByURL(ctx, url)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to look up previous avatar")
		}
		return
	}
	if err := s.fileStorage.DeleteObject(ctx, old.ObjectKey); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("object_key", old.ObjectKey).Msg("Failed to delete previous avatar")
		return
	}
	if err := s.uploadRepo.Delete(ctx, old.ID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to delete previous avatar record")
	}
}
