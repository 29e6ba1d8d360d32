package artifacts

import (
	"context"
	"time"

	"log/slog"

	"github.com/admin/photo-apps/studio-api/internal/domain"
	ports "github.com/admin/photo-apps/studio-api/internal/ports/repository"
	"github.com/admin/photo-apps/studio-api/internal/ports/service"
	"github.com/admin/photo-apps/studio-api/internal/ports/storage"
	"github.com/google/uuid"
)

const defaultURLTTL = 15 * time.Minute

// Service реализует IArtifactService: blob в S3, метаданные в Postgres
type Service struct {
	repo   ports.IArtifactRepo
	s3     storage.IS3Client
	urlTTL time.Duration
	log    *slog.Logger
}

// New создаёт новый сервис артефактов
func New(repo ports.IArtifactRepo, s3 storage.IS3Client, urlTTL time.Duration, log *slog.Logger) service.IArtifactService {
	if urlTTL <= 0 {
		urlTTL = defaultURLTTL
	}
	return &Service{
		repo:   repo,
		s3:     s3,
		urlTTL: urlTTL,
		log:    log,
	}
}

// Persist сохраняет blob, затем строку метаданных.
// Порядок строгий: строка не должна ссылаться на несуществующий blob.
// При ошибке вставки blob откатывается best-effort, запись не ретраится
func (s *Service) Persist(ctx context.Context, userID, chargeID uuid.UUID, data []byte, contentType string) (*domain.Artifact, error) {
	artifactID := uuid.New()
	storageKey := domain.GenerationStorageKey(userID, artifactID, contentType)

	if err := s.s3.PutFile(ctx, storageKey, data, contentType); err != nil {
		return nil, domain.WrapError(domain.CodeUploadFailed, "failed to store artifact blob", err)
	}

	artifact := &domain.Artifact{
		ID:          artifactID,
		UserID:      userID,
		Kind:        domain.ArtifactKindImage,
		StorageKey:  storageKey,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		Status:      domain.ArtifactStatusReady,
		ChargeID:    chargeID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, artifact); err != nil {
		// Откатываем уже записанный blob, чтобы не копить сирот
		if delErr := s.s3.DeleteFile(ctx, storageKey); delErr != nil {
			s.log.Warn("failed to delete orphan blob after insert failure",
				"error", delErr,
				"storage_key", storageKey,
				"artifact_id", artifactID,
			)
		}
		return nil, domain.WrapError(domain.CodeDBInsertFailed, "failed to store artifact metadata", err)
	}

	s.log.Info("artifact persisted",
		"artifact_id", artifactID,
		"user_id", userID,
		"charge_id", chargeID,
		"size_bytes", artifact.SizeBytes,
	)

	return artifact, nil
}

// PresignedURL возвращает короткоживущую ссылку на blob артефакта
func (s *Service) PresignedURL(ctx context.Context, artifact *domain.Artifact) (string, error) {
	url, err := s.s3.GetPresignedURL(ctx, artifact.StorageKey, s.urlTTL)
	if err != nil {
		return "", domain.WrapError(domain.CodeInternal, "failed to presign artifact url", err)
	}
	return url, nil
}

// ListRecent возвращает свежие артефакты пользователя со ссылками
func (s *Service) ListRecent(ctx context.Context, userID uuid.UUID, kind domain.ArtifactKind, limit int) ([]*domain.ArtifactListItem, error) {
	artifacts, err := s.repo.ListByUserAndKind(ctx, userID, kind)
	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, "failed to list artifacts", err)
	}

	if limit > 0 && len(artifacts) > limit {
		artifacts = artifacts[:limit]
	}

	items := make([]*domain.ArtifactListItem, 0, len(artifacts))
	for _, artifact := range artifacts {
		url, err := s.PresignedURL(ctx, artifact)
		if err != nil {
			return nil, err
		}
		items = append(items, &domain.ArtifactListItem{
			ID:          artifact.ID,
			Kind:        artifact.Kind,
			ContentType: artifact.ContentType,
			SizeBytes:   artifact.SizeBytes,
			URL:         url,
			CreatedAt:   artifact.CreatedAt,
		})
	}

	return items, nil
}

// Delete удаляет артефакт пользователя: сначала blob, затем строку.
// Чужой и несуществующий артефакт неразличимы для вызывающего
func (s *Service) Delete(ctx context.Context, userID, artifactID uuid.UUID) error {
	artifact, err := s.repo.GetByID(ctx, artifactID)
	if err != nil {
		return domain.WrapError(domain.CodeNotFound, "artifact not found", err)
	}

	if artifact.UserID != userID {
		return domain.NewError(domain.CodeNotFound, "artifact not found")
	}

	if err := s.s3.DeleteFile(ctx, artifact.StorageKey); err != nil {
		return domain.WrapError(domain.CodeInternal, "failed to delete artifact blob", err)
	}

	if err := s.repo.DeleteByID(ctx, artifactID); err != nil {
		return domain.WrapError(domain.CodeInternal, "failed to delete artifact metadata", err)
	}

	s.log.Info("artifact deleted",
		"artifact_id", artifactID,
		"user_id", userID,
	)

	return nil
}
