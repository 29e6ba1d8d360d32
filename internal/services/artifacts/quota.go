package artifacts

import (
	"context"

	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/google/uuid"
)

// Trim удерживает у пользователя не больше limit артефактов вида kind.
// Список отсортирован по убыванию created_at, поэтому выживают свежие.
// Сначала удаляются blob-ы, затем строки: строка без blob-а хуже, чем blob без строки
func (s *Service) Trim(ctx context.Context, userID uuid.UUID, kind domain.ArtifactKind, limit int) (int64, error) {
	if limit <= 0 {
		return 0, nil
	}

	artifacts, err := s.repo.ListByUserAndKind(ctx, userID, kind)
	if err != nil {
		return 0, domain.WrapError(domain.CodeInternal, "failed to list artifacts for trim", err)
	}

	if len(artifacts) <= limit {
		return 0, nil
	}

	excess := artifacts[limit:]

	keys := make([]string, 0, len(excess))
	ids := make([]uuid.UUID, 0, len(excess))
	for _, artifact := range excess {
		keys = append(keys, artifact.StorageKey)
		ids = append(ids, artifact.ID)
	}

	if err := s.s3.DeleteFiles(ctx, keys); err != nil {
		return 0, domain.WrapError(domain.CodeInternal, "failed to delete excess blobs", err)
	}

	deleted, err := s.repo.DeleteByIDs(ctx, ids)
	if err != nil {
		return deleted, domain.WrapError(domain.CodeInternal, "failed to delete excess metadata", err)
	}

	s.log.Info("artifacts trimmed",
		"user_id", userID,
		"kind", kind,
		"deleted", deleted,
	)

	return deleted, nil
}
