package service

import (
	"context"

	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/google/uuid"
)

// IArtifactService интерфейс для работы с артефактами (blob + метаданные)
type IArtifactService interface {
	// Persist сохраняет blob в S3 и строку метаданных в базе.
	// При ошибке вставки уже записанный blob удаляется best-effort
	Persist(ctx context.Context, userID, chargeID uuid.UUID, data []byte, contentType string) (*domain.Artifact, error)
	// PresignedURL возвращает короткоживущую ссылку на blob артефакта
	PresignedURL(ctx context.Context, artifact *domain.Artifact) (string, error)
	// Trim подрезает историю пользователя до limit, новые записи выживают.
	// Возвращает число удалённых артефактов
	Trim(ctx context.Context, userID uuid.UUID, kind domain.ArtifactKind, limit int) (int64, error)
	// ListRecent возвращает свежие артефакты пользователя со ссылками
	ListRecent(ctx context.Context, userID uuid.UUID, kind domain.ArtifactKind, limit int) ([]*domain.ArtifactListItem, error)
	// Delete удаляет артефакт пользователя (blob, затем строку)
	Delete(ctx context.Context, userID, artifactID uuid.UUID) error
}
