package repository

import (
	"context"

	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/google/uuid"
)

// IArtifactRepo интерфейс для работы с метаданными артефактов
type IArtifactRepo interface {
	Create(ctx context.Context, artifact *domain.Artifact) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error)
	// ListByUserAndKind возвращает артефакты пользователя, новые первыми
	ListByUserAndKind(ctx context.Context, userID uuid.UUID, kind domain.ArtifactKind) ([]*domain.Artifact, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}
