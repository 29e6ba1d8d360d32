package usecase

import (
	"context"

	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/google/uuid"
)

// IGenerationUseCase интерфейс оркестратора платной генерации
type IGenerationUseCase interface {
	// Generate проводит полный цикл: валидация, списание, генерация,
	// сохранение, подрезка истории, закрепление списания
	Generate(ctx context.Context, userID uuid.UUID, task *domain.GenerationTask) (*domain.GenerationResult, error)
	// Cutout тот же цикл для вырезания фона
	Cutout(ctx context.Context, userID uuid.UUID, image []byte, contentType string) (*domain.GenerationResult, error)
	// History возвращает свежие генерации пользователя со ссылками
	History(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ArtifactListItem, error)
	// DeleteArtifact удаляет генерацию пользователя
	DeleteArtifact(ctx context.Context, userID, artifactID uuid.UUID) error
	// Balance возвращает текущий баланс токенов
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
}
