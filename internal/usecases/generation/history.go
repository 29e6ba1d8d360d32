package generation

import (
	"context"

	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/google/uuid"
)

// History возвращает свежие генерации пользователя со ссылками.
// limit за пределами глубины хранения подрезается до неё
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ArtifactListItem, error) {
	if limit <= 0 || limit > s.Cfg.RetentionLimit {
		limit = s.Cfg.RetentionLimit
	}
	return s.ArtifactService.ListRecent(ctx, userID, domain.ArtifactKindImage, limit)
}

// DeleteArtifact удаляет генерацию пользователя
func (s *Service) DeleteArtifact(ctx context.Context, userID, artifactID uuid.UUID) error {
	return s.ArtifactService.Delete(ctx, userID, artifactID)
}

// Balance возвращает текущий баланс токенов пользователя
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.LedgerService.GetBalance(ctx, userID)
}
