package generation

import (
	"github.com/admin/photo-apps/studio-api/internal/domain"
)

// GenerationForm текстовые поля multipart-формы генерации,
// файлы image/refImage читаются отдельно
type GenerationForm struct {
	Prompt      string `form:"prompt"`
	ModelTier   string `form:"modelTier"`
	AspectRatio string `form:"aspectRatio"`
}

// HistoryResponse страница истории генераций
type HistoryResponse struct {
	Items []*domain.ArtifactListItem `json:"items"`
}

// BalanceResponse текущий баланс токенов
type BalanceResponse struct {
	Balance int64 `json:"balance"`
}
