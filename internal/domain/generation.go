package domain

import (
	"github.com/google/uuid"
)

// ModelTier уровень модели генерации
type ModelTier string

const (
	ModelTierCheap  ModelTier = "cheap"  // быстрая дешёвая модель
	ModelTierStrong ModelTier = "strong" // сильная модель
)

// String возвращает строковое представление уровня
func (t ModelTier) String() string {
	return string(t)
}

// IsValid проверяет, является ли уровень валидным
func (t ModelTier) IsValid() bool {
	switch t {
	case ModelTierCheap, ModelTierStrong:
		return true
	default:
		return false
	}
}

// Action возвращает вид платного действия для уровня модели
func (t ModelTier) Action() ActionKind {
	if t == ModelTierStrong {
		return ActionProGeneration
	}
	return ActionQuickGeneration
}

// AspectRatio соотношение сторон результата
type AspectRatio string

// AllAspectRatios возвращает допустимые соотношения сторон (allow-list провайдера)
func AllAspectRatios() []AspectRatio {
	return []AspectRatio{
		"1:1", "2:3", "3:2", "3:4", "4:3", "4:5", "5:4", "9:16", "16:9", "21:9",
	}
}

// String возвращает строковое представление соотношения
func (r AspectRatio) String() string {
	return string(r)
}

// IsValid проверяет соотношение по allow-list-у
func (r AspectRatio) IsValid() bool {
	for _, allowed := range AllAspectRatios() {
		if r == allowed {
			return true
		}
	}
	return false
}

// GenerationStage шаг конвейера генерации, на котором мы сейчас находимся.
// Используется в логах и billing-событиях для диагностики места сбоя
type GenerationStage string

const (
	StageValidate GenerationStage = "validate"
	StageCharge   GenerationStage = "charge"
	StageGenerate GenerationStage = "generate"
	StagePersist  GenerationStage = "persist"
	StageTrim     GenerationStage = "trim"
	StageSettle   GenerationStage = "settle"
)

// GenerationTask задание провайдеру генерации
type GenerationTask struct {
	Prompt      string
	Tier        ModelTier
	AspectRatio AspectRatio
	Image       []byte // исходное изображение
	ImageType   string
	RefImage    []byte // опциональный референс стиля
	RefType     string
}

// GeneratedImage ответ провайдера генерации: байты картинки + фактическая модель
type GeneratedImage struct {
	Data        []byte
	ContentType string
	Model       string
}

// GenerationResult итог успешной генерации, отдаётся наружу контроллером
type GenerationResult struct {
	ArtifactID  uuid.UUID `json:"artifact_id"`
	URL         string    `json:"url"` // короткоживущий presigned URL на результат
	ContentType string    `json:"content_type"`
	Model       string    `json:"model"`
	ChargeID    uuid.UUID `json:"charge_id"`
	Cost        int64     `json:"cost"`
	Balance     int64     `json:"balance"` // баланс после списания
}
