package generation

import (
	"log/slog"

	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/admin/photo-apps/studio-api/internal/ports/kafka"
	"github.com/admin/photo-apps/studio-api/internal/ports/service"
	"github.com/admin/photo-apps/studio-api/internal/ports/usecase"
)

// Config параметры конвейера: тарифы, лимиты размеров, глубина истории.
// Один оркестратор обслуживает все виды действий, различия только здесь
type Config struct {
	CostQuickGeneration int64 `envconfig:"COST_QUICK_GENERATION" default:"15"`
	CostProGeneration   int64 `envconfig:"COST_PRO_GENERATION" default:"40"`
	CostCutout          int64 `envconfig:"COST_CUTOUT" default:"10"`
	MaxImageBytesCheap  int64 `envconfig:"MAX_IMAGE_BYTES_CHEAP" default:"2097152"`
	MaxImageBytesStrong int64 `envconfig:"MAX_IMAGE_BYTES_STRONG" default:"6291456"`
	MaxRefImageBytes    int64 `envconfig:"MAX_REF_IMAGE_BYTES" default:"524288"`
	MaxPromptLength     int   `envconfig:"MAX_PROMPT_LENGTH" default:"4000"`
	RetentionLimit      int   `envconfig:"RETENTION_LIMIT" default:"10"`
}

// CostFor возвращает стоимость действия в токенах
func (c Config) CostFor(action domain.ActionKind) int64 {
	switch action {
	case domain.ActionProGeneration:
		return c.CostProGeneration
	case domain.ActionCutout:
		return c.CostCutout
	default:
		return c.CostQuickGeneration
	}
}

// maxImageBytes возвращает лимит размера исходной картинки для уровня модели
func (c Config) maxImageBytes(tier domain.ModelTier) int64 {
	if tier == domain.ModelTierStrong {
		return c.MaxImageBytesStrong
	}
	return c.MaxImageBytesCheap
}

// Service оркестратор платной генерации
type Service struct {
	Cfg              Config
	LedgerService    service.ILedgerService
	GeneratorService service.IGeneratorService
	ArtifactService  service.IArtifactService
	Producer         kafka.IKafkaProducer
	AlerterService   service.IAlerterService
	Log              *slog.Logger
}

// New создаёт новый оркестратор платной генерации
func New(
	cfg Config,
	ledgerService service.ILedgerService,
	generatorService service.IGeneratorService,
	artifactService service.IArtifactService,
	producer kafka.IKafkaProducer,
	alerterService service.IAlerterService,
	log *slog.Logger,
) usecase.IGenerationUseCase {
	return &Service{
		Cfg:              cfg,
		LedgerService:    ledgerService,
		GeneratorService: generatorService,
		ArtifactService:  artifactService,
		Producer:         producer,
		AlerterService:   alerterService,
		Log:              log,
	}
}
