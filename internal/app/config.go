package app

import (
	"time"

	server "github.com/admin/photo-apps/studio-api/internal/adapters/primary/http"
	"github.com/admin/photo-apps/studio-api/internal/adapters/primary/http/middlewares"
	alerterAdapter "github.com/admin/photo-apps/studio-api/internal/adapters/secondary/alerter"
	genApiAdapter "github.com/admin/photo-apps/studio-api/internal/adapters/secondary/genApi"
	kafkaAdapter "github.com/admin/photo-apps/studio-api/internal/adapters/secondary/kafka"
	ledgerApiAdapter "github.com/admin/photo-apps/studio-api/internal/adapters/secondary/ledgerApi"
	"github.com/admin/photo-apps/studio-api/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/admin/photo-apps/studio-api/internal/adapters/secondary/storage/redis"
	s3Adapter "github.com/admin/photo-apps/studio-api/internal/adapters/secondary/storage/s3"
	"github.com/admin/photo-apps/studio-api/internal/pkg/logger"
	generationUsecase "github.com/admin/photo-apps/studio-api/internal/usecases/generation"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Postgres   *pg.Config                  `envconfig:"POSTGRES"`
	Log        *logger.Config              `envconfig:"LOG"`
	Server     *server.Config              `envconfig:"APISERVER"`
	Redis      *redisAdapter.Config        `envconfig:"REDIS"`
	S3         *s3Adapter.Config           `envconfig:"S3"`
	Kafka      *kafkaAdapter.Config        `envconfig:"KAFKA"`
	Alerter    *alerterAdapter.Config      `envconfig:"ALERTER"`
	LedgerAPI  *ledgerApiAdapter.Config    `envconfig:"LEDGER_API"`
	GenAPI     *genApiAdapter.Config       `envconfig:"GEN_API"`
	Generation generationUsecase.Config    `envconfig:"GENERATION"`
	RateLimit  middlewares.RateLimitConfig `envconfig:"RATE_LIMIT"`
	Artifacts  ArtifactsConfig             `envconfig:"ARTIFACTS"`
	Jobs       JobsConfig                  `envconfig:"JOBS"`
}

// ArtifactsConfig настройки выдачи артефактов
type ArtifactsConfig struct {
	URLTTL time.Duration `envconfig:"URL_TTL" default:"15m"`
}

// JobsConfig настройки фоновых джоб
type JobsConfig struct {
	PendingReportInterval  time.Duration `envconfig:"PENDING_REPORT_INTERVAL" default:"15m"`
	PendingReportOlderThan time.Duration `envconfig:"PENDING_REPORT_OLDER_THAN" default:"30m"`
}

func NewEnvConfig(envPrefix string) (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load("deployments/local/.env")

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
