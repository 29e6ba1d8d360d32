package app

import (
	"fmt"
	"net/http"

	server "github.com/admin/photo-apps/studio-api/internal/adapters/primary/http"
	generationController "github.com/admin/photo-apps/studio-api/internal/adapters/primary/http/controllers/generation"
	healthcheckController "github.com/admin/photo-apps/studio-api/internal/adapters/primary/http/controllers/healthcheck"
	"github.com/admin/photo-apps/studio-api/internal/adapters/primary/http/middlewares"
	alerterAdapter "github.com/admin/photo-apps/studio-api/internal/adapters/secondary/alerter"
	genApiAdapter "github.com/admin/photo-apps/studio-api/internal/adapters/secondary/genApi"
	kafkaAdapter "github.com/admin/photo-apps/studio-api/internal/adapters/secondary/kafka"
	ledgerApiAdapter "github.com/admin/photo-apps/studio-api/internal/adapters/secondary/ledgerApi"
	"github.com/admin/photo-apps/studio-api/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/admin/photo-apps/studio-api/internal/adapters/secondary/storage/redis"
	s3Adapter "github.com/admin/photo-apps/studio-api/internal/adapters/secondary/storage/s3"
	"github.com/admin/photo-apps/studio-api/internal/ports/cache"
	"github.com/admin/photo-apps/studio-api/internal/ports/kafka"
	"github.com/admin/photo-apps/studio-api/internal/ports/repository"
	"github.com/admin/photo-apps/studio-api/internal/ports/service"
	"github.com/admin/photo-apps/studio-api/internal/ports/storage"
	"github.com/admin/photo-apps/studio-api/internal/ports/usecase"
	artifactRepo "github.com/admin/photo-apps/studio-api/internal/repository/artifact"
	alerterService "github.com/admin/photo-apps/studio-api/internal/services/alerter"
	artifactsService "github.com/admin/photo-apps/studio-api/internal/services/artifacts"
	generatorService "github.com/admin/photo-apps/studio-api/internal/services/generator"
	jobScheduler "github.com/admin/photo-apps/studio-api/internal/services/jobs"
	ledgerService "github.com/admin/photo-apps/studio-api/internal/services/ledger"
	sessionService "github.com/admin/photo-apps/studio-api/internal/services/session"
	generationUsecase "github.com/admin/photo-apps/studio-api/internal/usecases/generation"

	"github.com/jmoiron/sqlx"
)

type Dependencies struct {
	DB            *sqlx.DB
	HTTPServer    *http.Server
	KafkaProducer kafka.IKafkaProducer
	Cache         cache.Cache
	JobScheduler  *jobScheduler.Scheduler
}

// initDependencies инициализирует все зависимости приложения
func (a *App) initDependencies() (*Dependencies, error) {
	db, err := a.initPostgres()
	if err != nil {
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	repos := a.initRepositories(db)

	external, err := a.initExternalServices()
	if err != nil {
		return nil, fmt.Errorf("failed to init external services: %w", err)
	}

	artifactsSvc := artifactsService.New(repos.Artifact, external.S3, a.Cfg.Artifacts.URLTTL, a.Log)
	sessionSvc := sessionService.New(external.Cache, a.Log)

	generationUC := generationUsecase.New(
		a.Cfg.Generation,
		external.Ledger,
		external.Generator,
		artifactsSvc,
		external.Producer, // может быть nil
		external.Alerter,  // может быть nil
		a.Log,
	)

	httpServer := a.initHTTP(db, generationUC, sessionSvc)
	scheduler := a.initJobScheduler(external.Ledger, external.Alerter)

	return &Dependencies{
		DB:            db,
		HTTPServer:    httpServer,
		KafkaProducer: external.Producer,
		Cache:         external.Cache,
		JobScheduler:  scheduler,
	}, nil
}

// repositories содержит инициализированные репозитории
type repositories struct {
	Artifact repository.IArtifactRepo
}

// initRepositories инициализирует репозитории для работы с БД
func (a *App) initRepositories(db *sqlx.DB) *repositories {
	persistenceLayer := pg.NewDB(db)
	return &repositories{
		Artifact: artifactRepo.New(persistenceLayer, a.Log),
	}
}

// externalServices содержит внешние сервисы
type externalServices struct {
	Ledger    service.ILedgerService
	Generator service.IGeneratorService
	S3        storage.IS3Client
	Cache     cache.Cache
	Alerter   service.IAlerterService // опциональный
	Producer  kafka.IKafkaProducer    // опциональный
}

// initExternalServices инициализирует внешние сервисы.
// Леджер, провайдер генерации, S3 и Redis обязательны,
// алертер и Kafka включаются только когда настроены
func (a *App) initExternalServices() (*externalServices, error) {
	external := &externalServices{}

	ledgerClient := ledgerApiAdapter.NewClient(a.Cfg.LedgerAPI, a.Log)
	external.Ledger = ledgerService.New(ledgerClient)

	genClient := genApiAdapter.NewClient(a.Cfg.GenAPI, a.Log)
	external.Generator = generatorService.New(genClient, a.Cfg.GenAPI)

	minioClient, err := a.Cfg.S3.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to init s3 client: %w", err)
	}
	external.S3 = s3Adapter.NewClient(minioClient, a.Cfg.S3.Bucket, a.Log)
	a.Log.Info("s3 connected successfully", "bucket", a.Cfg.S3.Bucket)

	// Redis обязателен: без него не резолвятся сессии
	redisClient, err := a.Cfg.Redis.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}
	external.Cache = redisAdapter.NewClient(redisClient)
	a.Log.Info("redis connected successfully")

	if a.Cfg.Alerter != nil && a.Cfg.Alerter.BotToken != "" {
		alerterClient := alerterAdapter.NewClient(a.Cfg.Alerter, a.Log)
		external.Alerter = alerterService.New(alerterClient)
	}

	if a.Cfg.Kafka != nil && a.Cfg.Kafka.Brokers != "" {
		producer, err := kafkaAdapter.NewProducer(a.Cfg.Kafka, a.Log)
		if err != nil {
			a.Log.Warn("failed to create kafka producer, billing events disabled", "error", err)
		} else {
			external.Producer = producer
		}
	}

	return external, nil
}

// initHTTP инициализирует HTTP сервер и контроллеры
func (a *App) initHTTP(
	db *sqlx.DB,
	generationUC usecase.IGenerationUseCase,
	sessionSvc service.ISessionService,
) *http.Server {
	rateLimiter := middlewares.NewRateLimiter(a.Cfg.RateLimit, a.Log)

	controllers := []server.Controller{
		healthcheckController.New(db, a.Log),
		generationController.New(generationUC, sessionSvc, rateLimiter, a.Log),
	}

	return server.NewHTTPServer(a.Cfg.Server, a.Log, controllers...)
}

// initJobScheduler инициализирует планировщик джоб
func (a *App) initJobScheduler(
	ledgerSvc service.ILedgerService,
	alerterSvc service.IAlerterService,
) *jobScheduler.Scheduler {
	scheduler := jobScheduler.NewScheduler(a.Log, alerterSvc)

	pendingReporter := jobScheduler.NewPendingChargesReporter(
		ledgerSvc,
		alerterSvc,
		a.Log,
		a.Cfg.Jobs.PendingReportInterval,
		a.Cfg.Jobs.PendingReportOlderThan,
	)
	scheduler.Register(pendingReporter)
	a.Log.Info("pending charges reporter job registered")

	return scheduler
}
