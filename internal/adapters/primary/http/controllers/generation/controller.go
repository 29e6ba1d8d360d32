package generation

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/admin/photo-apps/studio-api/internal/adapters/primary/http/httperr"
	"github.com/admin/photo-apps/studio-api/internal/adapters/primary/http/middlewares"
	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/admin/photo-apps/studio-api/internal/ports/service"
	"github.com/admin/photo-apps/studio-api/internal/ports/usecase"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Жёсткий потолок тела запроса; тонкие по-тарифные лимиты проверяет конвейер
const maxRequestBytes = 32 << 20

type Controller struct {
	UseCase        usecase.IGenerationUseCase
	SessionService service.ISessionService
	RateLimiter    *middlewares.RateLimiter
	Log            *slog.Logger
}

func New(
	useCase usecase.IGenerationUseCase,
	sessionService service.ISessionService,
	rateLimiter *middlewares.RateLimiter,
	log *slog.Logger,
) *Controller {
	return &Controller{
		UseCase:        useCase,
		SessionService: sessionService,
		RateLimiter:    rateLimiter,
		Log:            log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	// Лимитер до auth, чтобы флуд не долетал до Redis
	api.Use(c.RateLimiter.Handler())
	api.Use(maxBodyBytes(maxRequestBytes))
	api.Use(middlewares.SessionAuth(c.SessionService, c.Log))

	api.POST("/generations", c.createGeneration)
	api.GET("/generations", c.listGenerations)
	api.DELETE("/generations/:id", c.deleteGeneration)
	api.POST("/cutouts", c.createCutout)
	api.GET("/balance", c.getBalance)
}

func (c *Controller) createGeneration(ctx *gin.Context) {
	userID, ok := middlewares.UserID(ctx)
	if !ok {
		httperr.AbortWith(ctx, domain.CodeUnauthorized, "missing session")
		return
	}

	var form GenerationForm
	if err := ctx.ShouldBind(&form); err != nil {
		c.Log.Warn("failed to bind generation form",
			"error", err,
			"user_id", userID,
		)
		httperr.AbortWith(ctx, domain.CodeInvalidInput, "invalid multipart form")
		return
	}

	image, imageType, err := readFormFile(ctx, "image", true)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	refImage, refType, err := readFormFile(ctx, "refImage", false)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	task := &domain.GenerationTask{
		Prompt:      form.Prompt,
		Tier:        domain.ModelTier(form.ModelTier),
		AspectRatio: domain.AspectRatio(form.AspectRatio),
		Image:       image,
		ImageType:   imageType,
		RefImage:    refImage,
		RefType:     refType,
	}

	result, err := c.UseCase.Generate(ctx.Request.Context(), userID, task)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, result)
}

func (c *Controller) createCutout(ctx *gin.Context) {
	userID, ok := middlewares.UserID(ctx)
	if !ok {
		httperr.AbortWith(ctx, domain.CodeUnauthorized, "missing session")
		return
	}

	image, imageType, err := readFormFile(ctx, "image", true)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	result, err := c.UseCase.Cutout(ctx.Request.Context(), userID, image, imageType)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, result)
}

func (c *Controller) listGenerations(ctx *gin.Context) {
	userID, ok := middlewares.UserID(ctx)
	if !ok {
		httperr.AbortWith(ctx, domain.CodeUnauthorized, "missing session")
		return
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		httperr.AbortWith(ctx, domain.CodeInvalidInput, "limit must be a non-negative integer")
		return
	}

	items, err := c.UseCase.History(ctx.Request.Context(), userID, limit)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	if items == nil {
		items = []*domain.ArtifactListItem{}
	}
	ctx.JSON(http.StatusOK, HistoryResponse{Items: items})
}

func (c *Controller) deleteGeneration(ctx *gin.Context) {
	userID, ok := middlewares.UserID(ctx)
	if !ok {
		httperr.AbortWith(ctx, domain.CodeUnauthorized, "missing session")
		return
	}

	artifactID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		httperr.AbortWith(ctx, domain.CodeInvalidInput, "invalid artifact id")
		return
	}

	if err := c.UseCase.DeleteArtifact(ctx.Request.Context(), userID, artifactID); err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (c *Controller) getBalance(ctx *gin.Context) {
	userID, ok := middlewares.UserID(ctx)
	if !ok {
		httperr.AbortWith(ctx, domain.CodeUnauthorized, "missing session")
		return
	}

	balance, err := c.UseCase.Balance(ctx.Request.Context(), userID)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, BalanceResponse{Balance: balance})
}

// maxBodyBytes ограничивает тело запроса до чтения multipart-формы
func maxBodyBytes(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// readFormFile читает файл из multipart-формы вместе с его content-type.
// Для отсутствующего необязательного файла возвращает nil без ошибки
func readFormFile(ctx *gin.Context, field string, required bool) ([]byte, string, error) {
	header, err := ctx.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			if required {
				return nil, "", domain.NewError(domain.CodeInvalidInput, field+" file is required")
			}
			return nil, "", nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", domain.NewError(domain.CodePayloadTooLarge, "request body too large")
		}
		return nil, "", domain.WrapError(domain.CodeInvalidInput, "failed to read "+field+" file", err)
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", domain.WrapError(domain.CodeInvalidInput, "failed to open "+field+" file", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", domain.NewError(domain.CodePayloadTooLarge, "request body too large")
		}
		return nil, "", domain.WrapError(domain.CodeInvalidInput, "failed to read "+field+" file", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return data, contentType, nil
}
