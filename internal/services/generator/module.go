package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	genApiAdapter "github.com/admin/photo-apps/studio-api/internal/adapters/secondary/genApi"
	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/admin/photo-apps/studio-api/internal/ports/service"
)

// cutoutPrompt фиксированное задание на вырезание фона,
// пользовательский текст сюда не подмешивается
const cutoutPrompt = "Remove the background from this image completely. " +
	"Keep only the main subject with clean edges on a fully transparent background. " +
	"Do not alter the subject itself."

// Service реализует IGeneratorService поверх клиента провайдера
type Service struct {
	client *genApiAdapter.Client
	cfg    *genApiAdapter.Config
}

// New создаёт новый сервис генерации
func New(client *genApiAdapter.Client, cfg *genApiAdapter.Config) service.IGeneratorService {
	return &Service{
		client: client,
		cfg:    cfg,
	}
}

// timeout доменный таймаут одной генерации
func (s *Service) timeout() time.Duration {
	if s.cfg.TimeoutSec > 0 {
		return time.Duration(s.cfg.TimeoutSec) * time.Second
	}
	return 45 * time.Second
}

// modelFor выбирает модель провайдера по уровню
func (s *Service) modelFor(tier domain.ModelTier) string {
	if tier == domain.ModelTierStrong {
		return s.cfg.ModelStrong
	}
	return s.cfg.ModelCheap
}

// GenerateImage генерирует изображение по заданию под жёстким таймаутом
func (s *Service) GenerateImage(ctx context.Context, task *domain.GenerationTask) (*domain.GeneratedImage, error) {
	return s.generate(ctx, genApiAdapter.ImageRequest{
		Model:       s.modelFor(task.Tier),
		Prompt:      task.Prompt,
		AspectRatio: task.AspectRatio.String(),
		Image:       task.Image,
		ImageType:   task.ImageType,
		RefImage:    task.RefImage,
		RefType:     task.RefType,
	})
}

// CutoutImage вырезает фон у исходного изображения.
// Использует дешёвую модель: задача механическая, сильная не нужна
func (s *Service) CutoutImage(ctx context.Context, image []byte, contentType string) (*domain.GeneratedImage, error) {
	return s.generate(ctx, genApiAdapter.ImageRequest{
		Model:     s.cfg.ModelCheap,
		Prompt:    cutoutPrompt,
		Image:     image,
		ImageType: contentType,
	})
}

// generate выполняет запрос к провайдеру и нормализует ошибки в доменные коды
func (s *Service) generate(ctx context.Context, req genApiAdapter.ImageRequest) (*domain.GeneratedImage, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	result, err := s.client.GenerateImage(genCtx, req)
	if err != nil {
		return nil, s.normalizeError(err)
	}

	contentType := result.MimeType
	if contentType == "" {
		contentType = "image/png"
	}

	return &domain.GeneratedImage{
		Data:        result.Data,
		ContentType: contentType,
		Model:       result.Model,
	}, nil
}

// normalizeError переводит ошибки клиента в доменные коды
func (s *Service) normalizeError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.CodeModelTimeout,
			fmt.Sprintf("generation did not finish in %s", s.timeout()), err)
	}

	if errors.Is(err, genApiAdapter.ErrNoImage) {
		return domain.WrapError(domain.CodeNoImageReturned, "provider returned no image", err)
	}

	var apiErr *genApiAdapter.APIError
	if errors.As(err, &apiErr) {
		return domain.WrapError(domain.CodeProviderError, "provider request failed", err).
			WithDetail(fmt.Sprintf("status=%d body=%s", apiErr.StatusCode, apiErr.Body))
	}

	return domain.WrapError(domain.CodeProviderError, "provider request failed", err)
}
