package service

import (
	"context"

	"github.com/admin/photo-apps/studio-api/internal/domain"
)

// IGeneratorService интерфейс для работы с провайдером генерации
type IGeneratorService interface {
	// GenerateImage генерирует изображение по заданию.
	// Единственный шаг конвейера с собственным таймаутом
	GenerateImage(ctx context.Context, task *domain.GenerationTask) (*domain.GeneratedImage, error)
	// CutoutImage вырезает фон у исходного изображения
	CutoutImage(ctx context.Context, image []byte, contentType string) (*domain.GeneratedImage, error)
}
