package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ArtifactKind вид артефакта
type ArtifactKind string

const (
	ArtifactKindImage ArtifactKind = "image"
)

// String возвращает строковое представление вида
func (k ArtifactKind) String() string {
	return string(k)
}

// IsValid проверяет, является ли вид валидным
func (k ArtifactKind) IsValid() bool {
	return k == ArtifactKindImage
}

// ArtifactStatus статус артефакта
type ArtifactStatus string

const (
	ArtifactStatusReady ArtifactStatus = "ready" // blob и метаданные записаны
)

// Artifact результат успешной генерации: blob в S3 + строка метаданных в БД.
// После создания неизменяем, удаляется только quota-триммером или самим пользователем
type Artifact struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	UserID      uuid.UUID      `json:"user_id" db:"user_id"`
	Kind        ArtifactKind   `json:"kind" db:"kind"`
	StorageKey  string         `json:"storage_key" db:"storage_key"`
	ContentType string         `json:"content_type" db:"content_type"`
	SizeBytes   int64          `json:"size_bytes" db:"size_bytes"`
	Status      ArtifactStatus `json:"status" db:"status"`
	ChargeID    uuid.UUID      `json:"charge_id" db:"charge_id"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// ArtifactListItem артефакт с короткоживущей ссылкой для выдачи наружу
type ArtifactListItem struct {
	ID          uuid.UUID    `json:"id"`
	Kind        ArtifactKind `json:"kind"`
	ContentType string       `json:"content_type"`
	SizeBytes   int64        `json:"size_bytes"`
	URL         string       `json:"url"`
	CreatedAt   time.Time    `json:"created_at"`
}

// GenerationStorageKey строит ключ blob-а в S3 с неймспейсом по пользователю,
// чтобы артефакты разных пользователей не могли пересечься по ключу
func GenerationStorageKey(userID, artifactID uuid.UUID, contentType string) string {
	return fmt.Sprintf("users/%s/generations/%s.%s", userID, artifactID, extensionFor(contentType))
}

// extensionFor подбирает расширение файла по MIME-типу
func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "bin"
	}
}
