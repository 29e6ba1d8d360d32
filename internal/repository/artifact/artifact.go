package artifactRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	ports "github.com/admin/photo-apps/studio-api/internal/ports/repository"

	"log/slog"

	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/admin/photo-apps/studio-api/internal/ports/persistence"
	"github.com/google/uuid"
)

type artifactColumns struct {
	TableName   string
	ID          string
	UserID      string
	Kind        string
	StorageKey  string
	ContentType string
	SizeBytes   string
	Status      string
	ChargeID    string
	CreatedAt   string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns artifactColumns
}

// New создаёт новый репозиторий для работы с метаданными артефактов
func New(db persistence.Persistence, log *slog.Logger) ports.IArtifactRepo {
	cols := artifactColumns{
		TableName:   "artifacts",
		ID:          "id",
		UserID:      "user_id",
		Kind:        "kind",
		StorageKey:  "storage_key",
		ContentType: "content_type",
		SizeBytes:   "size_bytes",
		Status:      "status",
		ChargeID:    "charge_id",
		CreatedAt:   "created_at",
	}
	return &Repository{
		db:      db,
		Log:     log,
		columns: cols,
	}
}

// allColumns возвращает строку со всеми колонками
func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.UserID,
		r.columns.Kind,
		r.columns.StorageKey,
		r.columns.ContentType,
		r.columns.SizeBytes,
		r.columns.Status,
		r.columns.ChargeID,
		r.columns.CreatedAt)
}

// Create создаёт новую запись об артефакте
func (r *Repository) Create(ctx context.Context, artifact *domain.Artifact) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.columns.TableName,
		r.allColumns())
	err := r.db.Exec(ctx, query,
		artifact.ID,
		artifact.UserID,
		artifact.Kind,
		artifact.StorageKey,
		artifact.ContentType,
		artifact.SizeBytes,
		artifact.Status,
		artifact.ChargeID,
		artifact.CreatedAt)
	if err != nil {
		r.Log.Error("failed to create artifact",
			"error", err,
			"artifact_id", artifact.ID,
			"user_id", artifact.UserID)
		return fmt.Errorf("failed to create artifact: %w", err)
	}
	r.Log.Debug("artifact created successfully",
		"id", artifact.ID,
		"storage_key", artifact.StorageKey)
	return nil
}

// GetByID получает артефакт по id
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error) {
	var artifact domain.Artifact
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID)
	err := r.db.Get(ctx, &artifact, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Debug("artifact not found", "artifact_id", id)
			return nil, fmt.Errorf("artifact not found: %w", err)
		}
		r.Log.Error("failed to get artifact by id",
			"error", err,
			"artifact_id", id)
		return nil, fmt.Errorf("failed to get artifact by id: %w", err)
	}
	return &artifact, nil
}

// ListByUserAndKind получает артефакты пользователя, новые первыми
func (r *Repository) ListByUserAndKind(ctx context.Context, userID uuid.UUID, kind domain.ArtifactKind) ([]*domain.Artifact, error) {
	var artifacts []*domain.Artifact
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2 ORDER BY %s DESC`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID,
		r.columns.Kind,
		r.columns.CreatedAt)
	err := r.db.Select(ctx, &artifacts, query, userID, kind.String())
	if err != nil {
		r.Log.Error("failed to list artifacts",
			"error", err,
			"user_id", userID,
			"kind", kind)
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	return artifacts, nil
}

// DeleteByID удаляет артефакт по id
func (r *Repository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		r.columns.TableName,
		r.columns.ID)
	affected, err := r.db.ExecWithResult(ctx, query, id)
	if err != nil {
		r.Log.Error("failed to delete artifact",
			"error", err,
			"artifact_id", id)
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("artifact not found: %w", sql.ErrNoRows)
	}
	return nil
}

// DeleteByIDs удаляет артефакты пачкой, возвращает число удалённых строк
func (r *Repository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s IN (%s)`,
		r.columns.TableName,
		r.columns.ID,
		strings.Join(placeholders, ", "))
	affected, err := r.db.ExecWithResult(ctx, query, args...)
	if err != nil {
		r.Log.Error("failed to delete artifacts batch",
			"error", err,
			"count", len(ids))
		return 0, fmt.Errorf("failed to delete artifacts batch: %w", err)
	}
	r.Log.Debug("artifacts deleted", "requested", len(ids), "deleted", affected)
	return affected, nil
}
