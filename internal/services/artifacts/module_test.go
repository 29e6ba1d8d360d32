package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoMock struct {
	createFn      func(ctx context.Context, artifact *domain.Artifact) error
	getByIDFn     func(ctx context.Context, id uuid.UUID) (*domain.Artifact, error)
	listFn        func(ctx context.Context, userID uuid.UUID, kind domain.ArtifactKind) ([]*domain.Artifact, error)
	deleteByIDFn  func(ctx context.Context, id uuid.UUID) error
	deleteByIDsFn func(ctx context.Context, ids []uuid.UUID) (int64, error)
}

func (m *repoMock) Create(ctx context.Context, artifact *domain.Artifact) error {
	return m.createFn(ctx, artifact)
}

func (m *repoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error) {
	return m.getByIDFn(ctx, id)
}

func (m *repoMock) ListByUserAndKind(ctx context.Context, userID uuid.UUID, kind domain.ArtifactKind) ([]*domain.Artifact, error) {
	return m.listFn(ctx, userID, kind)
}

func (m *repoMock) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return m.deleteByIDFn(ctx, id)
}

func (m *repoMock) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return m.deleteByIDsFn(ctx, ids)
}

type s3Mock struct {
	putFn        func(ctx context.Context, path string, data []byte, contentType string) error
	deleteFn     func(ctx context.Context, path string) error
	deleteManyFn func(ctx context.Context, paths []string) error
	presignFn    func(ctx context.Context, path string, expires time.Duration) (string, error)
}

func (m *s3Mock) PutFile(ctx context.Context, path string, data []byte, contentType string) error {
	return m.putFn(ctx, path, data, contentType)
}

func (m *s3Mock) GetFile(_ context.Context, _ string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (m *s3Mock) DeleteFile(ctx context.Context, path string) error {
	return m.deleteFn(ctx, path)
}

func (m *s3Mock) DeleteFiles(ctx context.Context, paths []string) error {
	return m.deleteManyFn(ctx, paths)
}

func (m *s3Mock) ListFiles(_ context.Context, _ string) ([]string, error) {
	return nil, errors.New("not implemented")
}

func (m *s3Mock) GetPresignedURL(ctx context.Context, path string, expires time.Duration) (string, error) {
	return m.presignFn(ctx, path, expires)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPersist_StoresBlobThenMetadata(t *testing.T) {
	userID := uuid.New()
	chargeID := uuid.New()
	data := []byte("png-bytes")

	var putKey string
	var created *domain.Artifact

	s3 := &s3Mock{
		putFn: func(_ context.Context, path string, body []byte, contentType string) error {
			putKey = path
			assert.Equal(t, data, body)
			assert.Equal(t, "image/png", contentType)
			return nil
		},
	}
	repo := &repoMock{
		createFn: func(_ context.Context, artifact *domain.Artifact) error {
			created = artifact
			return nil
		},
	}

	svc := New(repo, s3, time.Minute, testLogger())

	artifact, err := svc.Persist(context.Background(), userID, chargeID, data, "image/png")
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, userID, artifact.UserID)
	assert.Equal(t, chargeID, artifact.ChargeID)
	assert.Equal(t, domain.ArtifactKindImage, artifact.Kind)
	assert.Equal(t, domain.ArtifactStatusReady, artifact.Status)
	assert.Equal(t, int64(len(data)), artifact.SizeBytes)
	assert.Equal(t, putKey, artifact.StorageKey)
	assert.Equal(t, domain.GenerationStorageKey(userID, artifact.ID, "image/png"), artifact.StorageKey)
}

func TestPersist_UploadFailure(t *testing.T) {
	s3 := &s3Mock{
		putFn: func(_ context.Context, _ string, _ []byte, _ string) error {
			return errors.New("minio is down")
		},
	}
	repo := &repoMock{
		createFn: func(_ context.Context, _ *domain.Artifact) error {
			t.Fatal("metadata must not be written when blob upload fails")
			return nil
		},
	}

	svc := New(repo, s3, time.Minute, testLogger())

	_, err := svc.Persist(context.Background(), uuid.New(), uuid.New(), []byte("x"), "image/png")
	require.Error(t, err)
	assert.Equal(t, domain.CodeUploadFailed, domain.CodeOf(err))
}

func TestPersist_InsertFailureRollsBackBlob(t *testing.T) {
	var putKey, deletedKey string

	s3 := &s3Mock{
		putFn: func(_ context.Context, path string, _ []byte, _ string) error {
			putKey = path
			return nil
		},
		deleteFn: func(_ context.Context, path string) error {
			deletedKey = path
			return nil
		},
	}
	repo := &repoMock{
		createFn: func(_ context.Context, _ *domain.Artifact) error {
			return errors.New("insert failed")
		},
	}

	svc := New(repo, s3, time.Minute, testLogger())

	_, err := svc.Persist(context.Background(), uuid.New(), uuid.New(), []byte("x"), "image/png")
	require.Error(t, err)
	assert.Equal(t, domain.CodeDBInsertFailed, domain.CodeOf(err))
	assert.Equal(t, putKey, deletedKey)
}

func TestPersist_RollbackFailureDoesNotMaskInsertError(t *testing.T) {
	s3 := &s3Mock{
		putFn: func(_ context.Context, _ string, _ []byte, _ string) error {
			return nil
		},
		deleteFn: func(_ context.Context, _ string) error {
			return errors.New("delete failed too")
		},
	}
	repo := &repoMock{
		createFn: func(_ context.Context, _ *domain.Artifact) error {
			return errors.New("insert failed")
		},
	}

	svc := New(repo, s3, time.Minute, testLogger())

	_, err := svc.Persist(context.Background(), uuid.New(), uuid.New(), []byte("x"), "image/png")
	require.Error(t, err)
	assert.Equal(t, domain.CodeDBInsertFailed, domain.CodeOf(err))
}

func listOf(userID uuid.UUID, n int) []*domain.Artifact {
	artifacts := make([]*domain.Artifact, 0, n)
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		id := uuid.New()
		artifacts = append(artifacts, &domain.Artifact{
			ID:          id,
			UserID:      userID,
			Kind:        domain.ArtifactKindImage,
			StorageKey:  fmt.Sprintf("users/%s/generations/%s.png", userID, id),
			ContentType: "image/png",
			SizeBytes:   100,
			Status:      domain.ArtifactStatusReady,
			ChargeID:    uuid.New(),
			CreatedAt:   now.Add(-time.Duration(i) * time.Minute),
		})
	}
	return artifacts
}

func TestTrim_UnderLimitIsNoop(t *testing.T) {
	userID := uuid.New()

	repo := &repoMock{
		listFn: func(_ context.Context, _ uuid.UUID, _ domain.ArtifactKind) ([]*domain.Artifact, error) {
			return listOf(userID, 3), nil
		},
		deleteByIDsFn: func(_ context.Context, _ []uuid.UUID) (int64, error) {
			t.Fatal("nothing must be deleted under the limit")
			return 0, nil
		},
	}
	s3 := &s3Mock{
		deleteManyFn: func(_ context.Context, _ []string) error {
			t.Fatal("no blobs must be deleted under the limit")
			return nil
		},
	}

	svc := New(repo, s3, time.Minute, testLogger())

	deleted, err := svc.Trim(context.Background(), userID, domain.ArtifactKindImage, 10)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestTrim_NewestSurvive(t *testing.T) {
	userID := uuid.New()
	artifacts := listOf(userID, 12) // отсортированы по убыванию created_at

	var deletedKeys []string
	var deletedIDs []uuid.UUID
	var order []string

	repo := &repoMock{
		listFn: func(_ context.Context, gotUser uuid.UUID, kind domain.ArtifactKind) ([]*domain.Artifact, error) {
			assert.Equal(t, userID, gotUser)
			assert.Equal(t, domain.ArtifactKindImage, kind)
			return artifacts, nil
		},
		deleteByIDsFn: func(_ context.Context, ids []uuid.UUID) (int64, error) {
			deletedIDs = ids
			order = append(order, "rows")
			return int64(len(ids)), nil
		},
	}
	s3 := &s3Mock{
		deleteManyFn: func(_ context.Context, paths []string) error {
			deletedKeys = paths
			order = append(order, "blobs")
			return nil
		},
	}

	svc := New(repo, s3, time.Minute, testLogger())

	deleted, err := svc.Trim(context.Background(), userID, domain.ArtifactKindImage, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	// Под нож идут два самых старых, blob-ы раньше строк
	require.Len(t, deletedIDs, 2)
	assert.Equal(t, artifacts[10].ID, deletedIDs[0])
	assert.Equal(t, artifacts[11].ID, deletedIDs[1])
	require.Len(t, deletedKeys, 2)
	assert.Equal(t, artifacts[10].StorageKey, deletedKeys[0])
	assert.Equal(t, []string{"blobs", "rows"}, order)
}

func TestTrim_BlobFailureStopsBeforeRows(t *testing.T) {
	userID := uuid.New()

	repo := &repoMock{
		listFn: func(_ context.Context, _ uuid.UUID, _ domain.ArtifactKind) ([]*domain.Artifact, error) {
			return listOf(userID, 11), nil
		},
		deleteByIDsFn: func(_ context.Context, _ []uuid.UUID) (int64, error) {
			t.Fatal("rows must not be deleted when blob deletion fails")
			return 0, nil
		},
	}
	s3 := &s3Mock{
		deleteManyFn: func(_ context.Context, _ []string) error {
			return errors.New("minio is down")
		},
	}

	svc := New(repo, s3, time.Minute, testLogger())

	deleted, err := svc.Trim(context.Background(), userID, domain.ArtifactKindImage, 10)
	require.Error(t, err)
	assert.Zero(t, deleted)
}

func TestDelete_OwnershipMismatchLooksLikeNotFound(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	artifactID := uuid.New()

	repo := &repoMock{
		getByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Artifact, error) {
			return &domain.Artifact{ID: id, UserID: owner, StorageKey: "users/x/generations/y.png"}, nil
		},
		deleteByIDFn: func(_ context.Context, _ uuid.UUID) error {
			t.Fatal("foreign artifact must not be deleted")
			return nil
		},
	}
	s3 := &s3Mock{
		deleteFn: func(_ context.Context, _ string) error {
			t.Fatal("foreign blob must not be deleted")
			return nil
		},
	}

	svc := New(repo, s3, time.Minute, testLogger())

	err := svc.Delete(context.Background(), stranger, artifactID)
	require.Error(t, err)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}

func TestDelete_MissingArtifact(t *testing.T) {
	repo := &repoMock{
		getByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Artifact, error) {
			return nil, errors.New("artifact not found")
		},
	}

	svc := New(repo, &s3Mock{}, time.Minute, testLogger())

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}

func TestDelete_RemovesBlobThenRow(t *testing.T) {
	userID := uuid.New()
	artifactID := uuid.New()
	storageKey := domain.GenerationStorageKey(userID, artifactID, "image/png")

	var order []string

	repo := &repoMock{
		getByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Artifact, error) {
			return &domain.Artifact{ID: id, UserID: userID, StorageKey: storageKey}, nil
		},
		deleteByIDFn: func(_ context.Context, id uuid.UUID) error {
			assert.Equal(t, artifactID, id)
			order = append(order, "row")
			return nil
		},
	}
	s3 := &s3Mock{
		deleteFn: func(_ context.Context, path string) error {
			assert.Equal(t, storageKey, path)
			order = append(order, "blob")
			return nil
		},
	}

	svc := New(repo, s3, time.Minute, testLogger())

	require.NoError(t, svc.Delete(context.Background(), userID, artifactID))
	assert.Equal(t, []string{"blob", "row"}, order)
}

func TestListRecent_CapsAndPresigns(t *testing.T) {
	userID := uuid.New()
	artifacts := listOf(userID, 5)

	repo := &repoMock{
		listFn: func(_ context.Context, _ uuid.UUID, _ domain.ArtifactKind) ([]*domain.Artifact, error) {
			return artifacts, nil
		},
	}
	s3 := &s3Mock{
		presignFn: func(_ context.Context, path string, expires time.Duration) (string, error) {
			assert.Equal(t, time.Minute, expires)
			return "https://s3.local/" + path, nil
		},
	}

	svc := New(repo, s3, time.Minute, testLogger())

	items, err := svc.ListRecent(context.Background(), userID, domain.ArtifactKindImage, 3)
	require.NoError(t, err)
	require.Len(t, items, 3)

	for i, item := range items {
		assert.Equal(t, artifacts[i].ID, item.ID)
		assert.Equal(t, "https://s3.local/"+artifacts[i].StorageKey, item.URL)
	}
}
