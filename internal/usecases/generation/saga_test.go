package generation

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerMock struct {
	openCalls   int
	settleCalls int
	refundCalls int

	openFn    func(ctx context.Context, userID uuid.UUID, cost int64, action domain.ActionKind) (*domain.Charge, int64, error)
	settleFn  func(ctx context.Context, chargeID, artifactID uuid.UUID) error
	refundFn  func(ctx context.Context, chargeID uuid.UUID) error
	balanceFn func(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (m *ledgerMock) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	if m.balanceFn != nil {
		return m.balanceFn(ctx, userID)
	}
	return 100, nil
}

func (m *ledgerMock) OpenCharge(ctx context.Context, userID uuid.UUID, cost int64, action domain.ActionKind) (*domain.Charge, int64, error) {
	m.openCalls++
	return m.openFn(ctx, userID, cost, action)
}

func (m *ledgerMock) SettleCharge(ctx context.Context, chargeID, artifactID uuid.UUID) error {
	m.settleCalls++
	if m.settleFn != nil {
		return m.settleFn(ctx, chargeID, artifactID)
	}
	return nil
}

func (m *ledgerMock) RefundCharge(ctx context.Context, chargeID uuid.UUID) error {
	m.refundCalls++
	if m.refundFn != nil {
		return m.refundFn(ctx, chargeID)
	}
	return nil
}

func (m *ledgerMock) ListPendingCharges(_ context.Context, _ time.Duration) ([]*domain.Charge, error) {
	return nil, nil
}

type generatorMock struct {
	generateFn func(ctx context.Context, task *domain.GenerationTask) (*domain.GeneratedImage, error)
	cutoutFn   func(ctx context.Context, image []byte, contentType string) (*domain.GeneratedImage, error)
}

func (m *generatorMock) GenerateImage(ctx context.Context, task *domain.GenerationTask) (*domain.GeneratedImage, error) {
	return m.generateFn(ctx, task)
}

func (m *generatorMock) CutoutImage(ctx context.Context, image []byte, contentType string) (*domain.GeneratedImage, error) {
	return m.cutoutFn(ctx, image, contentType)
}

type artifactsMock struct {
	persistCalls int
	trimCalls    int
	trimKind     domain.ArtifactKind
	trimLimit    int

	persistFn func(ctx context.Context, userID, chargeID uuid.UUID, data []byte, contentType string) (*domain.Artifact, error)
	trimFn    func(ctx context.Context, userID uuid.UUID, kind domain.ArtifactKind, limit int) (int64, error)
	listFn    func(ctx context.Context, userID uuid.UUID, kind domain.ArtifactKind, limit int) ([]*domain.ArtifactListItem, error)
	deleteFn  func(ctx context.Context, userID, artifactID uuid.UUID) error
}

func (m *artifactsMock) Persist(ctx context.Context, userID, chargeID uuid.UUID, data []byte, contentType string) (*domain.Artifact, error) {
	m.persistCalls++
	return m.persistFn(ctx, userID, chargeID, data, contentType)
}

func (m *artifactsMock) PresignedURL(_ context.Context, artifact *domain.Artifact) (string, error) {
	return "https://s3.local/" + artifact.StorageKey, nil
}

func (m *artifactsMock) Trim(ctx context.Context, userID uuid.UUID, kind domain.ArtifactKind, limit int) (int64, error) {
	m.trimCalls++
	m.trimKind = kind
	m.trimLimit = limit
	if m.trimFn != nil {
		return m.trimFn(ctx, userID, kind, limit)
	}
	return 0, nil
}

func (m *artifactsMock) ListRecent(ctx context.Context, userID uuid.UUID, kind domain.ArtifactKind, limit int) ([]*domain.ArtifactListItem, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, kind, limit)
	}
	return nil, nil
}

func (m *artifactsMock) Delete(ctx context.Context, userID, artifactID uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, artifactID)
	}
	return nil
}

type producerMock struct {
	events []*domain.ChargeEvent
	sendFn func(ctx context.Context, event *domain.ChargeEvent) error
}

func (m *producerMock) SendChargeEvent(ctx context.Context, event *domain.ChargeEvent) error {
	m.events = append(m.events, event)
	if m.sendFn != nil {
		return m.sendFn(ctx, event)
	}
	return nil
}

func (m *producerMock) Send(_ context.Context, _ string, _ []byte) error { return nil }

func (m *producerMock) Close() error { return nil }

func (m *producerMock) eventTypes() []domain.ChargeEventType {
	types := make([]domain.ChargeEventType, 0, len(m.events))
	for _, event := range m.events {
		types = append(types, event.Event)
	}
	return types
}

type alerterMock struct {
	messages []string
}

func (m *alerterMock) SendAlert(_ context.Context, message string) error {
	m.messages = append(m.messages, message)
	return nil
}

type harness struct {
	ledger    *ledgerMock
	generator *generatorMock
	artifacts *artifactsMock
	producer  *producerMock
	alerter   *alerterMock
	svc       *Service
}

func testConfig() Config {
	return Config{
		CostQuickGeneration: 15,
		CostProGeneration:   40,
		CostCutout:          10,
		MaxImageBytesCheap:  2 << 20,
		MaxImageBytesStrong: 6 << 20,
		MaxRefImageBytes:    512 << 10,
		MaxPromptLength:     4000,
		RetentionLimit:      10,
	}
}

// newHarness собирает оркестратор на моках с работающим happy path,
// каждый тест ломает ровно тот шаг, который проверяет
func newHarness() *harness {
	h := &harness{
		ledger:    &ledgerMock{},
		generator: &generatorMock{},
		artifacts: &artifactsMock{},
		producer:  &producerMock{},
		alerter:   &alerterMock{},
	}

	h.ledger.openFn = func(_ context.Context, userID uuid.UUID, cost int64, action domain.ActionKind) (*domain.Charge, int64, error) {
		return &domain.Charge{
			ID:        uuid.New(),
			UserID:    userID,
			Cost:      cost,
			Action:    action,
			State:     domain.ChargeStatePending,
			CreatedAt: time.Now().UTC(),
		}, 100 - cost, nil
	}
	h.generator.generateFn = func(_ context.Context, _ *domain.GenerationTask) (*domain.GeneratedImage, error) {
		return &domain.GeneratedImage{Data: []byte("result"), ContentType: "image/png", Model: "cheap-model"}, nil
	}
	h.generator.cutoutFn = func(_ context.Context, _ []byte, _ string) (*domain.GeneratedImage, error) {
		return &domain.GeneratedImage{Data: []byte("cutout"), ContentType: "image/png", Model: "cheap-model"}, nil
	}
	h.artifacts.persistFn = func(_ context.Context, userID, chargeID uuid.UUID, data []byte, contentType string) (*domain.Artifact, error) {
		artifactID := uuid.New()
		return &domain.Artifact{
			ID:          artifactID,
			UserID:      userID,
			Kind:        domain.ArtifactKindImage,
			StorageKey:  domain.GenerationStorageKey(userID, artifactID, contentType),
			ContentType: contentType,
			SizeBytes:   int64(len(data)),
			Status:      domain.ArtifactStatusReady,
			ChargeID:    chargeID,
			CreatedAt:   time.Now().UTC(),
		}, nil
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.svc = New(testConfig(), h.ledger, h.generator, h.artifacts, h.producer, h.alerter, log).(*Service)

	return h
}

func validTask() *domain.GenerationTask {
	return &domain.GenerationTask{
		Prompt:      "neon city at night",
		Tier:        domain.ModelTierCheap,
		AspectRatio: "1:1",
		Image:       []byte("source-image"),
		ImageType:   "image/png",
	}
}

func TestGenerate_HappyPathChargesAndSettles(t *testing.T) {
	h := newHarness()
	userID := uuid.New()

	var settledArtifact uuid.UUID
	h.ledger.settleFn = func(_ context.Context, _, artifactID uuid.UUID) error {
		settledArtifact = artifactID
		return nil
	}

	result, err := h.svc.Generate(context.Background(), userID, validTask())
	require.NoError(t, err)

	assert.Equal(t, 1, h.ledger.openCalls)
	assert.Equal(t, 1, h.ledger.settleCalls)
	assert.Zero(t, h.ledger.refundCalls)
	assert.Equal(t, result.ArtifactID, settledArtifact)

	assert.Equal(t, int64(15), result.Cost)
	assert.Equal(t, int64(85), result.Balance)
	assert.Equal(t, "cheap-model", result.Model)
	assert.Equal(t, "image/png", result.ContentType)
	assert.NotEmpty(t, result.URL)

	assert.Equal(t, []domain.ChargeEventType{domain.ChargeEventOpened, domain.ChargeEventSettled}, h.producer.eventTypes())
	assert.Empty(t, h.alerter.messages)
}

func TestGenerate_StrongTierUsesProCost(t *testing.T) {
	h := newHarness()

	var gotCost int64
	var gotAction domain.ActionKind
	base := h.ledger.openFn
	h.ledger.openFn = func(ctx context.Context, userID uuid.UUID, cost int64, action domain.ActionKind) (*domain.Charge, int64, error) {
		gotCost, gotAction = cost, action
		return base(ctx, userID, cost, action)
	}

	task := validTask()
	task.Tier = domain.ModelTierStrong

	_, err := h.svc.Generate(context.Background(), uuid.New(), task)
	require.NoError(t, err)
	assert.Equal(t, int64(40), gotCost)
	assert.Equal(t, domain.ActionProGeneration, gotAction)
}

func TestCutout_UsesCutoutCost(t *testing.T) {
	h := newHarness()

	var gotCost int64
	var gotAction domain.ActionKind
	base := h.ledger.openFn
	h.ledger.openFn = func(ctx context.Context, userID uuid.UUID, cost int64, action domain.ActionKind) (*domain.Charge, int64, error) {
		gotCost, gotAction = cost, action
		return base(ctx, userID, cost, action)
	}

	cutoutCalled := false
	h.generator.cutoutFn = func(_ context.Context, image []byte, contentType string) (*domain.GeneratedImage, error) {
		cutoutCalled = true
		assert.Equal(t, []byte("subject-photo"), image)
		assert.Equal(t, "image/jpeg", contentType)
		return &domain.GeneratedImage{Data: []byte("cutout"), ContentType: "image/png", Model: "cheap-model"}, nil
	}

	result, err := h.svc.Cutout(context.Background(), uuid.New(), []byte("subject-photo"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, cutoutCalled)
	assert.Equal(t, int64(10), gotCost)
	assert.Equal(t, domain.ActionCutout, gotAction)
	assert.Equal(t, int64(10), result.Cost)
}

func TestGenerate_InvalidInputNeverCharges(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(task *domain.GenerationTask)
	}{
		{"empty prompt", func(task *domain.GenerationTask) { task.Prompt = "   " }},
		{"unknown tier", func(task *domain.GenerationTask) { task.Tier = "turbo" }},
		{"unsupported aspect ratio", func(task *domain.GenerationTask) { task.AspectRatio = "7:5" }},
		{"missing image", func(task *domain.GenerationTask) { task.Image = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()

			task := validTask()
			tc.mutate(task)

			_, err := h.svc.Generate(context.Background(), uuid.New(), task)
			require.Error(t, err)
			assert.Equal(t, domain.CodeInvalidInput, domain.CodeOf(err))
			assert.Zero(t, h.ledger.openCalls)
			assert.Empty(t, h.producer.events)
		})
	}
}

func TestGenerate_InsufficientBalanceNoCompensation(t *testing.T) {
	h := newHarness()

	h.ledger.openFn = func(_ context.Context, _ uuid.UUID, _ int64, _ domain.ActionKind) (*domain.Charge, int64, error) {
		return nil, 0, domain.NewError(domain.CodeNotEnoughTokens, "not enough tokens")
	}

	_, err := h.svc.Generate(context.Background(), uuid.New(), validTask())
	require.Error(t, err)
	assert.Equal(t, domain.CodeNotEnoughTokens, domain.CodeOf(err))

	// Списание не открылось, компенсировать нечего
	assert.Zero(t, h.ledger.refundCalls)
	assert.Zero(t, h.ledger.settleCalls)
	assert.Empty(t, h.producer.events)
}

func TestGenerate_OversizedPayloadNeverCharges(t *testing.T) {
	h := newHarness()

	task := validTask()
	task.Image = make([]byte, (2<<20)+1) // чуть больше лимита дешёвого тарифа

	_, err := h.svc.Generate(context.Background(), uuid.New(), task)
	require.Error(t, err)
	assert.Equal(t, domain.CodePayloadTooLarge, domain.CodeOf(err))
	assert.Zero(t, h.ledger.openCalls)

	// Тот же размер проходит на сильном тарифе
	task.Tier = domain.ModelTierStrong
	_, err = h.svc.Generate(context.Background(), uuid.New(), task)
	require.NoError(t, err)

	// Референс меряется собственным лимитом
	task = validTask()
	task.RefImage = make([]byte, (512<<10)+1)
	_, err = h.svc.Generate(context.Background(), uuid.New(), task)
	require.Error(t, err)
	assert.Equal(t, domain.CodePayloadTooLarge, domain.CodeOf(err))
}

func TestGenerate_ProviderFailureRefundsExactlyOnce(t *testing.T) {
	h := newHarness()

	h.generator.generateFn = func(_ context.Context, _ *domain.GenerationTask) (*domain.GeneratedImage, error) {
		return nil, domain.WrapError(domain.CodeProviderError, "provider request failed", errors.New("503"))
	}

	_, err := h.svc.Generate(context.Background(), uuid.New(), validTask())
	require.Error(t, err)
	assert.Equal(t, domain.CodeProviderError, domain.CodeOf(err))

	assert.Equal(t, 1, h.ledger.refundCalls)
	assert.Zero(t, h.ledger.settleCalls)
	assert.Zero(t, h.artifacts.persistCalls)
	assert.Equal(t, []domain.ChargeEventType{domain.ChargeEventOpened, domain.ChargeEventRefunded}, h.producer.eventTypes())
}

func TestGenerate_TimeoutRefunds(t *testing.T) {
	h := newHarness()

	h.generator.generateFn = func(_ context.Context, _ *domain.GenerationTask) (*domain.GeneratedImage, error) {
		return nil, domain.WrapError(domain.CodeModelTimeout, "generation did not finish in 45s", context.DeadlineExceeded)
	}

	_, err := h.svc.Generate(context.Background(), uuid.New(), validTask())
	require.Error(t, err)
	assert.Equal(t, domain.CodeModelTimeout, domain.CodeOf(err))
	assert.Equal(t, 1, h.ledger.refundCalls)
	assert.Zero(t, h.ledger.settleCalls)
}

func TestGenerate_PersistFailureRefundsExactlyOnce(t *testing.T) {
	h := newHarness()

	h.artifacts.persistFn = func(_ context.Context, _, _ uuid.UUID, _ []byte, _ string) (*domain.Artifact, error) {
		return nil, domain.WrapError(domain.CodeDBInsertFailed, "failed to store artifact metadata", errors.New("insert failed"))
	}

	_, err := h.svc.Generate(context.Background(), uuid.New(), validTask())
	require.Error(t, err)
	assert.Equal(t, domain.CodeDBInsertFailed, domain.CodeOf(err))

	assert.Equal(t, 1, h.ledger.refundCalls)
	assert.Zero(t, h.ledger.settleCalls)
	assert.Zero(t, h.artifacts.trimCalls)
}

func TestGenerate_ClientCancelStillRefunds(t *testing.T) {
	h := newHarness()

	ctx, cancel := context.WithCancel(context.Background())
	h.generator.generateFn = func(ctx context.Context, _ *domain.GenerationTask) (*domain.GeneratedImage, error) {
		cancel()
		return nil, domain.WrapError(domain.CodeProviderError, "provider request failed", ctx.Err())
	}
	h.ledger.refundFn = func(ctx context.Context, _ uuid.UUID) error {
		// Возврат обязан идти на неотменённом контексте
		require.NoError(t, ctx.Err())
		return nil
	}

	_, err := h.svc.Generate(ctx, uuid.New(), validTask())
	require.Error(t, err)
	assert.Equal(t, 1, h.ledger.refundCalls)
}

func TestGenerate_SettleFailureStillSuccess(t *testing.T) {
	h := newHarness()

	h.ledger.settleFn = func(_ context.Context, _, _ uuid.UUID) error {
		return errors.New("ledger is down")
	}

	result, err := h.svc.Generate(context.Background(), uuid.New(), validTask())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.URL)

	assert.Zero(t, h.ledger.refundCalls)
	assert.Equal(t, []domain.ChargeEventType{domain.ChargeEventOpened, domain.ChargeEventSettleFailed}, h.producer.eventTypes())
	require.Len(t, h.alerter.messages, 1)
	assert.Contains(t, h.alerter.messages[0], "settle failed")
}

func TestGenerate_RefundFailureKeepsRootCause(t *testing.T) {
	h := newHarness()

	h.generator.generateFn = func(_ context.Context, _ *domain.GenerationTask) (*domain.GeneratedImage, error) {
		return nil, domain.WrapError(domain.CodeModelTimeout, "generation did not finish in 45s", context.DeadlineExceeded)
	}
	h.ledger.refundFn = func(_ context.Context, _ uuid.UUID) error {
		return errors.New("ledger is down")
	}

	_, err := h.svc.Generate(context.Background(), uuid.New(), validTask())
	require.Error(t, err)
	// Ошибка возврата не затирает исходную причину
	assert.Equal(t, domain.CodeModelTimeout, domain.CodeOf(err))

	assert.Equal(t, 1, h.ledger.refundCalls)
	assert.Equal(t, []domain.ChargeEventType{domain.ChargeEventOpened, domain.ChargeEventRefundFailed}, h.producer.eventTypes())
	require.Len(t, h.alerter.messages, 1)
	assert.Contains(t, h.alerter.messages[0], "refund failed")
}

func TestGenerate_TrimFailureStillSuccess(t *testing.T) {
	h := newHarness()

	h.artifacts.trimFn = func(_ context.Context, _ uuid.UUID, _ domain.ArtifactKind, _ int) (int64, error) {
		return 0, errors.New("minio is down")
	}

	result, err := h.svc.Generate(context.Background(), uuid.New(), validTask())
	require.NoError(t, err)
	require.NotNil(t, result)

	// Подрезка не мешает закреплению списания
	assert.Equal(t, 1, h.ledger.settleCalls)
	assert.Zero(t, h.ledger.refundCalls)
	assert.Equal(t, []domain.ChargeEventType{domain.ChargeEventOpened, domain.ChargeEventTrimFailed, domain.ChargeEventSettled}, h.producer.eventTypes())
}

func TestGenerate_TrimBoundToRetentionLimit(t *testing.T) {
	h := newHarness()

	_, err := h.svc.Generate(context.Background(), uuid.New(), validTask())
	require.NoError(t, err)

	assert.Equal(t, 1, h.artifacts.trimCalls)
	assert.Equal(t, domain.ArtifactKindImage, h.artifacts.trimKind)
	assert.Equal(t, 10, h.artifacts.trimLimit)
}

func TestGenerate_KafkaDownDoesNotFail(t *testing.T) {
	h := newHarness()

	h.producer.sendFn = func(_ context.Context, _ *domain.ChargeEvent) error {
		return errors.New("broker unavailable")
	}

	result, err := h.svc.Generate(context.Background(), uuid.New(), validTask())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, h.ledger.settleCalls)
}

func TestHistory_CapsLimitToRetention(t *testing.T) {
	h := newHarness()

	var gotLimit int
	h.artifacts.listFn = func(_ context.Context, _ uuid.UUID, _ domain.ArtifactKind, limit int) ([]*domain.ArtifactListItem, error) {
		gotLimit = limit
		return nil, nil
	}

	_, err := h.svc.History(context.Background(), uuid.New(), 50)
	require.NoError(t, err)
	assert.Equal(t, 10, gotLimit)

	_, err = h.svc.History(context.Background(), uuid.New(), 0)
	require.NoError(t, err)
	assert.Equal(t, 10, gotLimit)

	_, err = h.svc.History(context.Background(), uuid.New(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, gotLimit)
}
