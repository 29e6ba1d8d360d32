package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/google/uuid"
)

// Generate проводит полный платный цикл для задания генерации
func (s *Service) Generate(ctx context.Context, userID uuid.UUID, task *domain.GenerationTask) (*domain.GenerationResult, error) {
	if err := s.validateTask(task); err != nil {
		return nil, err
	}

	return s.run(ctx, userID, task.Tier.Action(), func(ctx context.Context) (*domain.GeneratedImage, error) {
		return s.GeneratorService.GenerateImage(ctx, task)
	})
}

// Cutout проводит тот же цикл для вырезания фона
func (s *Service) Cutout(ctx context.Context, userID uuid.UUID, image []byte, contentType string) (*domain.GenerationResult, error) {
	if err := s.validateCutout(image); err != nil {
		return nil, err
	}

	return s.run(ctx, userID, domain.ActionCutout, func(ctx context.Context) (*domain.GeneratedImage, error) {
		return s.GeneratorService.CutoutImage(ctx, image, contentType)
	})
}

// run ведёт списание через конвейер: charge, generate, persist, trim, settle.
// До открытия списания ошибки возвращаются как есть, после - каждый сбой
// проходит через compensate ровно один раз
func (s *Service) run(ctx context.Context, userID uuid.UUID, action domain.ActionKind, generate func(context.Context) (*domain.GeneratedImage, error)) (*domain.GenerationResult, error) {
	cost := s.Cfg.CostFor(action)

	stage := domain.StageCharge
	charge, balance, err := s.LedgerService.OpenCharge(ctx, userID, cost, action)
	if err != nil {
		return nil, err
	}

	// Пост-чарджевые шаги живут на контексте без отмены: refund и settle
	// должны доехать, даже когда клиент оборвал запрос
	bgCtx := context.WithoutCancel(ctx)

	s.Log.Info("charge opened",
		"charge_id", charge.ID,
		"user_id", userID,
		"action", action,
		"cost", cost,
		"balance", balance,
	)
	s.emitChargeEvent(bgCtx, domain.ChargeEventOpened, charge, nil, stage, nil)

	stage = domain.StageGenerate
	image, err := generate(ctx)
	if err != nil {
		s.compensate(bgCtx, charge, stage, err)
		return nil, err
	}

	// Картинка уже оплачена: сохранение и закрепление доводим до конца
	// независимо от состояния клиентского соединения
	stage = domain.StagePersist
	artifact, err := s.ArtifactService.Persist(bgCtx, userID, charge.ID, image.Data, image.ContentType)
	if err != nil {
		s.compensate(bgCtx, charge, stage, err)
		return nil, err
	}

	stage = domain.StageTrim
	if _, err := s.ArtifactService.Trim(bgCtx, userID, artifact.Kind, s.Cfg.RetentionLimit); err != nil {
		s.Log.Warn("failed to trim history (non-critical)",
			"error", err,
			"user_id", userID,
			"charge_id", charge.ID,
		)
		s.emitChargeEvent(bgCtx, domain.ChargeEventTrimFailed, charge, &artifact.ID, stage, err)
	}

	stage = domain.StageSettle
	if err := s.LedgerService.SettleCharge(bgCtx, charge.ID, artifact.ID); err != nil {
		// Артефакт сохранён, результат отдаём; зависший pending сверят операторы
		s.Log.Error("failed to settle charge, left pending",
			"error", err,
			"charge_id", charge.ID,
			"user_id", userID,
			"artifact_id", artifact.ID,
		)
		s.emitChargeEvent(bgCtx, domain.ChargeEventSettleFailed, charge, &artifact.ID, stage, err)
		s.alertStuckCharge(bgCtx, "settle failed", charge, stage, err)
	} else {
		s.emitChargeEvent(bgCtx, domain.ChargeEventSettled, charge, &artifact.ID, stage, nil)
	}

	url, err := s.ArtifactService.PresignedURL(bgCtx, artifact)
	if err != nil {
		// Подпись локальная, сбой здесь не повод возвращать токены:
		// артефакт останется доступен через историю
		s.Log.Warn("failed to presign artifact url",
			"error", err,
			"artifact_id", artifact.ID,
		)
	}

	s.Log.Info("generation completed",
		"artifact_id", artifact.ID,
		"charge_id", charge.ID,
		"user_id", userID,
		"action", action,
		"model", image.Model,
		"size_bytes", artifact.SizeBytes,
	)

	return &domain.GenerationResult{
		ArtifactID:  artifact.ID,
		URL:         url,
		ContentType: artifact.ContentType,
		Model:       image.Model,
		ChargeID:    charge.ID,
		Cost:        cost,
		Balance:     balance,
	}, nil
}

// compensate возвращает токены по открытому списанию. Вызывается не больше
// одного раза на запрос; ошибка refund-а никогда не затирает исходную причину
func (s *Service) compensate(ctx context.Context, charge *domain.Charge, stage domain.GenerationStage, cause error) {
	s.Log.Warn("generation failed after charge, refunding",
		"charge_id", charge.ID,
		"user_id", charge.UserID,
		"stage", stage,
		"error", cause,
	)

	if err := s.LedgerService.RefundCharge(ctx, charge.ID); err != nil {
		s.Log.Error("failed to refund charge, left pending",
			"error", err,
			"charge_id", charge.ID,
			"user_id", charge.UserID,
			"stage", stage,
		)
		s.emitChargeEvent(ctx, domain.ChargeEventRefundFailed, charge, nil, stage, err)
		s.alertStuckCharge(ctx, "refund failed", charge, stage, err)
		return
	}

	s.emitChargeEvent(ctx, domain.ChargeEventRefunded, charge, nil, stage, cause)
}

// validateTask целиком отсекает невалидные задания до открытия списания
func (s *Service) validateTask(task *domain.GenerationTask) error {
	if task == nil {
		return domain.NewError(domain.CodeInvalidInput, "missing generation task")
	}
	if strings.TrimSpace(task.Prompt) == "" {
		return domain.NewError(domain.CodeInvalidInput, "prompt must not be empty")
	}
	if s.Cfg.MaxPromptLength > 0 && len(task.Prompt) > s.Cfg.MaxPromptLength {
		return domain.NewError(domain.CodeInvalidInput, fmt.Sprintf("prompt longer than %d characters", s.Cfg.MaxPromptLength))
	}
	if !task.Tier.IsValid() {
		return domain.NewError(domain.CodeInvalidInput, fmt.Sprintf("unknown model tier: %s", task.Tier))
	}
	if !task.AspectRatio.IsValid() {
		return domain.NewError(domain.CodeInvalidInput, fmt.Sprintf("unsupported aspect ratio: %s", task.AspectRatio))
	}
	if len(task.Image) == 0 {
		return domain.NewError(domain.CodeInvalidInput, "image must not be empty")
	}
	if limit := s.Cfg.maxImageBytes(task.Tier); limit > 0 && int64(len(task.Image)) > limit {
		return domain.NewError(domain.CodePayloadTooLarge, fmt.Sprintf("image exceeds %d bytes limit for tier %s", limit, task.Tier))
	}
	if len(task.RefImage) > 0 && s.Cfg.MaxRefImageBytes > 0 && int64(len(task.RefImage)) > s.Cfg.MaxRefImageBytes {
		return domain.NewError(domain.CodePayloadTooLarge, fmt.Sprintf("reference image exceeds %d bytes limit", s.Cfg.MaxRefImageBytes))
	}
	return nil
}

// validateCutout проверяет исходник для вырезания фона, лимит как у сильной модели
func (s *Service) validateCutout(image []byte) error {
	if len(image) == 0 {
		return domain.NewError(domain.CodeInvalidInput, "image must not be empty")
	}
	if limit := s.Cfg.MaxImageBytesStrong; limit > 0 && int64(len(image)) > limit {
		return domain.NewError(domain.CodePayloadTooLarge, fmt.Sprintf("image exceeds %d bytes limit", limit))
	}
	return nil
}
