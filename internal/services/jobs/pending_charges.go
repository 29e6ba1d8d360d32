package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/admin/photo-apps/studio-api/internal/ports/service"
)

const pendingChargesReporterName = "pending-charges-reporter"

// PendingChargesReporter джоба сверки зависших списаний.
// Только отчитывается операторам, возвраты не делает:
// решение о refund по зависшему pending принимает человек
type PendingChargesReporter struct {
	ledgerService  service.ILedgerService
	alerterService service.IAlerterService
	log            *slog.Logger
	interval       time.Duration
	olderThan      time.Duration
}

func NewPendingChargesReporter(
	ledgerService service.ILedgerService,
	alerterService service.IAlerterService,
	log *slog.Logger,
	interval time.Duration,
	olderThan time.Duration,
) *PendingChargesReporter {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if olderThan <= 0 {
		olderThan = 30 * time.Minute
	}

	return &PendingChargesReporter{
		ledgerService:  ledgerService,
		alerterService: alerterService,
		log:            log,
		interval:       interval,
		olderThan:      olderThan,
	}
}

func (j *PendingChargesReporter) Name() string {
	return pendingChargesReporterName
}

// NextRun каждые interval минут
func (j *PendingChargesReporter) NextRun(now time.Time) time.Time {
	return now.Add(j.interval)
}

// Run собирает зависшие pending-списания и алертит операторам
func (j *PendingChargesReporter) Run(ctx context.Context) error {
	charges, err := j.ledgerService.ListPendingCharges(ctx, j.olderThan)
	if err != nil {
		return fmt.Errorf("failed to list pending charges: %w", err)
	}

	if len(charges) == 0 {
		j.log.Debug("no stuck pending charges")
		return nil
	}

	var totalCost int64
	oldest := time.Now()
	for _, charge := range charges {
		totalCost += charge.Cost
		if charge.CreatedAt.Before(oldest) {
			oldest = charge.CreatedAt
		}
	}

	j.log.Warn("stuck pending charges found",
		"count", len(charges),
		"total_cost", totalCost,
		"oldest_created_at", oldest,
	)

	var message strings.Builder
	message.WriteString("⚠️ Зависшие pending-списания в леджере\n\n")
	message.WriteString(fmt.Sprintf("Всего: %d, на сумму %d токенов\n", len(charges), totalCost))
	message.WriteString(fmt.Sprintf("Старейшее открыто: %s\n\n", oldest.Format(time.RFC3339)))
	for i, charge := range charges {
		if i >= 10 {
			message.WriteString(fmt.Sprintf("... и ещё %d\n", len(charges)-10))
			break
		}
		message.WriteString(fmt.Sprintf("charge=%s user=%s action=%s cost=%d\n",
			charge.ID, charge.UserID, charge.Action, charge.Cost))
	}

	if j.alerterService != nil {
		if alertErr := j.alerterService.SendAlert(ctx, message.String()); alertErr != nil {
			j.log.Warn("failed to send pending charges alert", "error", alertErr)
		}
	}

	return nil
}
