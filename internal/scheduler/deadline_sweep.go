package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/wuxing-lab/tianji/internal/domain"
)

// DeadlineLedger is the slice of the ledger the sweep needs.
type DeadlineLedger interface {
	OverduePositions(now time.Time) []domain.Position
}

// DeadlineSweepJob flags holdings past their maximum holding window. The
// sweep never closes positions on its own; selling is always a user
// decision, the job only surfaces the breach in the log.
type DeadlineSweepJob struct {
	ledger DeadlineLedger
	log    zerolog.Logger
	now    func() time.Time
}

// NewDeadlineSweepJob creates the daily holding-deadline check.
func NewDeadlineSweepJob(ledger DeadlineLedger, log zerolog.Logger) *DeadlineSweepJob {
	return &DeadlineSweepJob{
		ledger: ledger,
		log:    log.With().Str("job", "deadline_sweep").Logger(),
		now:    time.Now,
	}
}

// Name returns the job identifier
func (j *DeadlineSweepJob) Name() string {
	return "deadline_sweep"
}

// Run checks every open position against its deadline date.
func (j *DeadlineSweepJob) Run() error {
	now := j.now()
	overdue := j.ledger.OverduePositions(now)

	if len(overdue) == 0 {
		j.log.Debug().Msg("No positions past holding deadline")
		return nil
	}

	for i := range overdue {
		p := &overdue[i]
		j.log.Warn().
			Str("position_id", p.ID).
			Str("code", p.Code).
			Str("name", p.Name).
			Str("deadline", p.DeadlineDate.Format("2006-01-02")).
			Msg("Position past holding deadline, review for exit")
	}

	j.log.Info().
		Int("overdue", len(overdue)).
		Msg("Deadline sweep completed")

	return nil
}
