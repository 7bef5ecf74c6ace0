package export

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Mathiasric/snaptosize-app/internal/domain"
	"github.com/Mathiasric/snaptosize-app/internal/jobstate"
	"github.com/Mathiasric/snaptosize-app/internal/workerapi"
)

type tickResult struct {
	ok    bool
	class workerapi.Classification
}

// poll queries every non-terminal job once per interval until all of them
// are terminal or the budget runs out. Jobs still running at the deadline
// keep their last status; the phase becomes done either way. The budget also
// bounds in-flight status queries.
func (o *Orchestrator) poll(a *attempt, tracked []trackedJob) {
	deadline := o.now().Add(o.timeout)
	pctx, cancel := context.WithTimeout(a.ctx, o.timeout)
	defer cancel()
	terminal := make(map[string]bool, len(tracked))

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		if a.ctx.Err() != nil {
			return
		}
		if pctx.Err() != nil || !o.now().Before(deadline) {
			o.logger.Info().Int("pending", len(tracked)-len(terminal)).Msg("export: poll budget exhausted")
			o.dispatch(a, jobstate.SetPhase{Phase: domain.PhaseDone})
			return
		}

		if !o.tick(pctx, a, tracked, terminal) {
			return
		}
		if len(terminal) == len(tracked) {
			o.dispatch(a, jobstate.SetPhase{Phase: domain.PhaseDone})
			return
		}

		timer.Reset(o.interval)
		select {
		case <-a.ctx.Done():
			return
		case <-pctx.Done():
		case <-timer.C:
		}
	}
}

// tick issues the status queries concurrently under ctx and applies the
// results once all of them resolve. It reports false when the attempt was
// canceled.
func (o *Orchestrator) tick(ctx context.Context, a *attempt, tracked []trackedJob, terminal map[string]bool) bool {
	results := make([]tickResult, len(tracked))

	var g errgroup.Group
	for i, tj := range tracked {
		if terminal[tj.jobID] {
			continue
		}
		g.Go(func() error {
			payload, err := o.worker.Status(ctx, tj.jobID)
			if err != nil {
				// Transient: retried next tick.
				o.logger.Debug().Err(err).Str("job_id", tj.jobID).Msg("export: status query failed")
				return nil
			}
			results[i] = tickResult{ok: true, class: workerapi.Classify(payload)}
			return nil
		})
	}
	_ = g.Wait()

	if a.ctx.Err() != nil {
		return false
	}

	for i, tj := range tracked {
		res := results[i]
		if !res.ok {
			continue
		}
		if !o.apply(a, tj, res.class, terminal) {
			return false
		}
	}
	return true
}

func (o *Orchestrator) apply(a *attempt, tj trackedJob, c workerapi.Classification, terminal map[string]bool) bool {
	key := tj.output.Key()
	job := domain.Job{Key: key, JobID: tj.jobID, Status: c.Status}

	switch c.Status {
	case domain.JobStatusDone:
		terminal[tj.jobID] = true
		job.DownloadURL = c.DownloadURL
		if job.DownloadURL == "" {
			job.DownloadURL = o.worker.DownloadURL(tj.jobID)
		}
		if !o.dispatch(a, jobstate.SetJob{Job: job}) {
			return false
		}
		o.capture(a, "export_job_done", map[string]any{"mode": string(a.mode), "output": key, "job_id": tj.jobID})
		return o.dispatch(a, jobstate.AddRecentDownload{Download: domain.RecentDownload{
			Label:       tj.output.Label(),
			CompletedAt: o.now(),
			DownloadURL: job.DownloadURL,
			JobID:       tj.jobID,
		}})
	case domain.JobStatusError:
		terminal[tj.jobID] = true
		job.Error = c.Error
	}
	return o.dispatch(a, jobstate.SetJob{Job: job})
}
