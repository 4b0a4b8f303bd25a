package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/saferoute/internal/loader"
)

// maxJobs bounds the finished jobs kept for polling.
const maxJobs = 256

// Job status values.
const (
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// Job tracks an asynchronous period reload.
type Job struct {
	ID         string     `json:"id"`
	Period     string     `json:"period"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	Accepted   int        `json:"accepted"`
	Skipped    int        `json:"skipped"`
	Regions    int        `json:"regions"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// beginReload claims period for a rebuild. Only one rebuild per period runs
// at a time.
func (s *Server) beginReload(period string) bool {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	if s.reloading[period] {
		return false
	}
	s.reloading[period] = true
	return true
}

func (s *Server) endReload(period string) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	delete(s.reloading, period)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reloader == nil {
		respondError(w, http.StatusServiceUnavailable, "RELOAD_DISABLED", "no data sources configured")
		return
	}
	period := urlParam(r, "period")
	if !loader.ValidPeriod(period) {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed period "+strconv.Quote(period))
		return
	}
	if _, loaded := s.store.Snapshot(period); !loaded && !s.reloader.Configured(period) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "unknown period "+period)
		return
	}
	if !s.beginReload(period) {
		s.metrics.reloads.WithLabelValues("conflict").Inc()
		respondError(w, http.StatusConflict, "RELOAD_IN_PROGRESS", "a reload of period "+period+" is already running")
		return
	}

	job := &Job{
		ID:        uuid.NewString(),
		Period:    period,
		Status:    JobRunning,
		StartedAt: time.Now().UTC(),
	}
	s.jobsMu.Lock()
	s.trackJob(job)
	snapshot := *job
	s.jobsMu.Unlock()

	go s.runReload(job)

	respondJSON(w, http.StatusAccepted, snapshot)
}

// trackJob records job and evicts the oldest finished jobs past jobLimit.
// Running jobs are never evicted. Callers hold jobsMu.
func (s *Server) trackJob(job *Job) {
	s.jobs[job.ID] = job
	s.jobOrder = append(s.jobOrder, job.ID)

	excess := len(s.jobOrder) - s.jobLimit
	if excess <= 0 {
		return
	}
	kept := s.jobOrder[:0]
	for _, id := range s.jobOrder {
		if excess > 0 && s.jobs[id].Status != JobRunning {
			delete(s.jobs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	s.jobOrder = kept
}

// runReload frees the period before publishing the job's outcome, so a
// client that sees a finished job can reload again immediately.
func (s *Server) runReload(job *Job) {
	res, err := s.reloader.SyncPeriod(s.baseCtx, s.store, job.Period)
	finished := time.Now().UTC()
	s.endReload(job.Period)

	s.jobsMu.Lock()
	job.FinishedAt = &finished
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
	} else {
		job.Status = JobSucceeded
		job.Accepted = res.Accepted
		job.Skipped = res.Skipped
		job.Regions = res.Regions
	}
	s.jobsMu.Unlock()

	if err != nil {
		s.metrics.reloads.WithLabelValues("failed").Inc()
		return
	}
	s.metrics.reloads.WithLabelValues("succeeded").Inc()
	zap.L().Info("api: reload finished",
		zap.String("job_id", job.ID),
		zap.String("period", job.Period),
		zap.Int("accepted", res.Accepted),
		zap.Duration("elapsed", finished.Sub(job.StartedAt)),
	)
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.jobsMu.RLock()
	job, ok := s.jobs[id]
	var out Job
	if ok {
		out = *job
	}
	s.jobsMu.RUnlock()

	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "unknown job "+id)
		return
	}
	respondJSON(w, http.StatusOK, out)
}
