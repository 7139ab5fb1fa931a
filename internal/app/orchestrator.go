package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/tenji/internal/baseline"
	"github.com/raysh454/tenji/internal/diff"
	"github.com/raysh454/tenji/internal/enumerate"
	"github.com/raysh454/tenji/internal/logging"
	"github.com/raysh454/tenji/internal/model"
	"github.com/raysh454/tenji/internal/scanner"
)

type JobEventType string

const (
	JobEventStatus JobEventType = "status"
	JobEventResult JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

type Job struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"` // "scan" | "gate"
	Origin    string        `json:"origin"`
	Baseline  string        `json:"baseline,omitempty"`
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Events    chan JobEvent `json:"-"`

	// Optional results:
	Scan   *model.ScanResult `json:"scan,omitempty"`
	Report *diff.Report      `json:"report,omitempty"`
}

// Orchestrator ties the spider, the scanner backends, the diff engine and
// the baseline store together behind one API shared by the CLI and server.
type Orchestrator struct {
	cfg    *Config
	store  *baseline.Store
	logger logging.Logger

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
}

// NewOrchestrator ties together config, baseline store and logger. The store
// may be nil when only file-based diffing is needed.
func NewOrchestrator(cfg *Config, store *baseline.Store, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Orchestrator{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// RunScan enumerates origin with the spider and scans every discovered page
// with the configured backend.
func (o *Orchestrator) RunScan(ctx context.Context, origin string) (*model.ScanResult, error) {
	spider := enumerate.NewSpider(o.cfg.SpiderMaxDepth, o.logger)
	spider.MaxPages = o.cfg.SpiderMaxPages

	pageURLs, err := spider.Enumerate(ctx, origin)
	if err != nil {
		return nil, fmt.Errorf("enumerating %s: %w", origin, err)
	}
	o.logger.Info("enumerated pages",
		logging.Field{Key: "origin", Value: origin},
		logging.Field{Key: "count", Value: len(pageURLs)})

	sc, err := scanner.NewScanner(o.cfg.ScannerCfg, o.logger)
	if err != nil {
		return nil, err
	}
	defer sc.Close()

	return scanner.ScanPages(ctx, sc, o.cfg.ScannerCfg, origin, pageURLs, o.logger)
}

// CompareScans runs the full diff pipeline over two scan documents and
// returns the gate decision.
func (o *Orchestrator) CompareScans(base, head *model.ScanResult) diff.Decision {
	baseIx := diff.NewIndex(base)
	headIx := diff.NewIndex(head)

	if baseIx.Skipped > 0 || headIx.Skipped > 0 {
		o.logger.Warn("occurrences skipped during indexing",
			logging.Field{Key: "baseline_skipped", Value: baseIx.Skipped},
			logging.Field{Key: "head_skipped", Value: headIx.Skipped})
	}

	res := diff.Compute(baseIx, headIx)
	return diff.Decide(res, diff.Aggregate(baseIx), diff.Aggregate(headIx), o.cfg.FailOnRegression)
}

// RunGate scans origin and compares it against the stored baseline label.
func (o *Orchestrator) RunGate(ctx context.Context, label, origin string) (*diff.Decision, *model.ScanResult, error) {
	if o.store == nil {
		return nil, nil, fmt.Errorf("gate: no baseline store configured")
	}

	baseScan, _, err := o.store.Load(ctx, label)
	if err != nil {
		return nil, nil, err
	}

	headScan, err := o.RunScan(ctx, origin)
	if err != nil {
		return nil, nil, err
	}

	decision := o.CompareScans(baseScan, headScan)
	return &decision, headScan, nil
}

// SaveBaseline stores scan under label.
func (o *Orchestrator) SaveBaseline(ctx context.Context, label string, scan *model.ScanResult) (*baseline.Entry, error) {
	if o.store == nil {
		return nil, fmt.Errorf("baseline: no store configured")
	}
	return o.store.Save(ctx, label, scan)
}

// LoadBaseline returns the scan stored under label.
func (o *Orchestrator) LoadBaseline(ctx context.Context, label string) (*model.ScanResult, *baseline.Entry, error) {
	if o.store == nil {
		return nil, nil, fmt.Errorf("baseline: no store configured")
	}
	return o.store.Load(ctx, label)
}

// ListBaselines returns stored baselines, newest first.
func (o *Orchestrator) ListBaselines(ctx context.Context, limit int) ([]baseline.Entry, error) {
	if o.store == nil {
		return nil, fmt.Errorf("baseline: no store configured")
	}
	return o.store.List(ctx, limit)
}

// --- Job lifecycle ---

// StartScanJob runs RunScan asynchronously and tracks it as a job.
func (o *Orchestrator) StartScanJob(ctx context.Context, origin string) (*Job, error) {
	job := o.newJob("scan", origin, "")
	o.launch(ctx, job, func(jobCtx context.Context, j *Job) error {
		scan, err := o.RunScan(jobCtx, origin)
		if err != nil {
			return err
		}
		o.jobsMu.Lock()
		j.Scan = scan
		o.jobsMu.Unlock()
		return nil
	})
	return job, nil
}

// StartGateJob runs RunGate asynchronously and tracks it as a job.
func (o *Orchestrator) StartGateJob(ctx context.Context, label, origin string) (*Job, error) {
	job := o.newJob("gate", origin, label)
	o.launch(ctx, job, func(jobCtx context.Context, j *Job) error {
		decision, headScan, err := o.RunGate(jobCtx, label, origin)
		if err != nil {
			return err
		}
		o.jobsMu.Lock()
		j.Scan = headScan
		j.Report = decision.Report
		o.jobsMu.Unlock()
		return nil
	})
	return job, nil
}

func (o *Orchestrator) newJob(jobType, origin, label string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if o.jobs == nil {
		o.jobs = make(map[string]*Job)
	}
	if o.jobCancels == nil {
		o.jobCancels = make(map[string]context.CancelFunc)
	}

	job := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Origin:    origin,
		Baseline:  label,
		Status:    JobPending,
		StartedAt: time.Now().UTC(),
		Events:    make(chan JobEvent, 16),
	}
	o.jobs[job.ID] = job
	return job
}

// launch drives a job through its lifecycle in a goroutine. The run function
// stores results on the job under the jobs mutex via the pointer it receives.
func (o *Orchestrator) launch(ctx context.Context, job *Job, run func(context.Context, *Job) error) {
	jobCtx, cancel := context.WithCancel(ctx)

	o.jobsMu.Lock()
	o.jobCancels[job.ID] = cancel
	o.jobsMu.Unlock()

	o.emitJobEvent(job.ID, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobPending})

	go func() {
		defer func() {
			o.jobsMu.Lock()
			job.EndedAt = time.Now().UTC()
			delete(o.jobCancels, job.ID)
			o.jobsMu.Unlock()

			// Close events channel so websocket loops terminate cleanly.
			close(job.Events)
		}()

		o.setStatus(job, JobRunning, "")
		o.emitJobEvent(job.ID, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobRunning})

		err := run(jobCtx, job)

		switch {
		case jobCtx.Err() != nil:
			o.setStatus(job, JobCanceled, jobCtx.Err().Error())
			o.emitJobEvent(job.ID, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobCanceled, Error: jobCtx.Err().Error()})
		case err != nil:
			o.setStatus(job, JobFailed, err.Error())
			o.emitJobEvent(job.ID, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobFailed, Error: err.Error()})
		default:
			o.setStatus(job, JobDone, "")
			o.emitJobEvent(job.ID, JobEvent{JobID: job.ID, Type: JobEventResult, Status: JobDone})
		}
	}()
}

func (o *Orchestrator) setStatus(job *Job, status JobStatus, errMsg string) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	job.Status = status
	job.Error = errMsg
}

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) CancelJob(jobID string) {
	o.jobsMu.Lock()
	cancel := o.jobCancels[jobID]
	o.jobsMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	return o.jobs[jobID]
}

func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// Close cancels all running jobs.
func (o *Orchestrator) Close() {
	o.jobsMu.Lock()
	cancels := make([]context.CancelFunc, 0, len(o.jobCancels))
	for _, c := range o.jobCancels {
		cancels = append(cancels, c)
	}
	o.jobsMu.Unlock()
	for _, c := range cancels {
		c()
	}
}
