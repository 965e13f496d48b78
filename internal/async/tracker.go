package async

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/dist1-extractor/constants"
	"github.com/joseph-ayodele/dist1-extractor/internal/entity"
	"github.com/joseph-ayodele/dist1-extractor/internal/pipeline"
)

// Tracker holds the live state of every run submitted since startup.
type Tracker struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*entity.Run
	now  func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{runs: map[uuid.UUID]*entity.Run{}, now: time.Now}
}

func (t *Tracker) Submit(job Job) {
	t.mu.Lock()
	defer t.mu.Unlock()
	submitted := job.SubmittedAt
	if submitted.IsZero() {
		submitted = t.now()
	}
	t.runs[job.RunID] = &entity.Run{
		ID:          job.RunID,
		Folder:      job.Folder,
		Lang:        pipeline.NormalizeLang(job.Lang),
		State:       string(constants.RunStateQueued),
		SubmittedAt: submitted,
	}
}

func (t *Tracker) Start(id uuid.UUID) {
	t.update(id, func(r *entity.Run) {
		now := t.now()
		r.State = string(constants.RunStateRunning)
		r.StartedAt = &now
	})
}

func (t *Tracker) Progress(id uuid.UUID, p pipeline.Progress) {
	t.update(id, func(r *entity.Run) {
		r.Percent = p.Percent
		r.Message = p.Message
	})
}

// Finish records the outcome. res may be nil when err is set.
func (t *Tracker) Finish(id uuid.UUID, res *pipeline.Result, err error) {
	t.update(id, func(r *entity.Run) {
		now := t.now()
		r.FinishedAt = &now
		if res != nil {
			r.WorkbookPath = res.WorkbookPath
			r.CSVPath = res.CSVPath
		}
		if err != nil {
			r.State = string(constants.RunStateFailed)
			r.Error = err.Error()
			return
		}
		r.State = string(res.State())
		if res.WorkbookErr != nil {
			r.WorkbookError = res.WorkbookErr.Error()
		}
	})
}

// Get returns a copy of the run.
func (t *Tracker) Get(id uuid.UUID) (entity.Run, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.runs[id]
	if !ok {
		return entity.Run{}, false
	}
	return *r, true
}

func (t *Tracker) update(id uuid.UUID, fn func(*entity.Run)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.runs[id]; ok {
		fn(r)
	}
}
