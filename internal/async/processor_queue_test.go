package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/dist1-extractor/constants"
	"github.com/joseph-ayodele/dist1-extractor/internal/common"
	"github.com/joseph-ayodele/dist1-extractor/internal/pipeline"
)

type stubProcessor struct {
	mu       sync.Mutex
	inFlight int
	maxSeen  int
	order    []string
	gate     chan struct{} // when set, each run waits for a value
	fail     map[string]error
}

func (s *stubProcessor) Run(ctx context.Context, folder string, progress pipeline.ProgressFunc) (*pipeline.Result, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	s.order = append(s.order, folder)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.gate != nil {
		<-s.gate
	} else {
		time.Sleep(5 * time.Millisecond)
	}
	progress(pipeline.Progress{Stage: constants.StageCup, Percent: 10, Message: "cup"})
	if err := s.fail[folder]; err != nil {
		return &pipeline.Result{Folder: folder}, err
	}
	progress(pipeline.Progress{Stage: constants.StageDone, Percent: 100, Message: "done"})
	return &pipeline.Result{
		RunID:   common.RunIDFromContext(ctx),
		Folder:  folder,
		CSVPath: folder + "/ocr_result.csv",
	}, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestQueueRunsJobsSequentially(t *testing.T) {
	proc := &stubProcessor{fail: map[string]error{"b": common.MissingPrerequisiteError("cup", "b/cup")}}
	q := NewProcessorQueue(proc, nil, nil, WithQueueSize(8))

	ids := map[string]uuid.UUID{}
	for _, f := range []string{"a", "b", "c"} {
		ids[f] = uuid.New()
		if err := q.Enqueue(context.Background(), Job{RunID: ids[f], Folder: f, Lang: "ja"}); err != nil {
			t.Fatalf("enqueue %s: %v", f, err)
		}
	}
	q.Shutdown(context.Background())

	if proc.maxSeen != 1 {
		t.Fatalf("expected one run at a time, saw %d", proc.maxSeen)
	}
	if len(proc.order) != 3 || proc.order[0] != "a" || proc.order[1] != "b" || proc.order[2] != "c" {
		t.Fatalf("expected FIFO order, got %v", proc.order)
	}

	a, ok := q.Tracker().Get(ids["a"])
	if !ok || a.State != string(constants.RunStateSucceeded) || a.Percent != 100 || a.Lang != "ja" {
		t.Fatalf("unexpected run a: %+v", a)
	}
	if a.StartedAt == nil || a.FinishedAt == nil || a.CSVPath != "a/ocr_result.csv" {
		t.Fatalf("run a missing timestamps or paths: %+v", a)
	}
	b, _ := q.Tracker().Get(ids["b"])
	if b.State != string(constants.RunStateFailed) || b.Error == "" || b.Percent != 10 {
		t.Fatalf("unexpected run b: %+v", b)
	}
}

func TestQueueRejectsAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&stubProcessor{}, nil, nil)
	q.Shutdown(context.Background())
	err := q.Enqueue(context.Background(), Job{RunID: uuid.New(), Folder: "x"})
	if !errors.Is(err, common.ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
	q.Shutdown(context.Background()) // idempotent
}

func TestQueueFull(t *testing.T) {
	proc := &stubProcessor{gate: make(chan struct{})}
	q := NewProcessorQueue(proc, nil, nil, WithQueueSize(1))

	first := uuid.New()
	if err := q.Enqueue(context.Background(), Job{RunID: first, Folder: "1"}); err != nil {
		t.Fatalf("enqueue 1: %v", err)
	}
	waitFor(t, func() bool {
		r, _ := q.Tracker().Get(first)
		return r.State == string(constants.RunStateRunning)
	})
	if err := q.Enqueue(context.Background(), Job{RunID: uuid.New(), Folder: "2"}); err != nil {
		t.Fatalf("enqueue 2: %v", err)
	}
	third := uuid.New()
	err := q.Enqueue(context.Background(), Job{RunID: third, Folder: "3"})
	if !errors.Is(err, common.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if r, _ := q.Tracker().Get(third); r.State != string(constants.RunStateFailed) {
		t.Fatalf("rejected run should be failed, got %+v", r)
	}

	close(proc.gate)
	q.Shutdown(context.Background())
}

func TestTrackerUnknownRun(t *testing.T) {
	tr := NewTracker()
	tr.Start(uuid.New()) // no-op
	if _, ok := tr.Get(uuid.New()); ok {
		t.Fatalf("unexpected run")
	}
}
