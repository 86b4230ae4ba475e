package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/neusearch/product-assistant/internal/service"
)

// JobStatus represents the current state of an ingestion job.
type JobStatus struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"` // running, complete, error
	Stored      int       `json:"stored"`
	Indexed     int       `json:"indexed"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// JobTracker manages ingestion jobs in memory. At most one job runs at a
// time; ingestion is an infrequent serialized batch operation.
type JobTracker struct {
	mu      sync.RWMutex
	jobs    map[string]*JobStatus
	subs    map[string][]chan JobStatus
	running string
}

// NewJobTracker creates a new job tracker.
func NewJobTracker() *JobTracker {
	return &JobTracker{
		jobs: make(map[string]*JobStatus),
		subs: make(map[string][]chan JobStatus),
	}
}

// Start registers a new running job. It fails when another job is active.
func (t *JobTracker) Start(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running != "" {
		return false
	}
	t.running = id
	t.jobs[id] = &JobStatus{
		ID:        id,
		Status:    "running",
		StartedAt: time.Now(),
	}
	return true
}

// Complete marks a job finished and notifies subscribers.
func (t *JobTracker) Complete(id string, result service.IngestResult) {
	t.finish(id, "complete", result, "")
}

// Fail marks a job failed and notifies subscribers.
func (t *JobTracker) Fail(id string, errMsg string) {
	t.finish(id, "error", service.IngestResult{}, errMsg)
}

func (t *JobTracker) finish(id, status string, result service.IngestResult, errMsg string) {
	t.mu.Lock()
	job, ok := t.jobs[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	job.Status = status
	job.Stored = result.Stored
	job.Indexed = result.Indexed
	job.Error = errMsg
	job.CompletedAt = time.Now()
	if t.running == id {
		t.running = ""
	}
	snapshot := *job
	subs := t.subs[id]
	t.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// Get returns a job status snapshot.
func (t *JobTracker) Get(id string) (*JobStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// Subscribe returns a channel that receives job updates.
func (t *JobTracker) Subscribe(id string) chan JobStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan JobStatus, 10)
	t.subs[id] = append(t.subs[id], ch)
	return ch
}

// Unsubscribe removes a channel from subscribers.
func (t *JobTracker) Unsubscribe(id string, ch chan JobStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	subs := t.subs[id]
	for i, s := range subs {
		if s == ch {
			t.subs[id] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	close(ch)
}

// JobsHandler handles job-status endpoints.
type JobsHandler struct {
	tracker *JobTracker
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(tracker *JobTracker) *JobsHandler {
	return &JobsHandler{tracker: tracker}
}

// Register sets up job routes.
func (h *JobsHandler) Register(router fiber.Router) {
	jobs := router.Group("/jobs")
	jobs.Get("/:id", h.GetStatus)
	jobs.Get("/:id/stream", h.StreamSSE)
}

// GetStatus returns the current job status.
func (h *JobsHandler) GetStatus(c fiber.Ctx) error {
	id := c.Params("id")
	job, ok := h.tracker.Get(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	return c.JSON(job)
}

// StreamSSE streams job updates via Server-Sent Events.
func (h *JobsHandler) StreamSSE(c fiber.Ctx) error {
	id := c.Params("id")

	job, ok := h.tracker.Get(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	// Already finished: send the final status and close.
	if job.Status != "running" {
		data, _ := json.Marshal(job)
		return c.SendString(fmt.Sprintf("event: %s\ndata: %s\n\n", job.Status, string(data)))
	}

	ch := h.tracker.Subscribe(id)

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer h.tracker.Unsubscribe(id, ch)

		data, _ := json.Marshal(job)
		fmt.Fprintf(w, "event: progress\ndata: %s\n\n", string(data))
		w.Flush()

		timeout := time.After(5 * time.Minute)
		for {
			select {
			case update, ok := <-ch:
				if !ok {
					return
				}
				data, _ := json.Marshal(update)
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", update.Status, string(data))
				w.Flush()
				if update.Status != "running" {
					return
				}
			case <-timeout:
				slog.Warn("SSE timeout", "job_id", id)
				return
			}
		}
	})
}
