// Package exports materializes snapshots of a filtered view and stores them
// as blob artifacts, asynchronously to the request that asked for them.
package exports

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"penguindash/internal/blob"
	"penguindash/internal/plot"
	"penguindash/pkg/domain"
)

// Format identifies an export output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPNG  Format = "png"
)

// ParseFormat maps a label onto the format enumeration.
func ParseFormat(label string) (Format, error) {
	switch Format(label) {
	case FormatJSON, FormatCSV, FormatPNG:
		return Format(label), nil
	default:
		return "", fmt.Errorf("unsupported export format %q", label)
	}
}

// Status describes the lifecycle stage of an export request.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Artifact captures a stored snapshot artifact.
type Artifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	Rows        int       `json:"rows"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record tracks an export request and its resulting artifacts.
type Record struct {
	ID          string     `json:"id"`
	MaxMass     float64    `json:"max_mass"`
	Species     []string   `json:"species"`
	Formats     []Format   `json:"formats"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Input represents an enqueue request. The filter snapshot is captured at
// enqueue time so the export is reproducible regardless of later filter
// changes in the requesting session.
type Input struct {
	Filter  domain.FilterState
	Formats []Format
}

// Scheduler queues export requests and exposes status.
type Scheduler interface {
	Enqueue(ctx context.Context, input Input) (Record, error)
	Get(id string) (Record, bool)
}

// Worker executes exports asynchronously against the shared base table.
type Worker struct {
	base  domain.Table
	store blob.Store
	log   *slog.Logger

	queue chan task
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type task struct {
	id    string
	input Input
}

// NewWorker constructs an export worker writing artifacts to store.
func NewWorker(base domain.Table, store blob.Store, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		base:   base,
		store:  store,
		log:    log,
		queue:  make(chan task, 32),
		jobs:   make(map[string]*Record),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

// Enqueue schedules an export job and returns the queued record.
func (w *Worker) Enqueue(_ context.Context, input Input) (Record, error) {
	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	uniq := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, f := range formats {
		if _, dup := seen[f]; dup {
			continue
		}
		if _, err := ParseFormat(string(f)); err != nil {
			return Record{}, err
		}
		uniq = append(uniq, f)
		seen[f] = struct{}{}
	}

	id := newID()
	now := time.Now().UTC()
	species := make([]string, 0, len(input.Filter.Species()))
	for _, sp := range input.Filter.Species() {
		species = append(species, string(sp))
	}
	record := Record{
		ID:        id,
		MaxMass:   input.Filter.MaxMass,
		Species:   species,
		Formats:   uniq,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	snapshot := record.copy()
	w.mu.Unlock()

	select {
	case w.queue <- task{id: id, input: input}:
	default:
		w.mu.Lock()
		delete(w.jobs, id)
		w.mu.Unlock()
		return Record{}, fmt.Errorf("export queue full")
	}

	return snapshot, nil
}

// Get returns a snapshot of the export record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	record, ok := w.jobs[id]
	if !ok {
		w.mu.RUnlock()
		return Record{}, false
	}
	snapshot := record.copy()
	w.mu.RUnlock()
	return snapshot, true
}

func (w *Worker) process(t task) {
	w.setStatus(t.id, StatusRunning, "")
	view := t.input.Filter.Apply(w.base)

	formats := w.formatsFor(t.id)
	artifacts := make([]Artifact, 0, len(formats))
	for _, format := range formats {
		artifact, payload, err := materialize(format, view)
		if err != nil {
			w.fail(t.id, err.Error())
			return
		}
		artifact.Key = fmt.Sprintf("exports/%s/view.%s", t.id, format)
		if w.store != nil {
			info, err := w.store.Put(w.ctx, artifact.Key, bytes.NewReader(payload), blob.PutOptions{
				ContentType: artifact.ContentType,
				Metadata:    map[string]string{"rows": strconv.Itoa(view.Len())},
			})
			if err != nil {
				w.fail(t.id, fmt.Sprintf("store artifact: %v", err))
				return
			}
			if url, err := w.store.PresignURL(w.ctx, artifact.Key, blob.SignedURLOptions{}); err == nil {
				artifact.URL = url
			} else if info.URL != "" {
				artifact.URL = info.URL
			}
		}
		artifacts = append(artifacts, artifact)
	}

	w.complete(t.id, artifacts)
	w.log.Info("export complete", "id", t.id, "rows", view.Len(), "artifacts", len(artifacts))
}

func (w *Worker) formatsFor(id string) []Format {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if record, ok := w.jobs[id]; ok {
		return append([]Format(nil), record.Formats...)
	}
	return nil
}

func (w *Worker) setStatus(id string, status Status, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
	}
	w.mu.Unlock()
}

func (w *Worker) complete(id string, artifacts []Artifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.log.Warn("export failed", "id", id, "reason", reason)
}

func materialize(format Format, view domain.Table) (Artifact, []byte, error) {
	now := time.Now().UTC()
	switch format {
	case FormatJSON:
		payload, err := json.Marshal(view.Rows())
		if err != nil {
			return Artifact{}, nil, fmt.Errorf("marshal json: %w", err)
		}
		return Artifact{Format: FormatJSON, ContentType: "application/json", SizeBytes: int64(len(payload)), Rows: view.Len(), CreatedAt: now}, payload, nil
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write(domain.GridColumns); err != nil {
			return Artifact{}, nil, err
		}
		var writeErr error
		view.Each(func(p domain.Penguin) {
			if writeErr != nil {
				return
			}
			writeErr = writer.Write([]string{
				string(p.Species),
				p.Island,
				strconv.FormatFloat(p.BillLengthMM, 'g', -1, 64),
				strconv.FormatFloat(p.BillDepthMM, 'g', -1, 64),
				strconv.FormatFloat(p.BodyMassG, 'g', -1, 64),
			})
		})
		if writeErr != nil {
			return Artifact{}, nil, writeErr
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return Artifact{}, nil, err
		}
		payload := buf.Bytes()
		return Artifact{Format: FormatCSV, ContentType: "text/csv", SizeBytes: int64(len(payload)), Rows: view.Len(), CreatedAt: now}, payload, nil
	case FormatPNG:
		payload, err := plot.RenderScatter(view, plot.DefaultWidth, plot.DefaultHeight)
		if err != nil {
			return Artifact{}, nil, err
		}
		return Artifact{Format: FormatPNG, ContentType: "image/png", SizeBytes: int64(len(payload)), Rows: view.Len(), CreatedAt: now}, payload, nil
	default:
		return Artifact{}, nil, fmt.Errorf("unsupported export format %s", format)
	}
}

func (r Record) copy() Record {
	dup := r
	dup.Species = append([]string(nil), r.Species...)
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]Artifact(nil), r.Artifacts...)
	}
	return dup
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}
