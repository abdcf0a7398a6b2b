package session

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/devguard-labs/devguard/internal/model"
	"github.com/devguard-labs/devguard/internal/resolver"
	"github.com/devguard-labs/devguard/internal/store"
)

// State identifies where the scan session is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateScanned
	StateApplying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateScanned:
		return "scanned"
	case StateApplying:
		return "applying"
	default:
		return "unknown"
	}
}

// Backend is the remote scanning service contract the session depends on.
type Backend interface {
	Scan(ctx context.Context, payload resolver.Payload) (*model.ScanResult, error)
	Apply(ctx context.Context, ids []string) (*model.ScanResult, error)
	Report(ctx context.Context) ([]byte, error)
}

// Controller owns one scan session. It drives the state machine and is the
// only writer of the session store: a result is either recorded wholesale or
// not at all, and a failed call leaves the previous result untouched.
type Controller struct {
	mu          sync.Mutex
	client      Backend
	store       *store.Store
	state       State
	filter      string
	reqSeq      uint64 // issued to each outbound mutating request
	recordedSeq uint64 // last request whose result was recorded
}

// New creates an idle session over the given store and backend.
func New(st *store.Store, client Backend) *Controller {
	return &Controller{
		client: client,
		store:  st,
		state:  StateIdle,
		filter: model.SeverityAll,
	}
}

// SetBackend swaps the backend collaborator. Used when the user edits the
// backend URL mid-session; in-flight requests keep their old client.
func (c *Controller) SetBackend(b Backend) {
	c.mu.Lock()
	c.client = b
	c.mu.Unlock()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Filter returns the active severity filter.
func (c *Controller) Filter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// SetFilter changes the projected view only; stored data is unaffected.
func (c *Controller) SetFilter(severity string) error {
	if !model.ValidFilter(severity) {
		return fmt.Errorf("invalid severity filter: %q", severity)
	}
	c.mu.Lock()
	c.filter = severity
	c.mu.Unlock()
	return nil
}

// RunScan resolves the inputs into exactly one payload, submits it, and on
// success replaces the stored result. On failure the store keeps its previous
// value and the session returns to its prior state. A response that arrives
// after a newer action has already recorded a result is discarded.
func (c *Controller) RunScan(ctx context.Context, in resolver.Inputs) error {
	c.mu.Lock()
	prev := c.state
	c.state = StateScanning
	c.reqSeq++
	seq := c.reqSeq
	client := c.client
	c.mu.Unlock()

	payload := resolver.Resolve(in)
	result, err := client.Scan(ctx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq <= c.recordedSeq {
		// Superseded by a newer action; last writer wins.
		return nil
	}
	if err != nil {
		c.state = prev
		return fmt.Errorf("scan failed: %w", err)
	}
	if err := c.store.RecordResult(*result); err != nil {
		c.state = prev
		return err
	}
	c.recordedSeq = seq
	c.state = StateScanned
	c.filter = model.SeverityAll
	return nil
}

// ApplyFix asks the backend to remediate the given findings. On success the
// whole result is replaced by the response and the view returns to the
// unfiltered state; on failure the previous result stays authoritative. No
// finding is ever marked fixed client-side.
func (c *Controller) ApplyFix(ctx context.Context, ids ...string) error {
	c.mu.Lock()
	if c.state != StateScanned {
		c.mu.Unlock()
		return fmt.Errorf("no scan result to apply fixes to")
	}
	c.state = StateApplying
	c.reqSeq++
	seq := c.reqSeq
	client := c.client
	c.mu.Unlock()

	result, err := client.Apply(ctx, ids)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateScanned
	if seq <= c.recordedSeq {
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}
	if err := c.store.RecordResult(*result); err != nil {
		return err
	}
	c.recordedSeq = seq
	c.filter = model.SeverityAll
	return nil
}

// ExportReport fetches the report artifact and writes it to w. Nothing is
// written when the fetch fails.
func (c *Controller) ExportReport(ctx context.Context, w io.Writer) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	data, err := client.Report(ctx)
	if err != nil {
		return fmt.Errorf("could not fetch report: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Reset clears the stored result and returns the session to idle.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Clear(); err != nil {
		return err
	}
	c.state = StateIdle
	c.filter = model.SeverityAll
	return nil
}

// Snapshot returns the stored result together with its filtered, sorted
// projection and the active filter. The result is nil until a scan succeeds.
func (c *Controller) Snapshot() (*model.ScanResult, []model.Finding, string, error) {
	c.mu.Lock()
	filter := c.filter
	c.mu.Unlock()

	current, err := c.store.Current()
	if err != nil {
		return nil, nil, filter, err
	}
	if current == nil {
		return nil, nil, filter, nil
	}

	findings, err := c.store.Filtered(filter)
	if err != nil {
		return nil, nil, filter, err
	}
	return current, findings, filter, nil
}
