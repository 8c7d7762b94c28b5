// Package workspace holds each user's in-progress profile draft and runs the
// resume pipeline (extract, analyze, upload, save) against it.
package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"profile-backend/internal/profile"
	"profile-backend/internal/profilestore"
)

// ErrBusy is returned when a pipeline step is started while another one is
// still running for the same user.
var ErrBusy = errors.New("another operation is already in progress")

// Snapshot is a consistent copy of an editor's state.
type Snapshot struct {
	Draft      profile.Draft       `json:"profile"`
	ResumeText string              `json:"resumeText"`
	Source     profilestore.Source `json:"source"`

	version uint64
}

// LoadHook adjusts a draft just read from storage.
type LoadHook func(ctx context.Context, d profile.Draft) profile.Draft

// Editor owns one user's draft and pending resume text. All access goes
// through mu. busy marks a running pipeline step; it is held across the
// slow part of the step while mu is not. dirty marks edits not yet saved.
type Editor struct {
	userID  string
	gateway *profilestore.Gateway
	onLoad  LoadHook

	// lastUsed is guarded by the owning Manager's mu.
	lastUsed time.Time

	mu         sync.Mutex
	loaded     bool
	draft      profile.Draft
	source     profilestore.Source
	resumeText string
	busy       bool
	dirty      bool
	version    uint64
}

func newEditor(userID string, gateway *profilestore.Gateway, onLoad LoadHook) *Editor {
	return &Editor{userID: userID, gateway: gateway, onLoad: onLoad, draft: profile.Empty()}
}

// ensureLoaded must be called with mu held.
func (e *Editor) ensureLoaded(ctx context.Context) {
	if e.loaded {
		return
	}
	e.loadLocked(ctx)
}

func (e *Editor) loadLocked(ctx context.Context) {
	if e.gateway == nil {
		e.draft = profile.Empty()
		e.source = profilestore.SourceDefault
	} else {
		out := e.gateway.Load(ctx, e.userID)
		e.draft = out.Draft
		e.source = out.Source
	}
	if e.onLoad != nil {
		e.draft = e.onLoad(ctx, e.draft)
	}
	e.loaded = true
	e.dirty = false
}

func (e *Editor) snapshotLocked() Snapshot {
	return Snapshot{
		Draft:      e.draft,
		ResumeText: e.resumeText,
		Source:     e.source,
		version:    e.version,
	}
}

// markDirtyLocked records an unsaved change. mu must be held.
func (e *Editor) markDirtyLocked() {
	e.dirty = true
	e.version++
}

// markSavedLocked clears dirty when nothing changed since snap was taken.
// mu must be held.
func (e *Editor) markSavedLocked(snap Snapshot) {
	if e.version == snap.version {
		e.dirty = false
	}
}

// Snapshot returns the current state, loading it on first use.
func (e *Editor) Snapshot(ctx context.Context) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ensureLoaded(ctx)
	return e.snapshotLocked()
}

// Reload replaces the draft with what storage holds. The pending resume
// text is kept.
func (e *Editor) Reload(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return Snapshot{}, ErrBusy
	}
	e.loadLocked(ctx)
	return e.snapshotLocked(), nil
}

// Update applies fn to the current draft. A failing fn leaves the draft as
// it was. The result always has its skills cleaned.
func (e *Editor) Update(ctx context.Context, fn func(profile.Draft) (profile.Draft, error)) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ensureLoaded(ctx)
	next, err := fn(e.draft)
	if err != nil {
		return e.snapshotLocked(), err
	}
	e.draft = next.Normalize().CleanSkills()
	e.markDirtyLocked()
	return e.snapshotLocked(), nil
}

// SetResumeText replaces the pending resume text.
func (e *Editor) SetResumeText(ctx context.Context, text string) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ensureLoaded(ctx)
	e.resumeText = text
	e.markDirtyLocked()
	return e.snapshotLocked()
}

// begin marks a pipeline step as running. The caller must call end.
func (e *Editor) begin(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ensureLoaded(ctx)
	if e.busy {
		return Snapshot{}, ErrBusy
	}
	e.busy = true
	return e.snapshotLocked(), nil
}

func (e *Editor) end() {
	e.mu.Lock()
	e.busy = false
	e.mu.Unlock()
}

// evictable reports whether the editor can be dropped at now. An editor
// that is locked or running a step is always kept.
func (e *Editor) evictable(now time.Time, idleTTL, dirtyTTL time.Duration) bool {
	if !e.mu.TryLock() {
		return false
	}
	defer e.mu.Unlock()
	if e.busy {
		return false
	}
	ttl := idleTTL
	if e.dirty || e.resumeText != "" {
		ttl = dirtyTTL
	}
	return now.Sub(e.lastUsed) >= ttl
}

const (
	// DefaultIdleTTL is how long a saved, untouched editor stays in memory.
	DefaultIdleTTL = 30 * time.Minute
	// DefaultDirtyTTL bounds how long unsaved edits are held for an idle user.
	DefaultDirtyTTL = 24 * time.Hour

	sweepInterval = time.Minute
)

// Manager hands out one Editor per user. Idle editors are dropped on a
// periodic sweep run from Editor; the next access reloads from storage.
type Manager struct {
	gateway *profilestore.Gateway

	// OnLoad runs on every draft read from storage.
	OnLoad   LoadHook
	IdleTTL  time.Duration
	DirtyTTL time.Duration
	Now      func() time.Time

	mu        sync.Mutex
	editors   map[string]*Editor
	lastSweep time.Time
}

func NewManager(gateway *profilestore.Gateway) *Manager {
	return &Manager{
		gateway:  gateway,
		IdleTTL:  DefaultIdleTTL,
		DirtyTTL: DefaultDirtyTTL,
		Now:      time.Now,
		editors:  make(map[string]*Editor),
	}
}

// Editor returns the user's editor. The draft is loaded lazily.
func (m *Manager) Editor(userID string) *Editor {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if now.Sub(m.lastSweep) >= sweepInterval {
		m.sweepLocked(now)
		m.lastSweep = now
	}
	e, ok := m.editors[userID]
	if !ok {
		e = newEditor(userID, m.gateway, m.OnLoad)
		m.editors[userID] = e
	}
	e.lastUsed = now
	return e
}

// Evict drops every idle editor now and returns how many were dropped.
func (m *Manager) Evict() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.now())
}

// Len is the number of editors held.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.editors)
}

func (m *Manager) sweepLocked(now time.Time) int {
	dropped := 0
	for id, e := range m.editors {
		if e.evictable(now, m.IdleTTL, m.DirtyTTL) {
			delete(m.editors, id)
			dropped++
		}
	}
	return dropped
}

func (m *Manager) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}
