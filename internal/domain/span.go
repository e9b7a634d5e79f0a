package domain

import (
	"context"
	"encoding/json"
	"time"
)

// RunState is the phase a report run is in. Transitions are logged and
// timed as spans on the run profile.
type RunState string

const (
	RunState_Idle                 RunState = "Idle"
	RunState_FetchingInput        RunState = "FetchingInput"
	RunState_ProcessingBatch      RunState = "ProcessingBatch"
	RunState_WaitingForRateWindow RunState = "WaitingForRateWindow"
	RunState_Rendering            RunState = "Rendering"
	RunState_Delivering           RunState = "Delivering"
	RunState_Done                 RunState = "Done"
	RunState_InputFailed          RunState = "InputFailed"
)

type Span struct {
	Name    string    `json:"name"`
	startTs time.Time `json:"-"`
	Elapsed *int64    `json:"elapsedMs"`
}

func (s *Span) End() {
	if s.Elapsed == nil {
		t := time.Since(s.startTs).Milliseconds()
		s.Elapsed = &t
	}
}

type contextKey string

const ContextProfileKey contextKey = "runProfile"

// Profile is the ordered list of phase spans for one run. Not thread safe,
// a run has a single thread of control.
type Profile struct {
	Spans   []*Span `json:"spans"`
	startTs time.Time
	TotalMs *int64 `json:"totalMs"`
}

func NewProfile() (newProfile *Profile, endNewProfile func()) {
	newProfile = &Profile{
		Spans:   []*Span{},
		startTs: time.Now(),
	}
	return newProfile, newProfile.End
}

func (p *Profile) End() {
	if len(p.Spans) > 0 {
		p.Spans[len(p.Spans)-1].End()
	}
	t := time.Since(p.startTs).Milliseconds()
	if p.TotalMs == nil {
		p.TotalMs = &t
	}
}

// StartNewSpan ends the last span and begins a new one
func (p *Profile) StartNewSpan(name string) (newSpan *Span, endSpan func()) {
	newSpan = &Span{
		Name:    name,
		startTs: time.Now(),
	}
	if len(p.Spans) > 0 {
		p.Spans[len(p.Spans)-1].End()
	}
	p.Spans = append(p.Spans, newSpan)
	return newSpan, newSpan.End
}

func (p *Profile) ToJsonBytes() ([]byte, error) {
	bytes, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

func ContextWithProfile(ctx context.Context, p *Profile) context.Context {
	return context.WithValue(ctx, ContextProfileKey, p)
}

// ProfileFromContext returns the run profile, or a detached one so callers
// never need a nil check.
func ProfileFromContext(ctx context.Context) *Profile {
	if p, ok := ctx.Value(ContextProfileKey).(*Profile); ok {
		return p
	}
	p, _ := NewProfile()
	return p
}
