package load

import (
	"sync"
	"testing"
)

// recorder is a drain target that remembers the order of loads.
type recorder struct {
	loaded []string
}

// testPayload records what happened to it.
type testPayload struct {
	name     string
	err      error
	loads    int
	discards int
	onLoad   func()
}

func (p *testPayload) Load(r *recorder) error {
	p.loads++
	if p.onLoad != nil {
		p.onLoad()
	}
	if p.err != nil {
		return p.err
	}
	r.loaded = append(r.loaded, p.name)
	return nil
}

func (p *testPayload) Discard() { p.discards++ }

func TestPendingRefCount(t *testing.T) {
	payload := &testPayload{name: "a"}
	p := NewPending[*recorder](payload)
	if got := p.RefCount(); got != 1 {
		t.Fatalf("RefCount() = %d, want 1", got)
	}

	c1 := p.Clone()
	c2 := c1.Clone()
	if got := p.RefCount(); got != 3 {
		t.Errorf("RefCount() after two clones = %d, want 3", got)
	}
	if c2.RefCount() != p.RefCount() {
		t.Error("clones disagree on the reference count")
	}

	c1.Release()
	if got := p.RefCount(); got != 2 {
		t.Errorf("RefCount() after release = %d, want 2", got)
	}
	if got := c1.RefCount(); got != 0 {
		t.Errorf("released handle RefCount() = %d, want 0", got)
	}
	c1.Release() // no-op on an emptied handle
	if got := p.RefCount(); got != 2 {
		t.Errorf("double release changed RefCount() to %d", got)
	}
	if payload.discards != 0 {
		t.Errorf("payload discarded with live references")
	}
}

func TestPendingTake(t *testing.T) {
	p := NewPending[*recorder](&testPayload{})
	q := p.Take()
	if !p.Empty() {
		t.Error("source not empty after Take()")
	}
	if got := p.RefCount(); got != 0 {
		t.Errorf("source RefCount() = %d, want 0", got)
	}
	if got := q.RefCount(); got != 1 {
		t.Errorf("destination RefCount() = %d, want 1 (move must not increment)", got)
	}
}

func TestPendingReleaseLastDiscards(t *testing.T) {
	payload := &testPayload{}
	p := NewPending[*recorder](payload)
	c := p.Clone()
	p.Release()
	if payload.discards != 0 {
		t.Fatal("discarded while a clone is alive")
	}
	c.Release()
	if payload.discards != 1 {
		t.Errorf("discards = %d, want 1", payload.discards)
	}
	if payload.loads != 0 {
		t.Errorf("loads = %d, want 0", payload.loads)
	}
}

func TestPendingEmptyIsInert(t *testing.T) {
	var nilPending *Pending[*recorder]
	zero := &Pending[*recorder]{}
	for name, p := range map[string]*Pending[*recorder]{"nil": nilPending, "zero": zero} {
		t.Run(name, func(t *testing.T) {
			if !p.Empty() {
				t.Error("Empty() = false")
			}
			if p.RefCount() != 0 || p.Queued() || p.Settled() || p.Payload() != nil {
				t.Error("empty handle reports state")
			}
			p.Release()
			if c := p.Clone(); !c.Empty() {
				t.Error("Clone() of empty handle is not empty")
			}
			if m := p.Take(); !m.Empty() {
				t.Error("Take() of empty handle is not empty")
			}
		})
	}
}

func TestPendingConcurrentClones(t *testing.T) {
	payload := &testPayload{}
	p := NewPending[*recorder](payload)

	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := p.Clone()
			c.Release()
		}()
	}
	wg.Wait()

	if got := p.RefCount(); got != 1 {
		t.Errorf("RefCount() = %d, want 1", got)
	}
	if payload.discards != 0 {
		t.Errorf("discards = %d, want 0", payload.discards)
	}
	p.Release()
	if payload.discards != 1 {
		t.Errorf("discards = %d, want 1", payload.discards)
	}
}
