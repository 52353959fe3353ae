// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/mesh"
)

// recordHandler keeps every record it handles.
type recordHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h *recordHandler) WithGroup(string) slog.Handler             { return h }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.records = append(h.records, r)
	h.mu.Unlock()
	return nil
}

func (h *recordHandler) level(msg string) (slog.Level, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if r.Message == msg {
			return r.Level, true
		}
	}
	return 0, false
}

func TestUploadLogLevels(t *testing.T) {
	orig := g3d.Logger()
	t.Cleanup(func() { g3d.SetLogger(orig) })
	h := &recordHandler{}
	g3d.SetLogger(slog.New(h))

	c := newTestContext(t, WithDevice(NewHeadlessDevice()))

	gone := NewMeshUpload(NewGeometryBuffer("gone"), mesh.UnitBox())
	c.Enqueue(gone)
	gone.Release()

	bad := NewMeshUpload(NewGeometryBuffer("bad"), &mesh.Mesh{})
	c.Enqueue(bad)
	defer bad.Release()

	if _, err := c.Flush(); err == nil {
		t.Fatal("Flush of an invalid mesh succeeded")
	}

	tests := []struct {
		msg  string
		want slog.Level
	}{
		{"render: geometry upload discarded", slog.LevelDebug},
		{"load: upload failed", slog.LevelWarn},
		{"render: context flushed", slog.LevelInfo},
	}
	for _, tt := range tests {
		got, ok := h.level(tt.msg)
		if !ok {
			t.Errorf("no %q record", tt.msg)
			continue
		}
		if got != tt.want {
			t.Errorf("level of %q = %v, want %v", tt.msg, got, tt.want)
		}
	}
}
