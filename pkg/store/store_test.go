package store

import (
	"context"
	"testing"
	"time"

	"github.com/michaelzixizhou/codag/pkg/errors"
	"github.com/michaelzixizhou/codag/pkg/graph"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, "abc"); errors.GetCode(err) != errors.ErrCodeLayoutNotFound {
		t.Fatalf("Get on empty store: code = %s, want %s", errors.GetCode(err), errors.ErrCodeLayoutNotFound)
	}
	if _, err := s.Latest(ctx); errors.GetCode(err) != errors.ErrCodeLayoutNotFound {
		t.Fatalf("Latest on empty store: code = %s", errors.GetCode(err))
	}

	layout := &graph.Layout{Width: 800, Height: 600}
	if err := s.Save(ctx, &Record{Hash: "abc", Layout: layout}); err != nil {
		t.Fatal(err)
	}

	rec, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Layout.Width != 800 {
		t.Errorf("Width = %v, want 800", rec.Layout.Width)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestMemoryStoreLatest(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, h := range []string{"first", "second", "third"} {
		if err := s.Save(ctx, &Record{Hash: h, Layout: &graph.Layout{}}); err != nil {
			t.Fatal(err)
		}
	}

	rec, err := s.Latest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Hash != "third" {
		t.Errorf("Latest = %s, want third", rec.Hash)
	}
}

func TestMemoryStoreUpsert(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.Save(ctx, &Record{Hash: "abc", Layout: &graph.Layout{Width: 100}, CreatedAt: old}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, &Record{Hash: "abc", Layout: &graph.Layout{Width: 200}}); err != nil {
		t.Fatal(err)
	}

	rec, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Layout.Width != 200 {
		t.Errorf("Width = %v, want 200 after upsert", rec.Layout.Width)
	}
}

func TestMemoryStoreRejectsEmptyHash(t *testing.T) {
	s := NewMemoryStore()
	err := s.Save(context.Background(), &Record{Layout: &graph.Layout{}})
	if errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidInput)
	}
}
