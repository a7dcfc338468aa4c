package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/actasweb/api/internal/model"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := &model.Job{ID: "j1", Status: model.JobStatusQueued, VideoFilename: "m.mp4"}
	if err := s.Save(ctx, job); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.JobStatusQueued || got.VideoFilename != "m.mp4" {
		t.Errorf("got %+v, want saved job back", got)
	}

	// The returned record is a snapshot; mutating it must not touch the store.
	got.Status = model.JobStatusFailed
	again, _ := s.Get(ctx, "j1")
	if again.Status != model.JobStatusQueued {
		t.Error("store leaked a mutable reference")
	}
}

func TestMemoryStoreUnknownID(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "ghost"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
}

// A reader polling during transitions must always see a consistent record:
// completed implies result present, failed implies error present.
func TestMemoryStoreNoTornReads(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Save(ctx, &model.Job{ID: "j1", Status: model.JobStatusProcessing})

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		result := &model.ProcessingResult{Language: "es"}
		_ = s.Save(ctx, &model.Job{ID: "j1", Status: model.JobStatusCompleted, Result: result})
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			job, err := s.Get(ctx, "j1")
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			if job.Status == model.JobStatusCompleted && job.Result == nil {
				t.Error("observed completed job without result")
				return
			}
		}
	}()

	wg.Wait()
}
