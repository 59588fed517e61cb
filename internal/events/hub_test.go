package events

import (
	"testing"
	"time"

	"github.com/cesargomez89/versecache/internal/constants"
	"github.com/cesargomez89/versecache/internal/domain"
)

func TestHub_PublishSubscribe(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe()
	defer cancel()

	task := &domain.DownloadTask{ID: "t1", Status: domain.TaskStatusPending}
	hub.PublishTask(task, "queued Genesis")

	event := <-ch
	if event.Kind != KindTask {
		t.Errorf("Expected task event, got %s", event.Kind)
	}
	if event.Task == nil || event.Task.ID != "t1" {
		t.Errorf("Unexpected task payload: %+v", event.Task)
	}
	if event.At.IsZero() {
		t.Error("Expected event timestamp to be set")
	}

	progress := <-ch
	if progress.Kind != KindProgress || progress.Message != "queued Genesis" {
		t.Errorf("Unexpected progress event: %+v", progress)
	}
}

func TestHub_KindFilter(t *testing.T) {
	hub := NewHub()

	taskCh, cancelTasks := hub.Subscribe(KindTask)
	defer cancelTasks()
	progressCh, cancelProgress := hub.Subscribe(KindProgress)
	defer cancelProgress()

	hub.PublishTask(&domain.DownloadTask{ID: "t1"}, "working")

	event := <-taskCh
	if event.Kind != KindTask {
		t.Errorf("Expected only task events on task stream, got %s", event.Kind)
	}
	select {
	case extra := <-taskCh:
		t.Errorf("Expected no further events on task stream, got %s", extra.Kind)
	default:
	}

	progress := <-progressCh
	if progress.Kind != KindProgress {
		t.Errorf("Expected only progress events on progress stream, got %s", progress.Kind)
	}
}

func TestHub_PublishedTaskIsSnapshot(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe(KindTask)
	defer cancel()

	task := &domain.DownloadTask{ID: "t1", Progress: 10}
	hub.PublishTask(task, "")

	// Mutating the original after publish must not affect the event
	task.Progress = 90

	event := <-ch
	if event.Task.Progress != 10 {
		t.Errorf("Expected snapshot progress 10, got %f", event.Task.Progress)
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()

	_, cancel := hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Overflow the buffer; publishes must drop, not stall
		for i := 0; i < constants.SubscriberBuffer*2; i++ {
			hub.Publish(Event{Kind: KindProgress, Message: "tick"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestHub_Cancel(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe()
	if hub.SubscriberCount() != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", hub.SubscriberCount())
	}

	cancel()
	if hub.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers after cancel, got %d", hub.SubscriberCount())
	}

	if _, open := <-ch; open {
		t.Error("Expected channel to be closed after cancel")
	}

	// Cancel is idempotent
	cancel()
}
