package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestOnlyLastTaskRuns(t *testing.T) {
	d := New(30 * time.Millisecond)
	var last atomic.Int64
	var runs atomic.Int32
	done := make(chan struct{}, 10)

	for i := 1; i <= 5; i++ {
		v := int64(i)
		d.Schedule(func() {
			last.Store(v)
			runs.Add(1)
			done <- struct{}{}
		})
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced task never ran")
	}
	// Give any stale timer a chance to misfire.
	time.Sleep(60 * time.Millisecond)

	if runs.Load() != 1 {
		t.Fatalf("expected exactly one run, got %d", runs.Load())
	}
	if last.Load() != 5 {
		t.Fatalf("expected last value 5, got %d", last.Load())
	}
	if d.Pending() {
		t.Fatal("nothing should be pending after the run")
	}
}

func TestFlushRunsImmediately(t *testing.T) {
	d := New(time.Hour)
	var ran atomic.Bool
	d.Schedule(func() { ran.Store(true) })

	if !d.Pending() {
		t.Fatal("expected pending task")
	}
	if !d.Flush() {
		t.Fatal("flush should report a pending task")
	}
	if !ran.Load() {
		t.Fatal("flush did not run the task")
	}
	if d.Flush() {
		t.Fatal("second flush should be a no-op")
	}
}

func TestCancelDropsTask(t *testing.T) {
	d := New(10 * time.Millisecond)
	var ran atomic.Bool
	d.Schedule(func() { ran.Store(true) })
	if !d.Cancel() {
		t.Fatal("cancel should report a pending task")
	}
	time.Sleep(40 * time.Millisecond)
	if ran.Load() {
		t.Fatal("cancelled task ran")
	}
}

func TestFlushWaitsForRunningTask(t *testing.T) {
	d := New(time.Millisecond)
	started := make(chan struct{})
	release := make(chan struct{})
	var saved atomic.Bool
	d.Schedule(func() {
		close(started)
		<-release
		saved.Store(true)
	})

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced task never started")
	}
	if !d.Pending() {
		t.Fatal("a running task should still count as pending")
	}

	flushed := make(chan bool)
	go func() { flushed <- d.Flush() }()

	select {
	case <-flushed:
		t.Fatal("flush returned while the task was still running")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	select {
	case ok := <-flushed:
		if !ok {
			t.Fatal("flush should report that it waited for a task")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("flush never returned")
	}
	if !saved.Load() {
		t.Fatal("flush returned before the task finished")
	}
	if d.Pending() {
		t.Fatal("nothing should be pending after flush")
	}
}

func TestFlushRunsNewerTaskAfterRunningOne(t *testing.T) {
	d := New(time.Millisecond)
	started := make(chan struct{})
	release := make(chan struct{})
	var order []int
	var mu sync.Mutex
	record := func(v int) {
		mu.Lock()
		order = append(order, v)
		mu.Unlock()
	}

	d.Schedule(func() {
		close(started)
		<-release
		record(1)
	})
	<-started
	d.mu.Lock()
	d.delay = time.Hour
	d.mu.Unlock()
	d.Schedule(func() { record(2) })

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	if !d.Flush() {
		t.Fatal("flush should report work")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("tasks ran in order %v, want [1 2]", order)
	}
}
