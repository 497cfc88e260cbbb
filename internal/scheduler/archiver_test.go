package scheduler

import (
	"sync"
	"testing"
	"time"

	"visitpulse-http-service/internal/domain/services"
)

// stubAppointments 只实现归档方法，其余接口方法不会被调度器触碰
type stubAppointments struct {
	services.InterfaceAppointmentService

	mu       sync.Mutex
	calls    int
	archived int
	block    chan struct{}
}

func (s *stubAppointments) ArchiveExpired() (int, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	return s.archived, nil
}

func (s *stubAppointments) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestRunOnce(t *testing.T) {
	stub := &stubAppointments{archived: 3}
	archiver := NewArchiver(stub)

	archiver.RunOnce()

	if stub.callCount() != 1 {
		t.Fatalf("expected 1 archive call, got %d", stub.callCount())
	}

	archiver.RunOnce()
	if stub.callCount() != 2 {
		t.Fatalf("expected sequential runs to both execute, got %d calls", stub.callCount())
	}
}

func TestRunOnceSkipsWhileRunning(t *testing.T) {
	stub := &stubAppointments{block: make(chan struct{})}
	archiver := NewArchiver(stub)

	done := make(chan struct{})
	go func() {
		archiver.RunOnce()
		close(done)
	}()

	// 等首轮进入归档调用
	deadline := time.After(2 * time.Second)
	for stub.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("first run never reached the archive call")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	// 首轮未结束，第二轮应被跳过
	archiver.RunOnce()
	if stub.callCount() != 1 {
		t.Fatalf("expected overlapping run to be skipped, got %d calls", stub.callCount())
	}

	close(stub.block)
	<-done

	archiver.RunOnce()
	if stub.callCount() != 2 {
		t.Fatalf("expected run after completion to execute, got %d calls", stub.callCount())
	}
}

func TestNextMidnight(t *testing.T) {
	cases := []time.Time{
		time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local),
		time.Date(2024, 3, 15, 12, 30, 0, 0, time.Local),
		time.Date(2024, 3, 15, 23, 59, 59, 0, time.Local),
		time.Date(2024, 12, 31, 18, 0, 0, 0, time.Local),
	}
	for _, now := range cases {
		d := nextMidnight(now)
		if d <= 0 || d > 24*time.Hour {
			t.Errorf("nextMidnight(%v) = %v, want in (0, 24h]", now, d)
		}
		next := now.Add(d)
		if next.Hour() != 0 || next.Minute() != 0 || next.Second() != 0 {
			t.Errorf("nextMidnight(%v) lands at %v, not midnight", now, next)
		}
	}
}

func TestStartStop(t *testing.T) {
	stub := &stubAppointments{}
	archiver := NewArchiver(stub)

	archiver.Start()
	archiver.Stop()

	// 定时器对齐到零点，启停之间不应触发归档
	if stub.callCount() != 0 {
		t.Fatalf("expected no archive calls after immediate stop, got %d", stub.callCount())
	}
}
