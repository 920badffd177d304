package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/tetris/game"
	"github.com/wfunc/tetris/models"
	"github.com/wfunc/tetris/state"
	"github.com/wfunc/tetris/timer"
)

// MockRecorder 用于测试的记录器
type MockRecorder struct {
	mutex   sync.Mutex
	records []models.GameRecord
	err     error
}

func (r *MockRecorder) Record(record *models.GameRecord) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.records = append(r.records, *record)
	return r.err
}

func (r *MockRecorder) Records() []models.GameRecord {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]models.GameRecord(nil), r.records...)
}

// MockMetrics 用于测试的指标
type MockMetrics struct {
	mutex    sync.Mutex
	active   int
	commands map[game.Command]int
}

func (m *MockMetrics) IncActiveSessions() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.active++
}

func (m *MockMetrics) DecActiveSessions() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.active--
}

func (m *MockMetrics) ObserveCommand(cmd game.Command, _ time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.commands == nil {
		m.commands = make(map[game.Command]int)
	}
	m.commands[cmd]++
}

func (m *MockMetrics) Active() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.active
}

func testOptions() Options {
	return Options{Width: 10, Height: 20, QueueSize: 3, Seed: 42}
}

func submit(t *testing.T, s *Session, cmd game.Command) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Submit(ctx, cmd); err != nil {
		t.Fatalf("submit %s: %v", cmd, err)
	}
}

func tick(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
}

func TestSession_StartAndMove(t *testing.T) {
	s := NewSession("s1", "alice", testOptions())
	defer s.Close()

	if s.State() != state.IDWaiting {
		t.Fatalf("expected waiting, got %s", s.State())
	}
	if s.Snapshot().Piece != nil {
		t.Fatal("no piece expected before start")
	}

	submit(t, s, game.CmdMoveLeft) // ignored while waiting
	submit(t, s, game.CmdStart)
	if s.State() != state.IDPlaying {
		t.Fatalf("expected playing, got %s", s.State())
	}

	snap := s.Snapshot()
	if snap.Piece == nil || snap.Phase != game.Falling {
		t.Fatalf("expected a falling piece, got %+v", snap)
	}
	col := snap.Piece.Column

	submit(t, s, game.CmdMoveLeft)
	if got := s.Snapshot().Piece.Column; got != col-1 {
		t.Errorf("expected column %d, got %d", col-1, got)
	}

	row := s.Snapshot().Piece.Row
	tick(t, s)
	if got := s.Snapshot().Piece.Row; got != row-1 {
		t.Errorf("expected row %d after tick, got %d", row-1, got)
	}
}

func TestSession_PauseFreezesGravity(t *testing.T) {
	s := NewSession("s2", "bob", testOptions())
	defer s.Close()

	submit(t, s, game.CmdStart)
	submit(t, s, game.CmdPause)
	if s.State() != state.IDPaused {
		t.Fatalf("expected paused, got %s", s.State())
	}

	before := s.Snapshot().Piece
	tick(t, s)
	submit(t, s, game.CmdMoveRight)
	after := s.Snapshot().Piece
	if before.Row != after.Row || before.Column != after.Column {
		t.Errorf("piece moved while paused: %+v -> %+v", before, after)
	}

	submit(t, s, game.CmdPause)
	if s.State() != state.IDPlaying {
		t.Fatalf("expected playing after resume, got %s", s.State())
	}
}

func TestSession_UnknownCommand(t *testing.T) {
	s := NewSession("s3", "carol", testOptions())
	defer s.Close()

	submit(t, s, game.CmdStart)
	err := s.Submit(context.Background(), game.Command("hard_drop"))
	if !errors.Is(err, game.ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
	if s.State() != state.IDPlaying {
		t.Errorf("an unknown command must not change state, got %s", s.State())
	}
}

func TestSession_GameOverIsRecorded(t *testing.T) {
	recorder := &MockRecorder{}
	opts := testOptions()
	opts.Recorder = recorder
	s := NewSession("s4", "dave", opts)
	defer s.Close()

	submit(t, s, game.CmdStart)
	for i := 0; i < 10000 && s.State() != state.IDOver; i++ {
		tick(t, s)
	}
	if s.State() != state.IDOver {
		t.Fatal("game never ended")
	}

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed")
	}

	records := recorder.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.SessionID != "s4" || r.Player != "dave" || r.Seed != 42 {
		t.Errorf("unexpected record %+v", r)
	}
	if r.Locked == 0 || r.Locked != s.Snapshot().Locked {
		t.Errorf("expected %d locked pieces in record, got %d", s.Snapshot().Locked, r.Locked)
	}
	if r.EndedAt.Before(r.StartedAt) {
		t.Errorf("ended before started: %+v", r)
	}

	// Over is terminal.
	submit(t, s, game.CmdStart)
	if s.State() != state.IDOver || s.Snapshot().Phase != game.Over {
		t.Errorf("expected over, got %s", s.State())
	}
}

func TestSession_SameSeedSamePieces(t *testing.T) {
	a := NewSession("a", "p", testOptions())
	b := NewSession("b", "p", testOptions())
	defer a.Close()
	defer b.Close()

	submit(t, a, game.CmdStart)
	submit(t, b, game.CmdStart)
	for i := 0; i < 50; i++ {
		tick(t, a)
		tick(t, b)
	}
	sa, sb := a.Snapshot(), b.Snapshot()
	if sa.Locked != sb.Locked || len(sa.Next) != len(sb.Next) {
		t.Fatalf("sessions diverged: %d/%d locked", sa.Locked, sb.Locked)
	}
	for i := range sa.Next {
		if sa.Next[i] != sb.Next[i] {
			t.Errorf("next[%d]: %s vs %s", i, sa.Next[i], sb.Next[i])
		}
	}
}

func TestSession_GravityTimer(t *testing.T) {
	timers := timer.NewTimerManager(time.Millisecond)
	defer timers.Stop()

	opts := testOptions()
	opts.Timers = timers
	opts.GravityInterval = 5 * time.Millisecond
	s := NewSession("g", "p", opts)
	defer s.Close()

	submit(t, s, game.CmdStart)
	start := s.Snapshot().Piece.Row

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p := s.Snapshot().Piece; p == nil || p.Row < start || s.Snapshot().Locked > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	snap := s.Snapshot()
	if snap.Piece != nil && snap.Piece.Row >= start && snap.Locked == 0 {
		t.Fatal("gravity did not move the piece")
	}

	submit(t, s, game.CmdPause)
	if timers.Len() != 0 {
		t.Errorf("expected gravity timer removed on pause, %d left", timers.Len())
	}
}

func TestSession_Close(t *testing.T) {
	metrics := &MockMetrics{}
	opts := testOptions()
	opts.Metrics = metrics
	s := NewSession("c", "p", opts)
	if metrics.Active() != 1 {
		t.Fatalf("expected 1 active session, got %d", metrics.Active())
	}

	submit(t, s, game.CmdStart)
	s.Close()
	s.Close()

	if err := s.Submit(context.Background(), game.CmdMoveLeft); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	if metrics.Active() != 0 {
		t.Errorf("expected 0 active sessions, got %d", metrics.Active())
	}
}

func TestSession_SubmitHonoursContext(t *testing.T) {
	s := NewSession("ctx", "p", testOptions())
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Either the request was queued and answered, or the context won.
	if err := s.Submit(ctx, game.CmdStart); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestManager(t *testing.T) {
	metrics := &MockMetrics{}
	opts := testOptions()
	opts.Metrics = metrics
	m := NewManager(opts)

	a := m.Create("alice")
	b := m.Create("bob")
	if a.ID == b.ID || a.ID == "" {
		t.Fatalf("expected distinct ids, got %q and %q", a.ID, b.ID)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", m.Len())
	}

	got, ok := m.Get(a.ID)
	if !ok || got != a {
		t.Fatal("session lookup failed")
	}

	if err := m.Submit(context.Background(), a.ID, game.CmdStart); err != nil {
		t.Fatal(err)
	}
	if a.State() != state.IDPlaying {
		t.Errorf("expected playing, got %s", a.State())
	}
	if err := m.Submit(context.Background(), "nope", game.CmdStart); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	m.Remove(a.ID)
	if _, ok := m.Get(a.ID); ok {
		t.Error("removed session still present")
	}
	if err := a.Submit(context.Background(), game.CmdMoveLeft); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}

	m.CloseAll()
	if m.Len() != 0 || metrics.Active() != 0 {
		t.Errorf("expected everything closed, len=%d active=%d", m.Len(), metrics.Active())
	}
}
