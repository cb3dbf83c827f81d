package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/mosoverlay/internal/audio"
	"github.com/jmylchreest/mosoverlay/internal/catalog"
	"github.com/jmylchreest/mosoverlay/internal/ipc"
	"github.com/jmylchreest/mosoverlay/internal/menu"
	"github.com/jmylchreest/mosoverlay/internal/process"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeView struct {
	calls   []string
	applied []menu.Snapshot
	done    func(bool)
}

func (v *fakeView) Highlight(prev, next int) { v.calls = append(v.calls, "highlight") }
func (v *fakeView) EnsureVisible(int)        { v.calls = append(v.calls, "ensure") }
func (v *fakeView) ScrollToTop()             { v.calls = append(v.calls, "top") }
func (v *fakeView) Present()                 { v.calls = append(v.calls, "present") }
func (v *fakeView) Withdraw()                { v.calls = append(v.calls, "withdraw") }
func (v *fakeView) Focus()                   { v.calls = append(v.calls, "focus") }
func (v *fakeView) Quit()                    { v.calls = append(v.calls, "quit") }
func (v *fakeView) Apply(snap menu.Snapshot) { v.applied = append(v.applied, snap) }
func (v *fakeView) Confirm(_ string, done func(bool)) {
	v.calls = append(v.calls, "confirm")
	v.done = done
}

type queueScheduler struct {
	ch chan func()
}

func newQueueScheduler() *queueScheduler { return &queueScheduler{ch: make(chan func(), 16)} }

func (q *queueScheduler) Post(fn func()) { q.ch <- fn }

func (q *queueScheduler) next(t *testing.T) {
	t.Helper()
	select {
	case fn := <-q.ch:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("nothing posted")
	}
}

type fakeSounds struct{ cues []audio.Cue }

func (s *fakeSounds) Play(c audio.Cue) { s.cues = append(s.cues, c) }

type nopRunner struct{}

func (nopRunner) Start(process.Command) (process.Process, error) { return nil, process.ErrEmptyCommand }
func (nopRunner) Run(context.Context, process.Command) error       { return nil }

type fixture struct {
	ctrl   *Controller
	view   *fakeView
	sched  *queueScheduler
	sounds *fakeSounds
	reads  *atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reads := new(atomic.Int32)
	f := newFixtureWith(t,
		menu.Header("SYSTEM"),
		menu.Action("Leave", func() menu.Effect { return menu.Hide{} }),
		menu.Action("Volume", func() menu.Effect { return menu.None{} },
			menu.WithTag(catalog.TagVolume),
			menu.WithDescriber(func() string {
				reads.Add(1)
				return "Volume: 40%"
			})),
		menu.Action("Quit", func() menu.Effect { return menu.Exit{} }),
	)
	f.reads = reads
	return f
}

func newFixtureWith(t *testing.T, items ...menu.Item) *fixture {
	t.Helper()
	m, err := menu.New(items, menu.Clamp)
	require.NoError(t, err)

	f := &fixture{
		view:   &fakeView{},
		sched:  newQueueScheduler(),
		sounds: &fakeSounds{},
		reads:  new(atomic.Int32),
	}
	f.ctrl = New(Options{
		Menu:      m,
		View:      f.view,
		Scheduler: f.sched,
		Runner:    nopRunner{},
		Sounds:    f.sounds,
		Logger:    testLogger(),
	})
	return f
}

func TestShowResetsAndRefreshes(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Menu().Move(2)

	f.view.calls = nil
	f.ctrl.Show()

	assert.True(t, f.ctrl.Visible())
	assert.Equal(t, 0, f.ctrl.Menu().Index())
	assert.Equal(t, []string{"highlight", "top", "present"}, f.view.calls)

	f.sched.next(t)
	require.Len(t, f.view.applied, 1)
	assert.Equal(t, "Volume: 40%", f.view.applied[0].Descriptions[1])

	f.view.calls = nil
	f.ctrl.Show()
	assert.Empty(t, f.view.calls, "showing twice should do nothing")
}

func TestToggle(t *testing.T) {
	f := newFixture(t)

	f.ctrl.Toggle()
	assert.True(t, f.ctrl.Visible())
	f.ctrl.Toggle()
	assert.False(t, f.ctrl.Visible())
	assert.Contains(t, f.view.calls, "withdraw")
	assert.Equal(t, []audio.Cue{audio.CueToggle, audio.CueToggle}, f.sounds.cues)

	f.ctrl.Wait()
}

func TestMovePlaysOnlyOnChange(t *testing.T) {
	f := newFixture(t)

	f.ctrl.Move(-1)
	assert.Empty(t, f.sounds.cues)
	f.ctrl.Move(1)
	assert.Equal(t, []audio.Cue{audio.CueMove}, f.sounds.cues)
}

func TestActivateDispatches(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Show()
	f.sched.next(t)

	f.ctrl.Activate() // Leave
	assert.False(t, f.ctrl.Visible())
	assert.Contains(t, f.view.calls, "withdraw")

	f.ctrl.Select(2)
	f.ctrl.Activate() // Quit
	assert.Equal(t, "quit", f.view.calls[len(f.view.calls)-1])
	assert.Equal(t, audio.CueActivate, f.sounds.cues[len(f.sounds.cues)-1])
}

func TestRefreshCoalescesPerTag(t *testing.T) {
	f := newFixture(t)

	f.ctrl.Refresh(catalog.TagVolume)
	f.ctrl.Refresh(catalog.TagVolume)
	f.ctrl.Refresh(catalog.TagVolume)
	f.sched.next(t)
	assert.Len(t, f.view.applied, 1)

	// The queued requests collapse into a single follow-up read.
	f.sched.next(t)
	assert.Len(t, f.view.applied, 2)
	select {
	case <-f.sched.ch:
		t.Fatal("queued refreshes should have coalesced")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, int32(2), f.reads.Load())

	f.ctrl.Refresh(catalog.TagVolume)
	f.sched.next(t)
	assert.Equal(t, int32(3), f.reads.Load())
	assert.Len(t, f.view.applied, 3)
}

func TestRefreshRereadsChangeDuringRead(t *testing.T) {
	var level atomic.Int32
	level.Store(40)
	var blocked atomic.Bool
	blocked.Store(true)
	entered := make(chan struct{})
	release := make(chan struct{})

	f := newFixtureWith(t,
		menu.Action("Volume", func() menu.Effect { return menu.None{} },
			menu.WithTag(catalog.TagVolume),
			menu.WithDescriber(func() string {
				v := level.Load()
				if blocked.CompareAndSwap(true, false) {
					close(entered)
					<-release
				}
				return fmt.Sprintf("Volume: %d%%", v)
			})),
	)

	f.ctrl.Refresh(catalog.TagVolume)
	<-entered

	// A step finishes while the first read is still in progress.
	level.Store(45)
	f.ctrl.Refresh(catalog.TagVolume)
	close(release)

	f.sched.next(t)
	f.sched.next(t)
	require.Len(t, f.view.applied, 2)
	assert.Equal(t, "Volume: 40%", f.view.applied[0].Descriptions[0])
	assert.Equal(t, "Volume: 45%", f.view.applied[1].Descriptions[0])
}

func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "mos")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func TestServeTogglesOnRequest(t *testing.T) {
	f := newFixture(t)
	path := socketPath(t)
	srv, err := ipc.Listen(path, testLogger())
	require.NoError(t, err)
	defer func() { _ = srv.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- f.ctrl.Serve(ctx, ServeOptions{
			Listener:        srv,
			PollTimeout:     20 * time.Millisecond,
			RefreshInterval: time.Hour,
			RevealDelay:     -1,
		})
	}()

	require.NoError(t, ipc.SendToggle(path))
	f.sched.next(t)
	assert.True(t, f.ctrl.Visible())

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestServeRevealsAfterDelay(t *testing.T) {
	f := newFixture(t)
	srv, err := ipc.Listen(socketPath(t), testLogger())
	require.NoError(t, err)
	defer func() { _ = srv.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = f.ctrl.Serve(ctx, ServeOptions{
			Listener:        srv,
			PollTimeout:     20 * time.Millisecond,
			RefreshInterval: time.Hour,
			RevealDelay:     10 * time.Millisecond,
		})
	}()

	f.sched.next(t)
	assert.True(t, f.ctrl.Visible())
}

func TestServeRefreshesOnMarkerChange(t *testing.T) {
	f := newFixture(t)
	srv, err := ipc.Listen(socketPath(t), testLogger())
	require.NoError(t, err)
	defer func() { _ = srv.Close() }()

	marker := filepath.Join(t.TempDir(), "nightlight_state")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = f.ctrl.Serve(ctx, ServeOptions{
			Listener:        srv,
			PollTimeout:     20 * time.Millisecond,
			RefreshInterval: time.Hour,
			RevealDelay:     -1,
			NightMarker:     marker,
		})
	}()

	// Give the watcher time to attach to the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(marker, nil, 0o644))

	deadline := time.Now().Add(2 * time.Second)
	for len(f.view.applied) == 0 && time.Now().Before(deadline) {
		f.sched.next(t)
	}
	require.NotEmpty(t, f.view.applied)
	assert.Empty(t, f.view.applied[0].Descriptions, "no item carries the night tag")
}
