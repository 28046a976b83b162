package timer_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/timer"
)

var t0 = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func TestTimer_StartsIdle(t *testing.T) {
	tm := timer.New(timer.DefaultConfig())

	s := tm.Snapshot(t0)
	assert.Equal(t, timer.PhaseIdle, s.Phase)
	assert.False(t, s.Running)
	assert.Nil(t, s.EndsAt)
	assert.Zero(t, s.RemainingSeconds)
}

func TestTimer_FocusCountsDown(t *testing.T) {
	tm := timer.New(timer.DefaultConfig())
	require.NoError(t, tm.Start(t0))

	s := tm.Snapshot(t0.Add(10 * time.Minute))
	assert.Equal(t, timer.PhaseFocus, s.Phase)
	assert.True(t, s.Running)
	assert.Equal(t, int64(15*60), s.RemainingSeconds)
	require.NotNil(t, s.EndsAt)
	assert.Equal(t, t0.Add(25*time.Minute), *s.EndsAt)

	assert.ErrorIs(t, tm.Start(t0.Add(11*time.Minute)), timer.ErrAlreadyRunning)
}

func TestTimer_PauseAndResume(t *testing.T) {
	tm := timer.New(timer.DefaultConfig())
	require.NoError(t, tm.Start(t0))
	require.NoError(t, tm.Pause(t0.Add(5*time.Minute)))

	// Time spent paused does not count.
	s := tm.Snapshot(t0.Add(time.Hour))
	assert.False(t, s.Running)
	assert.Equal(t, timer.PhaseFocus, s.Phase)
	assert.Equal(t, int64(20*60), s.RemainingSeconds)

	assert.ErrorIs(t, tm.Pause(t0.Add(time.Hour)), timer.ErrNotRunning)
	require.NoError(t, tm.Resume(t0.Add(time.Hour)))
	assert.ErrorIs(t, tm.Resume(t0.Add(time.Hour)), timer.ErrNotPaused)

	s = tm.Snapshot(t0.Add(time.Hour + 20*time.Minute))
	assert.Equal(t, timer.PhaseShortBreak, s.Phase)
	assert.Equal(t, 1, s.CompletedFocus)
}

func TestTimer_StartResumesPausedTimer(t *testing.T) {
	tm := timer.New(timer.DefaultConfig())
	require.NoError(t, tm.Start(t0))
	require.NoError(t, tm.Pause(t0.Add(time.Minute)))

	require.NoError(t, tm.Start(t0.Add(2*time.Minute)))

	s := tm.Snapshot(t0.Add(2 * time.Minute))
	assert.True(t, s.Running)
	assert.Equal(t, int64(24*60), s.RemainingSeconds)
}

func TestTimer_LongBreakAfterFourFocusSessions(t *testing.T) {
	tm := timer.New(timer.DefaultConfig())
	require.NoError(t, tm.Start(t0))

	// Three rounds of focus plus short break, then a fourth focus.
	elapsed := 3*(25+5)*time.Minute + 25*time.Minute
	s := tm.Snapshot(t0.Add(elapsed))

	assert.Equal(t, timer.PhaseLongBreak, s.Phase)
	assert.Equal(t, 4, s.CompletedFocus)
	assert.Equal(t, int64(15*60), s.RemainingSeconds)

	s = tm.Snapshot(t0.Add(elapsed + 15*time.Minute))
	assert.Equal(t, timer.PhaseFocus, s.Phase)
}

func TestTimer_Skip(t *testing.T) {
	tm := timer.New(timer.DefaultConfig())
	assert.ErrorIs(t, tm.Skip(t0), timer.ErrIdle)

	require.NoError(t, tm.Start(t0))
	require.NoError(t, tm.Skip(t0.Add(time.Minute)))

	s := tm.Snapshot(t0.Add(time.Minute))
	assert.Equal(t, timer.PhaseShortBreak, s.Phase)
	assert.Equal(t, 1, s.CompletedFocus)
	assert.Equal(t, int64(5*60), s.RemainingSeconds)

	require.NoError(t, tm.Skip(t0.Add(2*time.Minute)))
	assert.Equal(t, timer.PhaseFocus, tm.Snapshot(t0.Add(2*time.Minute)).Phase)
}

func TestTimer_Reset(t *testing.T) {
	tm := timer.New(timer.DefaultConfig())
	require.NoError(t, tm.Start(t0))
	require.NoError(t, tm.Skip(t0))

	tm.Reset()

	s := tm.Snapshot(t0)
	assert.Equal(t, timer.Snapshot{Phase: timer.PhaseIdle}, s)
	assert.ErrorIs(t, tm.Resume(t0), timer.ErrIdle)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, timer.DefaultConfig().Validate())

	err := timer.Config{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "focus duration")
	assert.Contains(t, err.Error(), "long break interval")
}

func TestManager(t *testing.T) {
	m, err := timer.NewManager(timer.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, timer.PhaseIdle, m.Snapshot("alice", t0).Phase)
	assert.Zero(t, m.Len(), "reading does not create timers")

	s, err := m.Apply("alice", timer.ActionStart, t0)
	require.NoError(t, err)
	assert.Equal(t, timer.PhaseFocus, s.Phase)

	_, err = m.Apply("alice", timer.ActionResume, t0)
	assert.ErrorIs(t, err, timer.ErrNotPaused)

	assert.Equal(t, timer.PhaseIdle, m.Snapshot("bob", t0).Phase, "timers are independent")

	s, err = m.Apply("alice", timer.ActionReset, t0)
	require.NoError(t, err)
	assert.Equal(t, timer.PhaseIdle, s.Phase)

	_, err = m.Apply("alice", timer.Action("explode"), t0)
	assert.ErrorIs(t, err, timer.ErrUnknownAction)

	assert.True(t, m.Remove("alice"))
	assert.False(t, m.Remove("alice"))
	assert.Zero(t, m.Len())
}

func TestManager_RejectedActionsKeepNoTimer(t *testing.T) {
	m, err := timer.NewManager(timer.DefaultConfig())
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("session-%d", i)
		_, err := m.Apply(id, timer.ActionPause, t0)
		assert.ErrorIs(t, err, timer.ErrNotRunning)
		_, err = m.Apply(id, timer.ActionSkip, t0)
		assert.ErrorIs(t, err, timer.ErrIdle)
	}
	assert.Zero(t, m.Len())

	s, err := m.Apply("fresh", timer.ActionReset, t0)
	require.NoError(t, err)
	assert.Equal(t, timer.PhaseIdle, s.Phase)
	assert.Zero(t, m.Len(), "resetting an unknown timer stores nothing")

	_, err = m.Apply("fresh", timer.ActionStart, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestNewManager_RejectsInvalidConfig(t *testing.T) {
	cfg := timer.DefaultConfig()
	cfg.Focus = 0

	m, err := timer.NewManager(cfg)
	require.Error(t, err)
	assert.Nil(t, m)
	assert.Contains(t, err.Error(), "focus duration")
}

func TestParseAction(t *testing.T) {
	a, err := timer.ParseAction("pause")
	require.NoError(t, err)
	assert.Equal(t, timer.ActionPause, a)

	_, err = timer.ParseAction("PAUSE")
	assert.ErrorIs(t, err, timer.ErrUnknownAction)
}
