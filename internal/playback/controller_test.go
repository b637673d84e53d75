package playback

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/tunedeck/internal/config"
	"github.com/llehouerou/tunedeck/internal/media"
)

type playStates struct {
	mu   sync.Mutex
	vals []bool
}

func (p *playStates) record(v bool) {
	p.mu.Lock()
	p.vals = append(p.vals, v)
	p.mu.Unlock()
}

func (p *playStates) get() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.vals...)
}

type errorLog struct {
	mu   sync.Mutex
	errs []*Error
}

func (l *errorLog) record(e *Error) {
	l.mu.Lock()
	l.errs = append(l.errs, e)
	l.mu.Unlock()
}

func (l *errorLog) kinds() []Kind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Kind, len(l.errs))
	for i, e := range l.errs {
		out[i] = e.Kind
	}
	return out
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *media.Mock) {
	t.Helper()
	m := media.NewMock()
	return New(m, opts...), m
}

// loadAndPlay loads url with an auto-ready element and starts playback.
func loadAndPlay(t *testing.T, c *Controller, m *media.Mock, url string) {
	t.Helper()
	m.AutoReady(time.Minute)
	require.NoError(t, c.LoadSong(context.Background(), url))
	require.NoError(t, c.Play(context.Background()))
	synctest.Wait()
	require.True(t, c.IsPlaying())
}

func TestLoadSong_EmptyURL(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		var errs errorLog
		c.OnError(errs.record)

		err := c.LoadSong(context.Background(), "")

		require.ErrorIs(t, err, ErrInvalidSource)
		assert.Equal(t, "No audio URL provided", err.Error())
		assert.Equal(t, []Kind{KindInvalidSource}, errs.kinds())
		assert.Empty(t, m.LoadCalls())
	})
}

func TestLoadSong_ResolvesOnCanPlayThrough(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		var loaded []Loaded
		var mu sync.Mutex
		c.OnLoaded(func(l Loaded) {
			mu.Lock()
			loaded = append(loaded, l)
			mu.Unlock()
		})

		errc := make(chan error, 1)
		go func() { errc <- c.LoadSong(context.Background(), "a.mp3") }()
		synctest.Wait()

		assert.True(t, c.IsLoading())
		assert.Equal(t, StateLoading, c.State())
		assert.Equal(t, "a.mp3", c.CurrentURL(), "url is recorded before the load settles")

		m.SimulateCanPlayThrough(3 * time.Minute)
		require.NoError(t, <-errc)
		synctest.Wait()

		assert.False(t, c.IsLoading())
		assert.Equal(t, StateReady, c.State())
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []Loaded{{URL: "a.mp3", Duration: 3 * time.Minute}}, loaded)
	})
}

func TestLoadSong_SameURLDoesNotReload(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		m.AutoReady(time.Minute)

		require.NoError(t, c.LoadSong(context.Background(), "a.mp3"))
		require.NoError(t, c.LoadSong(context.Background(), "a.mp3"))

		assert.Equal(t, []string{"a.mp3"}, m.LoadCalls())
	})
}

func TestLoadSong_SameURLConcurrentLoadsOnce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()

		errc := make(chan error, 2)
		for range 2 {
			go func() { errc <- c.LoadSong(context.Background(), "a.mp3") }()
		}
		synctest.Wait()

		m.SimulateCanPlayThrough(time.Minute)
		require.NoError(t, <-errc)
		require.NoError(t, <-errc)

		assert.Equal(t, []string{"a.mp3"}, m.LoadCalls())
	})
}

func TestLoadSong_DifferentURLQueuesBehindInFlight(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()

		errA := make(chan error, 1)
		go func() { errA <- c.LoadSong(context.Background(), "a.mp3") }()
		synctest.Wait()

		errB := make(chan error, 1)
		go func() { errB <- c.LoadSong(context.Background(), "b.mp3") }()
		synctest.Wait()

		assert.Equal(t, []string{"a.mp3"}, m.LoadCalls(), "second load must wait")

		m.SimulateCanPlayThrough(time.Minute)
		require.NoError(t, <-errA)
		synctest.Wait()
		assert.Equal(t, []string{"a.mp3", "b.mp3"}, m.LoadCalls())

		m.SimulateCanPlayThrough(2 * time.Minute)
		require.NoError(t, <-errB)
		assert.Equal(t, "b.mp3", c.CurrentURL())
		assert.Equal(t, 2*time.Minute, c.Duration())
	})
}

func TestLoadSong_ContextBoundsOnlyTheWait(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() { errc <- c.LoadSong(ctx, "a.mp3") }()
		synctest.Wait()

		cancel()
		require.ErrorIs(t, <-errc, context.Canceled)
		assert.True(t, c.IsLoading(), "the load itself keeps going")

		m.SimulateCanPlayThrough(time.Minute)
		synctest.Wait()
		assert.False(t, c.IsLoading())
		assert.Equal(t, StateReady, c.State())
	})
}

func TestLoadSong_ClassifiesElementErrors(t *testing.T) {
	tests := []struct {
		code    media.ErrorCode
		want    Kind
		wantErr error
		message string
	}{
		{media.ErrAborted, KindLoadAborted, ErrLoadAborted, "Audio loading aborted."},
		{media.ErrNetwork, KindNetworkOrCors, ErrNetworkOrCors, "Network error while loading audio. The audio file might be blocked by CORS policy."},
		{media.ErrDecode, KindDecodeUnsupported, ErrDecodeUnsupported, "Audio decoding failed. Format may not be supported."},
		{media.ErrSrcNotSupported, KindSourceNotFound, ErrSourceNotFound, "Audio source not found or access denied."},
		{media.ErrUnknown, KindUnknown, &Error{Kind: KindUnknown}, "Error loading audio: Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				c, m := newTestController(t)
				defer c.Close()
				var errs errorLog
				c.OnError(errs.record)
				m.AutoFail(tt.code)

				err := c.LoadSong(context.Background(), "bad-url")
				synctest.Wait()

				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.message, err.Error())
				assert.Equal(t, []Kind{tt.want}, errs.kinds())

				var perr *Error
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, "bad-url", perr.URL)
			})
		})
	}
}

func TestLoadSong_FailureThenPlayFailsWithNoSource(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		var errs errorLog
		c.OnError(errs.record)

		errc := make(chan error, 1)
		go func() { errc <- c.LoadSong(context.Background(), "bad-url") }()
		synctest.Wait()
		m.SimulateError(media.ErrDecode, "no decoder")

		require.ErrorIs(t, <-errc, ErrDecodeUnsupported)
		synctest.Wait()
		assert.Equal(t, StateError, c.State())

		err := c.Play(context.Background())
		require.ErrorIs(t, err, ErrNoSourceLoaded)
		assert.Equal(t, []Kind{KindDecodeUnsupported, KindNoSourceLoaded}, errs.kinds())
		assert.Zero(t, m.PlayCalls())
	})
}

func TestLoadSong_RecoversAfterFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		m.AutoFail(media.ErrNetwork)
		require.ErrorIs(t, c.LoadSong(context.Background(), "a.mp3"), ErrNetworkOrCors)

		m.AutoReady(time.Minute)
		require.NoError(t, c.LoadSong(context.Background(), "a.mp3"), "same url reloads after a failure")
		require.NoError(t, c.Play(context.Background()))

		assert.Equal(t, []string{"a.mp3", "a.mp3"}, m.LoadCalls())
		assert.True(t, c.IsPlaying())
	})
}

func TestPlay_NothingLoaded(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, _ := newTestController(t)
		defer c.Close()
		var errs errorLog
		c.OnError(errs.record)

		err := c.Play(context.Background())

		require.ErrorIs(t, err, ErrNoSourceLoaded)
		assert.Equal(t, "No audio loaded", err.Error())
		assert.Equal(t, []Kind{KindNoSourceLoaded}, errs.kinds())
	})
}

func TestPlay_TwiceEmitsOneTransition(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		m.AutoReady(time.Minute)
		require.NoError(t, c.LoadSong(context.Background(), "a.mp3"))

		var states playStates
		c.OnPlayStateChange(states.record)

		require.NoError(t, c.Play(context.Background()))
		require.NoError(t, c.Play(context.Background()))
		synctest.Wait()

		assert.Equal(t, []bool{true}, states.get())
		assert.Equal(t, 1, m.PlayCalls())
		assert.Equal(t, StatePlaying, c.State())
	})
}

func TestPlay_PauseWithinThrottleWindowIsCoalesced(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		var states playStates
		c.OnPlayStateChange(states.record)
		loadAndPlay(t, c, m, "a.mp3")

		c.Pause()
		synctest.Wait()
		assert.True(t, c.IsPlaying(), "pause inside the window is dropped")

		m.SimulateTimeUpdate(5 * time.Second)
		time.Sleep(DefaultThrottleWindow)
		c.Pause()
		synctest.Wait()

		assert.False(t, c.IsPlaying())
		assert.True(t, m.Paused())
		assert.Equal(t, []bool{true, false}, states.get())
		assert.Equal(t, StatePaused, c.State())
	})
}

func TestPlay_CustomThrottleWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t, WithThrottleWindow(time.Second))
		defer c.Close()
		loadAndPlay(t, c, m, "a.mp3")

		time.Sleep(500 * time.Millisecond)
		c.Pause()
		assert.True(t, c.IsPlaying())

		time.Sleep(500 * time.Millisecond)
		c.Pause()
		assert.False(t, c.IsPlaying())
	})
}

func TestPlay_RejectedByElement(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		m.AutoReady(time.Minute)
		require.NoError(t, c.LoadSong(context.Background(), "a.mp3"))

		var states playStates
		var errs errorLog
		c.OnPlayStateChange(states.record)
		c.OnError(errs.record)
		m.SetPlayError(errors.New("autoplay blocked"))

		err := c.Play(context.Background())

		require.ErrorIs(t, err, ErrPlaybackRejected)
		assert.Equal(t, "Failed to play audio: autoplay blocked", err.Error())
		assert.False(t, c.IsPlaying())
		assert.Equal(t, []bool{false}, states.get())
		assert.Equal(t, []Kind{KindPlaybackRejected}, errs.kinds())
	})
}

func TestPlay_WaitsForInFlightLoad(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()

		loadErr := make(chan error, 1)
		go func() { loadErr <- c.LoadSong(context.Background(), "a.mp3") }()
		synctest.Wait()

		playErr := make(chan error, 1)
		go func() { playErr <- c.Play(context.Background()) }()
		synctest.Wait()
		assert.Zero(t, m.PlayCalls())

		m.SimulateCanPlayThrough(time.Minute)
		require.NoError(t, <-loadErr)
		require.NoError(t, <-playErr)

		assert.Equal(t, 1, m.PlayCalls())
		assert.True(t, c.IsPlaying())
	})
}

func TestPlay_InFlightLoadFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()

		loadErr := make(chan error, 1)
		go func() { loadErr <- c.LoadSong(context.Background(), "a.mp3") }()
		synctest.Wait()

		playErr := make(chan error, 1)
		go func() { playErr <- c.Play(context.Background()) }()
		synctest.Wait()

		m.SimulateError(media.ErrSrcNotSupported, "404")
		require.ErrorIs(t, <-loadErr, ErrSourceNotFound)
		require.ErrorIs(t, <-playErr, ErrSourceNotFound)
		assert.Zero(t, m.PlayCalls())
	})
}

func TestHardStop_EmitsExactlyOneFalse(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, c *Controller, m *media.Mock) (wait func())
	}{
		{
			name:  "empty",
			setup: func(*testing.T, *Controller, *media.Mock) func() { return nil },
		},
		{
			name: "playing",
			setup: func(t *testing.T, c *Controller, m *media.Mock) func() {
				loadAndPlay(t, c, m, "a.mp3")
				return nil
			},
		},
		{
			name: "paused",
			setup: func(t *testing.T, c *Controller, m *media.Mock) func() {
				loadAndPlay(t, c, m, "a.mp3")
				time.Sleep(DefaultThrottleWindow)
				c.Pause()
				synctest.Wait()
				return nil
			},
		},
		{
			name: "loading",
			setup: func(t *testing.T, c *Controller, _ *media.Mock) func() {
				errc := make(chan error, 1)
				go func() { errc <- c.LoadSong(context.Background(), "a.mp3") }()
				synctest.Wait()
				return func() {
					assert.ErrorIs(t, <-errc, ErrLoadAborted)
				}
			},
		},
		{
			name: "error",
			setup: func(t *testing.T, c *Controller, m *media.Mock) func() {
				m.AutoFail(media.ErrNetwork)
				require.Error(t, c.LoadSong(context.Background(), "a.mp3"))
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				c, m := newTestController(t)
				defer c.Close()
				wait := tt.setup(t, c, m)
				synctest.Wait()

				var states playStates
				var errs errorLog
				c.OnPlayStateChange(states.record)
				c.OnError(errs.record)

				c.HardStop()
				assert.Equal(t, []bool{false}, states.get(), "emitted synchronously")

				if wait != nil {
					wait()
				}
				synctest.Wait()

				assert.Equal(t, []bool{false}, states.get())
				assert.Empty(t, errs.kinds(), "superseded loads are not reported")
				assert.False(t, c.IsPlaying())
				assert.False(t, c.IsLoading())
				assert.Empty(t, m.Source())
			})
		})
	}
}

func TestHardStop_PlayReloadsRememberedURL(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		loadAndPlay(t, c, m, "a.mp3")

		c.HardStop()
		assert.Equal(t, "a.mp3", c.CurrentURL())
		assert.Equal(t, StateEmpty, c.State())

		var states playStates
		c.OnPlayStateChange(states.record)

		start := time.Now()
		require.NoError(t, c.Play(context.Background()))
		synctest.Wait()

		assert.GreaterOrEqual(t, time.Since(start), DefaultResetGrace, "waits for teardown to settle")
		assert.Equal(t, []string{"a.mp3", "a.mp3"}, m.LoadCalls())
		assert.True(t, c.IsPlaying())
		assert.Equal(t, []bool{true}, states.get())
	})
}

func TestHardStop_LoadSongAfterStopReloadsSameURL(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t, WithResetGrace(50*time.Millisecond))
		defer c.Close()
		m.AutoReady(time.Minute)
		require.NoError(t, c.LoadSong(context.Background(), "a.mp3"))

		c.HardStop()
		require.NoError(t, c.LoadSong(context.Background(), "a.mp3"))

		assert.Equal(t, []string{"a.mp3", "a.mp3"}, m.LoadCalls())
	})
}

func TestHardStop_StaleRepeatRestartIgnored(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		c.SetRepeat(true)
		loadAndPlay(t, c, m, "a.mp3")

		c.mu.Lock()
		epoch := c.epoch
		c.mu.Unlock()

		c.HardStop()
		c.restart(epoch)
		synctest.Wait()

		assert.Equal(t, 1, m.PlayCalls())
		assert.False(t, c.IsPlaying())
		assert.Len(t, m.LoadCalls(), 1, "a stale restart must not reload")
	})
}

func TestHardStop_AfterClose(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, _ := newTestController(t)
		defer c.Close()
		var states playStates
		c.OnPlayStateChange(states.record)

		require.NoError(t, c.Close())
		c.HardStop()

		assert.Empty(t, states.get())
	})
}

func TestSetVolume_Clamps(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()

		c.SetVolume(-1)
		assert.InDelta(t, 0.0, c.Volume(), 1e-9)

		c.SetVolume(5)
		assert.InDelta(t, 1.0, m.Volume(), 1e-9)

		c.SetVolume(0.4)
		assert.InDelta(t, 0.4, m.Volume(), 1e-9)

		c.SetVolume(math.NaN())
		assert.InDelta(t, 0.4, m.Volume(), 1e-9)
	})
}

func TestSetVolume_SkipsUnchanged(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()

		c.SetVolume(0.5)
		c.SetVolume(0.5)
		c.SetVolume(1)

		assert.Equal(t, 2, m.VolumeCalls())
	})
}

func TestSetVolume_SwallowsErrors(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		var errs errorLog
		c.OnError(errs.record)
		m.SetVolumeError(errors.New("device busy"))

		assert.NotPanics(t, func() { c.SetVolume(0.2) })
		assert.Empty(t, errs.kinds())
	})
}

func TestSetCurrentTime(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()

		c.SetCurrentTime(10 * time.Second)
		assert.Zero(t, c.CurrentTime(), "ignored without a duration")

		m.AutoReady(time.Minute)
		require.NoError(t, c.LoadSong(context.Background(), "a.mp3"))
		c.SetCurrentTime(10 * time.Second)
		assert.Equal(t, 10*time.Second, c.CurrentTime())
	})
}

func TestSetRepeat_LeavesPlayStateUntouched(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		loadAndPlay(t, c, m, "a.mp3")

		var states playStates
		c.OnPlayStateChange(states.record)

		c.SetRepeat(true)
		assert.True(t, c.IsRepeat())
		assert.True(t, m.Loop())

		c.SetRepeat(false)
		synctest.Wait()

		assert.False(t, c.IsRepeat())
		assert.False(t, m.Loop())
		assert.True(t, c.IsPlaying())
		assert.Empty(t, states.get())
	})
}

func TestEnded_RepeatRestartsFromZero(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		loadAndPlay(t, c, m, "a.mp3")
		c.SetRepeat(true)

		var states playStates
		c.OnPlayStateChange(states.record)

		m.SimulateTimeUpdate(59 * time.Second)
		m.SimulateEnded()
		synctest.Wait()

		assert.Equal(t, []bool{false, true}, states.get())
		assert.True(t, c.IsPlaying())
		assert.Zero(t, c.CurrentTime())
		assert.Equal(t, 2, m.PlayCalls())
	})
}

func TestEnded_RepeatIgnoresThrottle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t, WithThrottleWindow(time.Hour))
		defer c.Close()
		c.SetRepeat(true)
		loadAndPlay(t, c, m, "a.mp3")

		m.SimulateEnded()
		synctest.Wait()

		assert.True(t, c.IsPlaying())
	})
}

func TestEnded_RepeatRestartFailureIsReported(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		c.SetRepeat(true)
		loadAndPlay(t, c, m, "a.mp3")

		var errs errorLog
		c.OnError(errs.record)
		m.SetPlayError(errors.New("device lost"))

		m.SimulateEnded()
		synctest.Wait()

		assert.False(t, c.IsPlaying())
		assert.Equal(t, []Kind{KindPlaybackRejected}, errs.kinds())
	})
}

func TestEnded_WithoutRepeatStopsAtEnd(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		loadAndPlay(t, c, m, "a.mp3")

		var states playStates
		c.OnPlayStateChange(states.record)

		m.SimulateEnded()
		synctest.Wait()

		assert.Equal(t, []bool{false}, states.get())
		assert.False(t, c.IsPlaying())
		assert.Equal(t, time.Minute, c.CurrentTime())
		assert.Equal(t, StateEnded, c.State())
	})
}

func TestTimeUpdate_Payload(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		loadAndPlay(t, c, m, "a.mp3")

		var got []TimeUpdate
		var mu sync.Mutex
		c.OnTimeUpdate(func(u TimeUpdate) {
			mu.Lock()
			got = append(got, u)
			mu.Unlock()
		})

		m.SimulateTimeUpdate(10 * time.Second)
		synctest.Wait()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []TimeUpdate{{Position: 10 * time.Second, Duration: time.Minute}}, got)
	})
}

func TestPlaybackErrorAfterLoad(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		loadAndPlay(t, c, m, "a.mp3")

		var errs errorLog
		c.OnError(errs.record)

		m.SimulateError(media.ErrNetwork, "connection reset")
		synctest.Wait()

		assert.Equal(t, []Kind{KindNetworkOrCors}, errs.kinds())
		assert.Equal(t, StateError, c.State())
	})
}

func TestTogglePlay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		m.AutoReady(time.Minute)
		require.NoError(t, c.LoadSong(context.Background(), "a.mp3"))

		c.TogglePlay()
		synctest.Wait()
		assert.True(t, c.IsPlaying())

		time.Sleep(DefaultThrottleWindow)
		c.TogglePlay()
		synctest.Wait()
		assert.False(t, c.IsPlaying())
	})
}

func TestOnPlayStateChange_DisposerRemovesOnlyItsCallback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		var a, b playStates
		removeA := c.OnPlayStateChange(a.record)
		c.OnPlayStateChange(b.record)

		removeA()
		removeA()
		loadAndPlay(t, c, m, "a.mp3")

		assert.Empty(t, a.get())
		assert.Equal(t, []bool{true}, b.get())
	})
}

func TestSubscribe_DeliversOnChannels(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		sub := c.Subscribe()

		loadAndPlay(t, c, m, "a.mp3")
		m.SimulateTimeUpdate(5 * time.Second)
		synctest.Wait()

		l := <-sub.Loaded
		assert.Equal(t, "a.mp3", l.URL)
		assert.True(t, <-sub.PlayStateChanged)
		tu := <-sub.TimeUpdated
		assert.Equal(t, 5*time.Second, tu.Position)

		require.NoError(t, c.Close())
		<-sub.Done
	})
}

func TestSubscribe_CloseDetaches(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, m := newTestController(t)
		defer c.Close()
		sub := c.Subscribe()
		sub.Close()
		sub.Close()
		<-sub.Done

		loadAndPlay(t, c, m, "a.mp3")

		select {
		case <-sub.PlayStateChanged:
			t.Error("closed subscription received an event")
		default:
		}
		assert.Zero(t, c.bus.playState.Len(), "no callbacks left behind")
	})
}

func TestClose_RejectsFurtherWork(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, _ := newTestController(t)
		defer c.Close()
		require.NoError(t, c.Close())
		require.NoError(t, c.Close())

		require.ErrorIs(t, c.LoadSong(context.Background(), "a.mp3"), ErrClosed)
		sub := c.Subscribe()
		<-sub.Done
	})
}

func TestClose_AbortsInFlightLoad(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, _ := newTestController(t)
		defer c.Close()

		errc := make(chan error, 1)
		go func() { errc <- c.LoadSong(context.Background(), "a.mp3") }()
		synctest.Wait()

		require.NoError(t, c.Close())
		assert.ErrorIs(t, <-errc, ErrLoadAborted)
	})
}

func TestWithConfig(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		v := 0.5
		c, m := newTestController(t, WithConfig(config.PlayerConfig{
			Volume:         &v,
			Repeat:         true,
			ThrottleWindow: time.Second,
		}))
		defer c.Close()

		assert.InDelta(t, 0.5, m.Volume(), 1e-9)
		assert.True(t, m.Loop())
		assert.True(t, c.IsRepeat())
		assert.Equal(t, time.Second, c.throttleWindow)
		assert.Equal(t, DefaultResetGrace, c.resetGrace)
	})
}
