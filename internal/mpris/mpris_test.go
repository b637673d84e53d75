//go:build linux

package mpris

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/tunedeck/internal/media"
	"github.com/llehouerou/tunedeck/internal/playback"
	"github.com/llehouerou/tunedeck/internal/playerctl"
	"github.com/llehouerou/tunedeck/internal/playlist"
	"github.com/llehouerou/tunedeck/internal/store"
)

type harness struct {
	m    *media.Mock
	ctrl *playback.Controller
	st   *store.Store
	pc   *playerctl.Adapter
	p    *playerAdapter
}

func newHarness(songs ...store.Song) *harness {
	m := media.NewMock()
	m.AutoReady(3 * time.Minute)
	ctrl := playback.New(m)
	st := store.New()
	pc := playerctl.New(st, ctrl)
	return &harness{
		m: m, ctrl: ctrl, st: st, pc: pc,
		p: &playerAdapter{ctrl: ctrl, pc: pc, store: st, queue: playlist.NewQueue(songs...)},
	}
}

func (h *harness) close() {
	h.pc.Close()
	_ = h.ctrl.Close()
}

func song(id string) store.Song {
	return store.Song{
		ID:       id,
		Title:    "Title " + id,
		Artist:   "Artist",
		AudioURL: "https://cdn.example.com/" + id + ".mp3",
	}
}

func status(t *testing.T, p *playerAdapter) types.PlaybackStatus {
	t.Helper()
	s, err := p.PlaybackStatus()
	require.NoError(t, err)
	return s
}

func TestPlaybackStatus(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness()
		defer h.close()

		assert.Equal(t, types.PlaybackStatusStopped, status(t, h.p))

		h.st.PlaySong(song("a"))
		synctest.Wait()
		assert.Equal(t, types.PlaybackStatusPlaying, status(t, h.p))

		time.Sleep(time.Second)
		require.NoError(t, h.p.PlayPause())
		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, types.PlaybackStatusPaused, status(t, h.p))

		require.NoError(t, h.p.Stop())
		synctest.Wait()
		assert.Equal(t, types.PlaybackStatusStopped, status(t, h.p))
		assert.Empty(t, h.m.Source(), "stop hard-stops the element")
	})
}

func TestPlay_ReopensAfterStop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness()
		defer h.close()

		require.NoError(t, h.p.Play(), "nothing selected is a no-op")
		synctest.Wait()
		assert.Empty(t, h.m.LoadCalls())

		h.st.PlaySong(song("a"))
		synctest.Wait()
		require.NoError(t, h.p.Stop())
		synctest.Wait()

		require.NoError(t, h.p.Play())
		time.Sleep(time.Second)
		synctest.Wait()

		assert.True(t, h.ctrl.IsPlaying())
		assert.Equal(t, types.PlaybackStatusPlaying, status(t, h.p))
	})
}

func TestMetadata(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness()
		defer h.close()

		meta, err := h.p.Metadata()
		require.NoError(t, err)
		assert.Equal(t, types.Metadata{}, meta)

		s := song("a")
		s.Genre = "Jazz"
		s.CoverArt = "/covers/a.jpg"
		s.Lyrics = "la la"
		h.st.PlaySong(s)
		synctest.Wait()

		meta, err = h.p.Metadata()
		require.NoError(t, err)
		assert.Equal(t, dbus.ObjectPath(formatTrackID("a")), meta.TrackId)
		assert.Equal(t, "Title a", meta.Title)
		assert.Equal(t, []string{"Artist"}, meta.Artist)
		assert.Equal(t, []string{"Jazz"}, meta.Genre)
		assert.Equal(t, "file:///covers/a.jpg", meta.ArtUrl)
		assert.Equal(t, "la la", meta.AsText)
		assert.Equal(t, types.Microseconds((3 * time.Minute).Microseconds()), meta.Length)
	})
}

func TestSeekAndPosition(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness()
		defer h.close()
		h.st.PlaySong(song("a"))
		synctest.Wait()

		canSeek, err := h.p.CanSeek()
		require.NoError(t, err)
		assert.True(t, canSeek)

		require.NoError(t, h.p.Seek(types.Microseconds(30*time.Second/time.Microsecond)))
		pos, err := h.p.Position()
		require.NoError(t, err)
		assert.Equal(t, (30 * time.Second).Microseconds(), pos)

		require.NoError(t, h.p.SetPosition(formatTrackID("other"), 0))
		assert.Equal(t, 30*time.Second, h.ctrl.CurrentTime(), "stale track id ignored")

		require.NoError(t, h.p.SetPosition(formatTrackID("a"), types.Microseconds(time.Minute/time.Microsecond)))
		assert.Equal(t, time.Minute, h.ctrl.CurrentTime())
	})
}

func TestLoopStatus(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness()
		defer h.close()

		loop, err := h.p.LoopStatus()
		require.NoError(t, err)
		assert.Equal(t, types.LoopStatusNone, loop)

		// Repeat reaches the controller only while a song is shown.
		h.st.PlaySong(song("a"))
		synctest.Wait()

		require.NoError(t, h.p.SetLoopStatus(types.LoopStatusPlaylist))
		require.NoError(t, h.p.SetLoopStatus(types.LoopStatusTrack))
		synctest.Wait()
		assert.True(t, h.st.State().IsRepeat)
		assert.True(t, h.ctrl.IsRepeat())

		loop, err = h.p.LoopStatus()
		require.NoError(t, err)
		assert.Equal(t, types.LoopStatusTrack, loop)

		require.NoError(t, h.p.SetLoopStatus(types.LoopStatusNone))
		synctest.Wait()
		assert.False(t, h.st.State().IsRepeat)
		assert.False(t, h.ctrl.IsRepeat())
	})
}

func TestNextPrevious(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(song("a"), song("b"))
		defer h.close()

		canPrev, _ := h.p.CanGoPrevious()
		assert.False(t, canPrev)

		require.NoError(t, h.p.Next())
		synctest.Wait()
		assert.Equal(t, "a", h.st.State().CurrentSong.ID)

		require.NoError(t, h.p.Next())
		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, "b", h.st.State().CurrentSong.ID)
		assert.Equal(t, "https://cdn.example.com/b.mp3", h.ctrl.CurrentURL())

		canNext, _ := h.p.CanGoNext()
		assert.False(t, canNext)
		require.NoError(t, h.p.Next())
		assert.Equal(t, "b", h.st.State().CurrentSong.ID, "end of queue is a no-op")

		require.NoError(t, h.p.Previous())
		synctest.Wait()
		assert.Equal(t, "a", h.st.State().CurrentSong.ID)
	})
}

func TestVolume(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness()
		defer h.close()

		require.NoError(t, h.p.SetVolume(0.25))
		v, err := h.p.Volume()
		require.NoError(t, err)
		assert.InDelta(t, 0.25, v, 1e-9)
		assert.InDelta(t, 0.25, h.m.Volume(), 1e-9)
	})
}

func TestArtURL(t *testing.T) {
	assert.Empty(t, artURL(""))
	assert.Equal(t, "file:///music/cover.jpg", artURL("/music/cover.jpg"))
	assert.Equal(t, "https://img.example.com/c.png", artURL("https://img.example.com/c.png"))
}

func TestFormatTrackID(t *testing.T) {
	id := formatTrackID("preview:abc")
	assert.Equal(t, id, formatTrackID("preview:abc"))
	assert.NotEqual(t, id, formatTrackID("preview:abd"))
	assert.Contains(t, id, "/org/mpris/MediaPlayer2/Track/")
}
