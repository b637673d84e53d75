package notify

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/tunedeck/internal/playback"
	"github.com/llehouerou/tunedeck/internal/store"
)

const nowPlayingTimeout int32 = 5000

// Player posts a "now playing" notification after each successful load
// and a critical one for playback errors. Each notification replaces the
// previous one.
type Player struct {
	n      Notifier
	st     *store.Store
	sub    *playback.Subscription
	logger *log.Logger

	mu     sync.Mutex
	lastID uint32

	done chan struct{}
	wg   sync.WaitGroup
}

// NewPlayer starts watching ctrl. Close stops it.
func NewPlayer(n Notifier, st *store.Store, ctrl playback.Service, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.Default()
	}
	p := &Player{
		n:      n,
		st:     st,
		sub:    ctrl.Subscribe(),
		logger: logger.WithPrefix("notify"),
		done:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.watch()
	return p
}

func (p *Player) watch() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case <-p.sub.Done:
			return
		case <-p.sub.Loaded:
			p.nowPlaying()
		case err := <-p.sub.Errors:
			p.failed(err)
		case <-p.sub.TimeUpdated:
		case <-p.sub.PlayStateChanged:
		}
	}
}

func (p *Player) nowPlaying() {
	st := p.st.State()
	if st.CurrentSong == nil {
		return
	}
	song := st.CurrentSong
	body := song.Artist
	if body == "" {
		body = string(song.Status)
	}
	p.post(Notification{
		Title:   song.Title,
		Body:    body,
		Icon:    song.CoverArt,
		Timeout: nowPlayingTimeout,
		Urgency: UrgencyLow,
	})
}

func (p *Player) failed(err *playback.Error) {
	if err == nil {
		return
	}
	title := "Playback failed"
	if song := p.st.State().CurrentSong; song != nil && song.Title != "" {
		title += ": " + song.Title
	}
	p.post(Notification{
		Title:   title,
		Body:    err.Error(),
		Icon:    "dialog-error",
		Timeout: ExpireDefault,
		Urgency: UrgencyCritical,
	})
}

func (p *Player) post(n Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n.ReplacesID = p.lastID
	id, err := p.n.Notify(n)
	if err != nil {
		p.logger.Debug("notification failed", "err", err)
		return
	}
	p.lastID = id
}

// Close stops watching and withdraws the last notification.
func (p *Player) Close() {
	select {
	case <-p.done:
		return
	default:
		close(p.done)
	}
	p.sub.Close()
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastID != 0 {
		_ = p.n.Close(p.lastID)
		p.lastID = 0
	}
}
