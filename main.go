package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/llehouerou/tunedeck/internal/app"
	"github.com/llehouerou/tunedeck/internal/config"
	"github.com/llehouerou/tunedeck/internal/errmsg"
	"github.com/llehouerou/tunedeck/internal/media"
	"github.com/llehouerou/tunedeck/internal/mpris"
	"github.com/llehouerou/tunedeck/internal/notify"
	"github.com/llehouerou/tunedeck/internal/playback"
	"github.com/llehouerou/tunedeck/internal/playerctl"
	"github.com/llehouerou/tunedeck/internal/playlist"
	"github.com/llehouerou/tunedeck/internal/preview"
	"github.com/llehouerou/tunedeck/internal/stderr"
	"github.com/llehouerou/tunedeck/internal/store"
)

var errNoSources = errors.New("no playable sources")

func main() {
	cmd := &cli.Command{
		Name:      "tunedeck",
		Usage:     "Preview catalog songs and pending uploads from the terminal",
		ArgsUsage: "SOURCE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
			&cli.FloatFlag{
				Name:  "volume",
				Usage: "Start volume between 0.0 and 1.0",
			},
			&cli.BoolFlag{
				Name:  "repeat",
				Usage: "Loop the current song",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write logs to this file",
			},
			&cli.BoolFlag{
				Name:  "no-mpris",
				Usage: "Do not register media controls on D-Bus",
			},
			&cli.BoolFlag{
				Name:  "notify",
				Usage: "Show desktop notifications for song changes and errors",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		stderr.WriteOriginal(fmt.Sprintf("tunedeck: %v\n", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpConfigLoad, err))
	}
	applyFlags(cfg, cmd)

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return errors.New(errmsg.FormatWith(errmsg.OpLogOpen, cfg.LogFile(), err))
	}
	defer closeLog()

	if err := stderr.Start(logger); err != nil {
		logger.Warn("stderr capture unavailable", "err", err)
	}
	defer stderr.Stop()

	songs := loadSongs(cmd.Args().Slice(), logger)
	if len(songs) == 0 {
		return errNoSources
	}

	pcfg := cfg.GetPlayerConfig()
	el := media.NewSpeakerElement(
		media.WithTimeUpdateInterval(pcfg.TimeUpdateInterval),
		media.WithSpeakerLogger(logger.WithPrefix("media")),
	)
	ctrl := playback.New(el,
		playback.WithConfig(pcfg),
		playback.WithLogger(logger.WithPrefix("playback")),
	)
	defer ctrl.Close()

	st := store.New()
	if pcfg.Repeat {
		st.ToggleRepeat()
	}
	adapter := playerctl.New(st, ctrl,
		playerctl.WithLogger(logger.WithPrefix("playerctl")),
		playerctl.WithDebounce(pcfg.PlayDebounce),
		playerctl.WithVolume(pcfg.InitialVolume()),
	)
	defer adapter.Close()

	queue := playlist.NewQueue(songs...)

	if cfg.MPRISEnabled() {
		m, err := mpris.New(ctrl, adapter, st, queue, logger.WithPrefix("mpris"))
		if err != nil {
			logger.Warn(errmsg.Format(errmsg.OpMPRISStart, err))
		} else {
			defer m.Close()
		}
	}

	if cfg.NotifyEnabled() {
		n, err := notify.New()
		if err != nil {
			logger.Warn("notifications unavailable", "err", err)
		} else {
			np := notify.NewPlayer(n, st, ctrl, logger)
			defer np.Close()
		}
	}

	model := app.New(ctrl, adapter, st, queue)
	defer model.Close()

	if first := queue.Next(); first != nil {
		st.PlaySong(*first)
	}

	logger.Info("starting", "songs", len(songs), "volume", pcfg.InitialVolume(), "repeat", pcfg.Repeat)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}
	return nil
}

// applyFlags lets command-line flags override the loaded config.
func applyFlags(cfg *config.Config, cmd *cli.Command) {
	if cmd.IsSet("volume") {
		v := cmd.Float("volume")
		cfg.Player.Volume = &v
	}
	if cmd.IsSet("repeat") {
		cfg.Player.Repeat = cmd.Bool("repeat")
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-file") {
		cfg.Log.File = cmd.String("log-file")
	}
	if cmd.IsSet("notify") {
		enabled := cmd.Bool("notify")
		cfg.Notify.Enabled = &enabled
	}
	if cmd.Bool("no-mpris") {
		disabled := false
		cfg.MPRIS.Enabled = &disabled
	}
}

// openLogger writes to the configured log file, since the TUI owns the
// terminal.
func openLogger(cfg *config.Config) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.LogLevel())
	if err != nil {
		return nil, nil, err
	}

	path := cfg.LogFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}

	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return logger, func() { _ = f.Close() }, nil
}

// loadSongs previews every source, skipping the ones that fail.
func loadSongs(sources []string, logger *log.Logger) []store.Song {
	songs := make([]store.Song, 0, len(sources))
	for _, src := range sources {
		song, err := preview.FromSource(src)
		if err != nil {
			msg := errmsg.FormatWith(errmsg.OpPreviewFile, src, err)
			logger.Warn(msg)
			stderr.WriteOriginal(msg + "\n")
			continue
		}
		songs = append(songs, song)
	}
	return songs
}
