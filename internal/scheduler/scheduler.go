package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"MarketScreener/internal/notifier"
	"MarketScreener/internal/recorder"
	"MarketScreener/internal/screener"
	"MarketScreener/internal/universe"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the daily universe screen and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Screener *screener.Screener
	Analyzer *screener.Analyzer
	Universe universe.Provider
	Notifier *notifier.TelegramNotifier
	Recorder recorder.Recorder
	Preset   screener.Preset
	TopN     int
	Ctx      context.Context

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, scr *screener.Screener, an *screener.Analyzer, u universe.Provider,
	tn *notifier.TelegramNotifier, rec recorder.Recorder, preset screener.Preset, topN int) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		Screener: scr,
		Analyzer: an,
		Universe: u,
		Notifier: tn,
		Recorder: rec,
		Preset:   preset,
		TopN:     topN,
		Ctx:      ctx,
	}
}

// Register adds the daily screening job.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// ErrBusy is returned when a screen is already in progress.
var ErrBusy = errors.New("a screening run is already in progress")

// RunNow screens the universe with p, records the run and returns it.
// Only one run executes at a time.
func (s *Scheduler) RunNow(ctx context.Context, p screener.Preset) (*screener.Run, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	run, err := s.Screener.ScreenUniverse(ctx, s.Universe, p)
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordRun(ctx, recorder.NewRunRecord(run)); err != nil {
		log.Error().Err(err).Str("run", run.ID).Msg("record run")
	}
	return run, nil
}

func (s *Scheduler) dailyTask() {
	log.Info().Str("preset", s.Preset.ID).Msg("running daily screen")
	run, err := s.RunNow(s.Ctx, s.Preset)
	if err != nil {
		log.Error().Err(err).Msg("daily screen")
		s.trySend(fmt.Sprintf("❌ Daily screen failed: %v", err))
		return
	}
	s.trySend(notifier.FormatDigest(run, s.topN(s.Preset)))
}

func (s *Scheduler) topN(p screener.Preset) int {
	if p.Limit > 0 && p.Limit < s.TopN {
		return p.Limit
	}
	return s.TopN
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	// strip the @botname suffix used in group chats
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/top":
		rec, err := s.Recorder.LatestRun(ctx)
		if errors.Is(err, recorder.ErrNoRuns) {
			return "No screening run recorded yet. Try /screen " + s.Preset.ID
		}
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatLatestRun(rec, s.TopN)
	case "/lookup":
		if len(args) != 1 {
			return "Usage: /lookup SYMBOL"
		}
		report, err := s.Analyzer.Lookup(ctx, args[0])
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatLookup(report)
	case "/screen":
		p := s.Preset
		if len(args) > 0 {
			var ok bool
			if p, ok = screener.PresetByID(args[0]); !ok {
				return fmt.Sprintf("Unknown preset %q\n\n%s", args[0], notifier.FormatPresets(screener.Presets()))
			}
		}
		run, err := s.RunNow(ctx, p)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatDigest(run, s.topN(p))
	case "/presets":
		return notifier.FormatPresets(screener.Presets())
	default:
		return notifier.HelpText
	}
}

func (s *Scheduler) trySend(text string) {
	if !s.Notifier.Enabled() {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
