package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"VCPSentinel/internal/notifier"
	"VCPSentinel/internal/recorder"
	"VCPSentinel/internal/scanner"
	"VCPSentinel/internal/state"
)

const recentEventLimit = 10

// Sender delivers formatted messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the scan on a cron schedule and answers bot commands.
type Scheduler struct {
	Cron     *cron.Cron
	Scanner  *scanner.Scanner
	Symbols  []string
	Notifier Sender
	Store    state.Store
	Recorder recorder.Recorder
	Ctx      context.Context

	scanning sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, symbols []string, tn Sender, store state.Store, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Scanner:  sc,
		Symbols:  symbols,
		Notifier: tn,
		Store:    store,
		Recorder: rec,
		Ctx:      ctx,
	}
}

// Register adds the scan task.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running scan.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the scan immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	s.scan(s.Symbols)
}

// scan runs one scan unless another is in progress, and reports whether it ran.
func (s *Scheduler) scan(symbols []string) bool {
	if !s.scanning.TryLock() {
		log.Println("[WARN] scan already running, skipping")
		return false
	}
	defer s.scanning.Unlock()

	log.Printf("[INFO] running scan over %d symbols", len(symbols))
	rep, err := s.Scanner.Scan(s.Ctx, symbols)
	if err != nil {
		log.Printf("[ERROR] scan: %v", err)
		s.trySend(notifier.FormatError("VCP 扫描", err))
		return true
	}
	s.trySend(notifier.FormatScanReport(rep))
	return true
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	switch fields[0] {
	case "/scan", "扫描":
		symbols := s.Symbols
		if len(fields) > 1 {
			symbols = make([]string, 0, len(fields)-1)
			for _, f := range fields[1:] {
				symbols = append(symbols, strings.ToUpper(f))
			}
		}
		if !s.scan(symbols) {
			return "⏳ 扫描进行中, 请稍后再试"
		}
		return ""
	case "/status", "状态":
		states, err := s.Store.All(s.Ctx)
		if err != nil {
			log.Printf("[ERROR] load states: %v", err)
			return notifier.FormatError("读取状态", err)
		}
		return notifier.FormatStatus(states)
	case "/events", "信号":
		events, err := s.Recorder.RecentEvents(recentEventLimit)
		if err != nil {
			log.Printf("[ERROR] load events: %v", err)
			return notifier.FormatError("读取信号", err)
		}
		return notifier.FormatRecentEvents(events)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
