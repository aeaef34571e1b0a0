package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	targetProcessed = "processed"
	targetError     = "error"
)

// Engine scans the inbox on the scheduler and delivers request files to online players. All
// ledger and queue work happens on the scheduler goroutine; only the status snapshot is shared.
type Engine struct {
	plugin     Plugin
	logger     runtime.Logger
	host       Host
	registry   ItemRegistry
	scheduler  Scheduler
	auth       AuthProvider
	languages  LanguageResolver
	translator Translator
	metrics    *Metrics
	publishers []Publisher
	now        func() time.Time

	config   *Config
	ledger   *RetryLedger
	credit   *CreditExecutor
	catalog  *LanguageCatalog
	pending  map[string]*pendingTransition
	cancel   context.CancelFunc
	lastTick *TickReport

	mu      sync.RWMutex
	enabled bool
	status  *Status
}

// pendingTransition is a file whose outcome is already decided but could not be moved out of
// the inbox. It is kept out of the pipeline until the move completes.
type pendingTransition struct {
	path       string
	target     string
	dstDir     string
	removeOnly bool
}

type inboxFile struct {
	name    string
	path    string
	modTime time.Time
}

// TickReport summarizes one inbox scan.
type TickReport struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Listed    int           `json:"listed"`
	Waiting   int           `json:"waiting"`
	Skipped   int           `json:"skipped"`
	Succeeded int           `json:"succeeded"`
	Retried   int           `json:"retried"`
	Failed    int           `json:"failed"`
	Deferred  int           `json:"deferred"`
}

// Terminal is the number of files that left the inbox, which is what the per-tick budget counts.
func (r TickReport) Terminal() int {
	return r.Succeeded + r.Failed
}

// NewEngine creates an engine. The optional collaborators default to AllowAllAuth,
// DefaultLanguage and the language catalog of the data folder.
func NewEngine(plugin Plugin, host Host, registry ItemRegistry, scheduler Scheduler) *Engine {
	return &Engine{
		plugin:    plugin,
		logger:    plugin.Logger(),
		host:      host,
		registry:  registry,
		scheduler: scheduler,
		auth:      AllowAllAuth{},
		languages: DefaultLanguage{},
		now:       time.Now,
		pending:   make(map[string]*pendingTransition),
	}
}

func (e *Engine) SetAuthProvider(auth AuthProvider) {
	e.auth = auth
}

func (e *Engine) SetLanguageResolver(languages LanguageResolver) {
	e.languages = languages
}

func (e *Engine) SetTranslator(translator Translator) {
	e.translator = translator
}

func (e *Engine) SetMetrics(metrics *Metrics) {
	e.metrics = metrics
}

func (e *Engine) AddPublisher(publisher Publisher) {
	e.publishers = append(e.publishers, publisher)
}

// SetClock replaces the wall clock used for backoff deadlines.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Config returns the active configuration, or nil while disabled.
func (e *Engine) Config() *Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// Enable loads the configuration and languages and schedules the scan every poll period.
func (e *Engine) Enable(ctx context.Context) error {
	e.mu.RLock()
	enabled := e.enabled
	e.mu.RUnlock()
	if enabled {
		return nil
	}

	cfg, err := LoadConfig(e.plugin)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if e.translator == nil {
		catalog, err := NewLanguageCatalog(e.plugin)
		if err != nil {
			return fmt.Errorf("failed to load languages: %w", err)
		}
		if err := catalog.Watch(); err != nil {
			e.logger.Warn("Language hot reload disabled: %v", err)
		}
		e.catalog = catalog
		e.translator = catalog
	}

	e.ledger = NewRetryLedger(cfg.MaxRetries, cfg.InitialRetryDelay(), cfg.MaxRetryDelay())
	e.credit = NewCreditExecutor(e.registry)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel

	e.mu.Lock()
	e.config = cfg
	e.enabled = true
	e.status = &Status{Enabled: true, Inbox: []InboxEntry{}}
	e.mu.Unlock()

	if err := e.scheduler.ScheduleRepeating(cfg.PollInterval(), func() { e.Tick(runCtx) }); err != nil {
		e.Disable()
		return fmt.Errorf("failed to schedule inbox scan: %w", err)
	}

	e.logger.Info("Withdrawal engine enabled. Polling every %ds, up to %d files per cycle, %d retries, inventory retry after %ds.",
		cfg.PollSeconds, cfg.MaxFilesPerCycle, cfg.MaxRetries, cfg.InitialInventoryRetryDelaySeconds)
	return nil
}

// Disable cancels the scan, drops the ledger and finishes pending source removals. Safe to call
// more than once.
func (e *Engine) Disable() {
	e.mu.Lock()
	if !e.enabled {
		e.mu.Unlock()
		return
	}
	e.enabled = false
	e.mu.Unlock()

	e.scheduler.CancelAll()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}

	e.retryPendingTransitions(true)
	e.ledger.Reset()

	if e.catalog != nil {
		if err := e.catalog.Close(); err != nil {
			e.logger.Warn("Failed to stop language watcher: %v", err)
		}
		e.translator = nil
		e.catalog = nil
	}

	e.mu.Lock()
	e.status = &Status{Enabled: false, Inbox: []InboxEntry{}}
	e.mu.Unlock()
	e.logger.Info("Withdrawal engine disabled.")
}

// Tick runs one scan of the inbox. It is called by the scheduler and must not run concurrently
// with itself.
func (e *Engine) Tick(ctx context.Context) TickReport {
	report := TickReport{StartedAt: e.now()}
	started := time.Now()

	if e.catalog != nil && e.catalog.ReloadIfChanged() {
		e.logger.Info("Reloaded languages: %s", strings.Join(e.catalog.Languages(), ", "))
	}
	e.retryPendingTransitions(false)

	files, err := e.listInbox()
	if err != nil {
		e.logger.Warn("Failed to list inbox %s: %v", e.config.InboxPath(), err)
		return report
	}
	report.Listed = len(files)

	present := make(map[string]struct{}, len(files))
	for _, f := range files {
		present[f.name] = struct{}{}
	}
	e.ledger.Prune(present)

	for _, f := range files {
		if report.Terminal() >= e.config.MaxFilesPerCycle {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if e.ledger.Deferred(f.name, e.now()) {
			report.Waiting++
			continue
		}

		outcome, req := e.processFile(ctx, f)
		e.metrics.RecordOutcome(outcome)
		e.applyOutcome(ctx, f, req, outcome, &report)
	}

	report.Duration = time.Since(started)
	e.metrics.RecordTick(report.Duration, len(files), e.ledger.Len())
	e.publishStatus(files, report)
	return report
}

func (e *Engine) listInbox() ([]inboxFile, error) {
	dir := e.config.InboxPath()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]inboxFile, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.EqualFold(filepath.Ext(name), ".json") {
			continue
		}
		if _, ok := e.pending[name]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		files = append(files, inboxFile{name: name, path: filepath.Join(dir, name), modTime: info.ModTime()})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.Before(files[j].modTime)
		}
		return files[i].name < files[j].name
	})
	return files, nil
}

// processFile runs the delivery pipeline for one file. A panic anywhere in the pipeline is a
// hard failure of that file.
func (e *Engine) processFile(ctx context.Context, f inboxFile) (outcome Outcome, req *WithdrawalRequest) {
	logger := e.logger.WithField("file", f.name)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Unexpected error processing %s: %v", f.name, r)
			outcome = OutcomeRetry
		}
	}()

	req, err := ReadRequestFile(f.path)
	if err != nil {
		logger.Warn("Invalid request file %s: %v", f.name, err)
		return OutcomeRetry, nil
	}

	player, err := e.host.Player(ctx, req.Username)
	if err != nil {
		logger.Warn("Failed to look up player %s: %v", req.Username, err)
		return OutcomeSkip, req
	}
	if player == nil || !player.IsOnline() {
		return OutcomeSkip, req
	}
	if !e.auth.IsAuthenticated(ctx, player) {
		logger.Debug("Player %s is not authenticated yet", player.Name())
		return OutcomeSkip, req
	}

	lang := e.languages.PlayerLanguage(ctx, player)
	if lang == "" {
		lang = DefaultLang
	}

	snapshot, err := player.Inventory().Contents(ctx)
	if err != nil {
		logger.Warn("Failed to read inventory of %s: %v", player.Name(), err)
		return OutcomeSkip, req
	}

	if !CanFitAll(snapshot, e.registry, req.Items) {
		delay := e.ledger.RecordDeferred(f.name, e.now())
		e.sendMessage(ctx, logger, player, lang, "error.inventory_full_retry", map[string]string{
			"seconds": strconv.FormatInt(int64(delay/time.Second), 10),
		})
		logger.Info("Inventory of %s is full, retrying %s in %v", player.Name(), f.name, delay)
		return OutcomeDeferred, req
	}

	credited, err := e.credit.Credit(ctx, logger, player, req.Items)
	e.metrics.RecordCredited(credited)
	if err != nil {
		return OutcomeRetry, req
	}

	e.sendMessage(ctx, logger, player, lang, "success.withdrawal", map[string]string{
		"summary": Summarize(e.registry, req.Items),
	})
	logger.Info("Delivered %s to %s", f.name, player.Name())
	return OutcomeSuccess, req
}

func (e *Engine) sendMessage(ctx context.Context, logger runtime.Logger, player Player, lang, key string, placeholders map[string]string) {
	msg := e.translator.Get(lang, key, placeholders)
	if err := player.SendMessage(ctx, msg); err != nil {
		logger.Warn("Failed to send message to %s: %v", player.Name(), err)
	}
}

func (e *Engine) applyOutcome(ctx context.Context, f inboxFile, req *WithdrawalRequest, outcome Outcome, report *TickReport) {
	switch outcome {
	case OutcomeSuccess:
		report.Succeeded++
		e.ledger.RecordSuccess(f.name)
		e.transition(f, targetProcessed, e.config.ProcessedPath())
		e.publish(ctx, EventDelivered, f, req, 0)
	case OutcomeRetry:
		attempts, exhausted := e.ledger.RecordRetry(f.name)
		if !exhausted {
			report.Retried++
			e.logger.Info("Request %s failed, attempt %d of %d", f.name, attempts, e.config.MaxRetries)
			return
		}
		report.Failed++
		e.logger.Warn("Request %s failed %d times, moving to error folder", f.name, attempts)
		e.transition(f, targetError, e.config.ErrorPath())
		e.publish(ctx, EventFailed, f, req, attempts)
	case OutcomeDeferred:
		report.Deferred++
		var attempt int
		for _, entry := range e.ledger.Entries() {
			if entry.File == f.name && entry.Backoff != nil {
				attempt = entry.Backoff.Attempt
			}
		}
		e.publish(ctx, EventDeferred, f, req, attempt)
	default:
		report.Skipped++
	}
}

// transition moves the file out of the inbox. A failed move is retried at the start of the next
// ticks without running the pipeline again.
func (e *Engine) transition(f inboxFile, target, dstDir string) {
	err := MoveFile(f.path, dstDir)
	e.metrics.RecordTransition(target, err)
	if err == nil {
		return
	}
	e.logger.Error("Failed to move %s to %s folder: %v", f.name, target, err)
	e.pending[f.name] = &pendingTransition{
		path:       f.path,
		target:     target,
		dstDir:     dstDir,
		removeOnly: errors.Is(err, errSourceRemain),
	}
}

func (e *Engine) retryPendingTransitions(final bool) {
	for name, p := range e.pending {
		var err error
		if p.removeOnly {
			err = os.Remove(p.path)
			if os.IsNotExist(err) {
				err = nil
			}
		} else {
			err = MoveFile(p.path, p.dstDir)
			if errors.Is(err, errSourceRemain) {
				p.removeOnly = true
			}
		}
		if err == nil {
			delete(e.pending, name)
			continue
		}
		if final {
			e.logger.Error("Could not finish moving %s to %s folder: %v", name, p.target, err)
		}
	}
	if final {
		clear(e.pending)
	}
}

func (e *Engine) publish(ctx context.Context, name string, f inboxFile, req *WithdrawalRequest, attempts int) {
	if len(e.publishers) == 0 {
		return
	}
	event := &DeliveryEvent{
		Name:      name,
		Id:        uuid.NewString(),
		Timestamp: e.now().UnixMilli(),
		File:      f.name,
		Attempts:  attempts,
	}
	if req != nil {
		event.Username = req.Username
		event.Metadata = map[string]string{
			"action": req.Action,
			"items":  strconv.Itoa(len(req.Items)),
		}
	}
	events := []*DeliveryEvent{event}
	for _, p := range e.publishers {
		p.Send(ctx, e.logger, events)
	}
}

func timeFromMillis(millis int64) time.Time {
	return time.UnixMilli(millis).UTC()
}
