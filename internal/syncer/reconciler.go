// Package syncer refreshes already-downloaded content against the upstream so
// long-offline devices converge back to current text.
package syncer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cesargomez89/versecache/internal/bible"
	"github.com/cesargomez89/versecache/internal/constants"
	"github.com/cesargomez89/versecache/internal/domain"
	"github.com/cesargomez89/versecache/internal/events"
	"github.com/cesargomez89/versecache/internal/logger"
	"github.com/cesargomez89/versecache/internal/store"
)

// ConnectionGate is the admission check consulted before a sync pass.
type ConnectionGate interface {
	SuitableForDownloads() bool
}

type Reconciler struct {
	fetcher  bible.Fetcher
	gate     ConnectionGate
	hub      *events.Hub
	ctx      context.Context
	Repo     *store.DB
	Settings *store.SettingsRepo
	Logger   *logger.Logger
	cancel   context.CancelFunc

	// Tuning knobs, overridable before Start.
	SyncInterval time.Duration
	ItemDelay    time.Duration
	StaleAge     time.Duration

	syncing atomic.Bool
	wg      sync.WaitGroup
}

func NewReconciler(repo *store.DB, settings *store.SettingsRepo, fetcher bible.Fetcher, gate ConnectionGate, hub *events.Hub, log *logger.Logger) *Reconciler {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.Default()
	}

	return &Reconciler{
		Repo:         repo,
		Settings:     settings,
		fetcher:      fetcher,
		gate:         gate,
		hub:          hub,
		Logger:       log.WithComponent("syncer"),
		SyncInterval: constants.DefaultSyncInterval,
		ItemDelay:    constants.SyncItemDelay,
		StaleAge:     constants.StaleContentAge,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (r *Reconciler) Start() {
	r.Logger.Info("Starting sync reconciler", "interval", r.SyncInterval)
	r.wg.Add(1)
	go r.run()
}

func (r *Reconciler) Stop() {
	r.Logger.Info("Stopping sync reconciler")
	r.cancel()
	r.wg.Wait()
}

func (r *Reconciler) run() {
	defer r.wg.Done()

	// Check hourly whether the interval has elapsed rather than arming one
	// long timer; survives clock suspend on mobile-ish hosts.
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			last, err := r.Settings.GetTime(store.SettingLastSyncAt)
			if err != nil {
				r.Logger.Error("Failed to read last sync time", "error", err)
				continue
			}
			if time.Since(last) < r.SyncInterval {
				continue
			}
			r.PerformFullSync(r.ctx)
		}
	}
}

// PerformFullSync refreshes every offline content record from the upstream.
// Only one pass runs at a time; concurrent calls return a skipped report.
func (r *Reconciler) PerformFullSync(ctx context.Context) domain.SyncReport {
	report := domain.SyncReport{StartedAt: time.Now()}

	if !r.syncing.CompareAndSwap(false, true) {
		report.Result = domain.SyncResultSkipped
		report.FinishedAt = time.Now()
		return report
	}
	defer r.syncing.Store(false)

	if !r.gate.SuitableForDownloads() {
		r.Logger.Info("Skipping sync, connection not suitable")
		report.Result = domain.SyncResultFailed
		report.FinishedAt = time.Now()
		return report
	}

	records, err := r.Repo.ListContent()
	if err != nil {
		r.Logger.Error("Failed to list offline content", "error", err)
		report.Result = domain.SyncResultFailed
		report.FinishedAt = time.Now()
		return report
	}

	r.Logger.Info("Full sync started", "records", len(records))

	for i := range records {
		if ctx.Err() != nil {
			break
		}

		if err := r.refreshRecord(ctx, &records[i]); err != nil {
			r.Logger.Warn("Failed to refresh content", "content_id", records[i].ID, "error", err)
			report.Failed++
		} else {
			report.Refreshed++
		}

		// Pace requests so a large catalog does not hammer the upstream.
		select {
		case <-ctx.Done():
		case <-time.After(r.ItemDelay):
		}
	}

	switch {
	case report.Failed == 0:
		report.Result = domain.SyncResultSuccess
	case report.Refreshed == 0 && len(records) > 0:
		report.Result = domain.SyncResultFailed
	default:
		report.Result = domain.SyncResultPartial
	}
	report.FinishedAt = time.Now()

	if report.Result != domain.SyncResultFailed {
		if err := r.Settings.SetTime(store.SettingLastSyncAt, report.FinishedAt); err != nil {
			r.Logger.Error("Failed to persist sync time", "error", err)
		}
	}

	r.Logger.Info("Full sync finished",
		"result", report.Result,
		"refreshed", report.Refreshed,
		"failed", report.Failed,
	)
	return report
}

// refreshRecord re-downloads the verses behind one content record. Chapter
// records take one fetch; whole-book records walk every chapter and only
// count as refreshed when all of them land.
func (r *Reconciler) refreshRecord(ctx context.Context, rec *domain.OfflineContent) error {
	meta := &domain.BookMeta{ID: rec.BookID, Name: rec.BookName, Testament: rec.Testament}

	if rec.Chapter != nil {
		loaded, size, err := r.refreshChapter(ctx, rec.BookID, *rec.Chapter, meta)
		if err != nil {
			return err
		}
		rec.VersesLoaded = loaded
		rec.VersesExpected = loaded
		rec.SizeBytes = size
		rec.Complete = true
		rec.Status = domain.TaskStatusCompleted
		rec.DownloadedAt = time.Now()
		return r.storeRecord(rec)
	}

	chapters, err := r.fetcher.GetChapters(ctx, rec.BookID)
	if err != nil {
		return err
	}

	loaded := 0
	expected := 0
	var size int64
	var lastErr error

	for _, ch := range chapters {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		expected += ch.Verses
		n, s, chErr := r.refreshChapter(ctx, rec.BookID, ch.Number, meta)
		if chErr != nil {
			lastErr = chErr
			continue
		}
		loaded += n
		size += s
	}

	rec.VersesLoaded = loaded
	rec.VersesExpected = expected
	rec.SizeBytes = size
	rec.Complete = lastErr == nil
	rec.DownloadedAt = time.Now()
	if rec.Complete {
		rec.Status = domain.TaskStatusCompleted
	} else {
		rec.Status = domain.TaskStatusFailed
	}
	if err := r.storeRecord(rec); err != nil {
		return err
	}
	return lastErr
}

func (r *Reconciler) refreshChapter(ctx context.Context, bookID, chapter int, meta *domain.BookMeta) (int, int64, error) {
	verses, fetchedMeta, err := r.fetcher.GetVerses(ctx, bookID, chapter, domain.DefaultRange)
	if err != nil {
		return 0, 0, err
	}
	if fetchedMeta != nil {
		meta = fetchedMeta
	}
	if err := r.Repo.StoreVerses(verses, meta); err != nil {
		return 0, 0, err
	}

	var size int64
	for _, v := range verses {
		size += int64(len(v.Text))
	}
	return len(verses), size, nil
}

func (r *Reconciler) storeRecord(rec *domain.OfflineContent) error {
	if err := r.Repo.UpsertContent(rec); err != nil {
		return err
	}
	if r.hub != nil {
		r.hub.PublishContent(rec)
	}
	return nil
}

// CheckForUpdates lists content old enough to be worth refreshing, without
// touching the network.
func (r *Reconciler) CheckForUpdates() ([]domain.OfflineContent, error) {
	return r.Repo.ListStaleContent(time.Now().Add(-r.StaleAge))
}

// LastSyncAt returns the time of the last non-failed sync pass, zero when
// none has run.
func (r *Reconciler) LastSyncAt() (time.Time, error) {
	return r.Settings.GetTime(store.SettingLastSyncAt)
}
