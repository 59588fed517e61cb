// Package queue schedules download tasks: a persisted task table polled by a
// single scheduler goroutine that promotes pending work under a concurrency
// cap, gated by connection quality.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/versecache/internal/bible"
	"github.com/cesargomez89/versecache/internal/constants"
	"github.com/cesargomez89/versecache/internal/domain"
	"github.com/cesargomez89/versecache/internal/events"
	"github.com/cesargomez89/versecache/internal/logger"
	"github.com/cesargomez89/versecache/internal/store"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrDuplicateTask  = errors.New("an active task already targets this content")
	ErrInvalidState   = errors.New("task is not in a state that allows this transition")
	errTaskVanished   = errors.New("task removed while running")
	errTaskPaused     = errors.New("task paused while running")
	errNothingFetched = errors.New("no verses fetched")
)

// ConnectionGate is the admission check consulted before starting new work.
type ConnectionGate interface {
	SuitableForDownloads() bool
}

type EnqueueRequest struct {
	Kind       domain.TaskKind
	BookID     int
	BookName   string
	Chapter    int
	Verses     domain.VerseRange // zero value means the default range
	Background bool
}

type Manager struct {
	fetcher bible.Fetcher
	gate    ConnectionGate
	hub     *events.Hub
	ctx     context.Context
	Repo    *store.DB
	Logger  *logger.Logger
	cancel  context.CancelFunc

	// Tuning knobs, overridable before Start.
	MaxConcurrent int
	MaxRetries    int
	PollInterval  time.Duration
	RetryBase     time.Duration

	// targets holds the (book, chapter) units currently being written so two
	// running tasks never race on the same rows.
	targets map[string]struct{}
	mu      sync.Mutex
	wg      sync.WaitGroup
}

func NewManager(repo *store.DB, fetcher bible.Fetcher, gate ConnectionGate, hub *events.Hub, log *logger.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.Default()
	}

	return &Manager{
		Repo:          repo,
		fetcher:       fetcher,
		gate:          gate,
		hub:           hub,
		Logger:        log.WithComponent("queue"),
		MaxConcurrent: constants.DefaultConcurrency,
		MaxRetries:    constants.DefaultMaxRetries,
		PollInterval:  constants.DefaultPollInterval,
		RetryBase:     constants.DefaultRetryBase,
		targets:       make(map[string]struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (m *Manager) Start() {
	m.Logger.Info("Starting download queue")

	if err := m.Repo.ResetStuckTasks(); err != nil {
		m.Logger.Error("Failed to reset stuck tasks", "error", err)
	}
	if purged, err := m.Repo.PurgeFinishedTasks(constants.TaskRetention); err != nil {
		m.Logger.Error("Failed to purge finished tasks", "error", err)
	} else if purged > 0 {
		m.Logger.Info("Purged finished tasks", "count", purged)
	}

	m.wg.Add(1)
	go m.schedule()
}

func (m *Manager) Stop() {
	m.Logger.Info("Stopping download queue")
	m.cancel()
	m.wg.Wait()
}

// Enqueue persists a new pending task. Enqueueing is always allowed, even
// offline; the scheduler holds the work until the connection permits it.
func (m *Manager) Enqueue(req EnqueueRequest) (*domain.DownloadTask, error) {
	// An unset range means "whatever the chapter has"; Range() widens it at
	// execution time.
	rng := req.Verses
	if req.Kind == domain.TaskKindVerseRange && rng != (domain.VerseRange{}) {
		if err := rng.Validate(); err != nil {
			return nil, err
		}
	}

	existing, err := m.Repo.GetActiveTaskForTarget(req.Kind, req.BookID, req.Chapter)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, ErrDuplicateTask
	}

	task := &domain.DownloadTask{
		ID:         uuid.New().String(),
		Kind:       req.Kind,
		Status:     domain.TaskStatusPending,
		BookID:     req.BookID,
		BookName:   req.BookName,
		Chapter:    req.Chapter,
		VerseStart: rng.Start,
		VerseEnd:   rng.End,
		Background: req.Background,
		CreatedAt:  time.Now(),
	}

	if err := m.Repo.CreateTask(task); err != nil {
		return nil, err
	}

	m.Logger.Info("Task enqueued", "task_id", task.ID, "kind", task.Kind, "book_id", task.BookID, "chapter", task.Chapter)
	m.hub.PublishTask(task, "")
	return task, nil
}

// Pause holds a task out of scheduling. A task already downloading stops at
// its next chapter boundary.
func (m *Manager) Pause(id string) error {
	task, err := m.Repo.GetTask(id)
	if err != nil {
		return err
	}
	if task == nil {
		return ErrTaskNotFound
	}
	if task.Status != domain.TaskStatusPending && task.Status != domain.TaskStatusDownloading {
		return ErrInvalidState
	}

	if err := m.Repo.UpdateTaskStatus(id, domain.TaskStatusPaused); err != nil {
		return err
	}

	task.Status = domain.TaskStatusPaused
	m.hub.PublishTask(task, "")
	return nil
}

func (m *Manager) Resume(id string) error {
	task, err := m.Repo.GetTask(id)
	if err != nil {
		return err
	}
	if task == nil {
		return ErrTaskNotFound
	}
	if task.Status != domain.TaskStatusPaused {
		return ErrInvalidState
	}

	if err := m.Repo.UpdateTaskStatus(id, domain.TaskStatusPending); err != nil {
		return err
	}

	task.Status = domain.TaskStatusPending
	m.hub.PublishTask(task, "")
	return nil
}

// Cancel removes a task. A running execution notices the missing row and
// discards its results.
func (m *Manager) Cancel(id string) error {
	task, err := m.Repo.GetTask(id)
	if err != nil {
		return err
	}
	if task == nil {
		return ErrTaskNotFound
	}
	if task.Status.Terminal() {
		return ErrInvalidState
	}

	if err := m.Repo.RemoveTask(id); err != nil {
		return err
	}

	m.Logger.Info("Task cancelled", "task_id", id)
	task.Status = domain.TaskStatusFailed
	msg := "cancelled by user"
	task.Error = &msg
	m.hub.PublishTask(task, msg)
	return nil
}

// Retry re-queues a failed task with a fresh retry budget.
func (m *Manager) Retry(id string) error {
	task, err := m.Repo.GetTask(id)
	if err != nil {
		return err
	}
	if task == nil {
		return ErrTaskNotFound
	}
	if task.Status != domain.TaskStatusFailed {
		return ErrInvalidState
	}

	task.Status = domain.TaskStatusPending
	task.RetryCount = 0
	task.Error = nil
	task.Progress = 0
	task.ItemsDone = 0
	task.StartedAt = nil
	task.CompletedAt = nil

	if err := m.Repo.UpdateTask(task); err != nil {
		return err
	}

	m.hub.PublishTask(task, "")
	return nil
}

func (m *Manager) schedule() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, m.MaxConcurrent)

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.gate.SuitableForDownloads() {
				continue
			}

			tasks, err := m.Repo.ListActiveTasks()
			if err != nil {
				m.Logger.Error("Failed to list active tasks", "error", err)
				continue
			}

			if len(tasks) == 0 {
				continue
			}

			activeCount := 0
			pending := []*domain.DownloadTask{}

			for i := range tasks {
				switch tasks[i].Status {
				case domain.TaskStatusDownloading:
					activeCount++
				case domain.TaskStatusPending:
					pending = append(pending, &tasks[i])
				}
			}

			toStart := m.MaxConcurrent - activeCount
			if toStart <= 0 || len(pending) == 0 {
				continue
			}

			for _, task := range pending {
				if toStart <= 0 {
					break
				}
				if !m.claimTarget(task) {
					continue
				}

				toStart--
				sem <- struct{}{}
				m.wg.Add(1)
				go func(t *domain.DownloadTask) {
					defer m.wg.Done()
					defer func() { <-sem }()
					defer m.releaseTarget(t)
					m.runTask(m.ctx, t)
				}(task)
			}
		}
	}
}

func targetKey(t *domain.DownloadTask) string {
	return fmt.Sprintf("%d:%d", t.BookID, t.Chapter)
}

func (m *Manager) claimTarget(t *domain.DownloadTask) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := targetKey(t)
	if _, taken := m.targets[key]; taken {
		return false
	}
	m.targets[key] = struct{}{}
	return true
}

func (m *Manager) releaseTarget(t *domain.DownloadTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.targets, targetKey(t))
}

func (m *Manager) runTask(ctx context.Context, task *domain.DownloadTask) {
	defer func() {
		if r := recover(); r != nil {
			m.Logger.Error("Panic in task", "task_id", task.ID, "panic", r)
			m.recordFailure(task, fmt.Sprintf("panic: %v", r))
		}
	}()

	logger := m.Logger.WithTask(task.ID, string(task.Kind))

	// Cancel may have removed the row between listing and starting.
	current, err := m.Repo.GetTask(task.ID)
	if err != nil {
		logger.Error("Failed to load task before starting", "error", err)
		return
	}
	if current == nil || current.Status != domain.TaskStatusPending {
		return
	}
	task = current

	logger.Info("Running task", "book_id", task.BookID, "chapter", task.Chapter)

	now := time.Now()
	task.Status = domain.TaskStatusDownloading
	task.StartedAt = &now
	if err := m.Repo.UpdateTask(task); err != nil {
		logger.Error("Failed to mark task downloading", "error", err)
		return
	}
	m.hub.PublishTask(task, "")

	switch task.Kind {
	case domain.TaskKindBook:
		err = m.executeBook(ctx, task)
	case domain.TaskKindChapter, domain.TaskKindVerseRange:
		err = m.executeChapter(ctx, task)
	default:
		err = fmt.Errorf("unknown task kind %q", task.Kind)
	}

	switch {
	case err == nil:
		m.completeTask(task)
	case errors.Is(err, errTaskVanished):
		logger.Info("Task removed mid-run, results discarded")
	case errors.Is(err, errTaskPaused):
		logger.Info("Task paused mid-run")
	case errors.Is(err, context.Canceled):
		// Shutdown; ResetStuckTasks requeues on next start.
	default:
		logger.Warn("Task failed", "error", err)
		m.retryOrFail(ctx, task, err)
	}
}

// executeChapter downloads one chapter, or a verse slice of one.
func (m *Manager) executeChapter(ctx context.Context, task *domain.DownloadTask) error {
	rng := task.Range()

	verses, meta, err := m.fetcher.GetVerses(ctx, task.BookID, task.Chapter, rng)
	if err != nil {
		return err
	}

	if task.Kind == domain.TaskKindVerseRange {
		filtered := verses[:0]
		for _, v := range verses {
			if rng.Contains(v.Verse) {
				filtered = append(filtered, v)
			}
		}
		verses = filtered
	}

	if len(verses) == 0 {
		return errNothingFetched
	}

	if sawTask, err := m.reloadForWrite(task.ID); err != nil {
		return err
	} else if sawTask == nil {
		return errTaskVanished
	}

	if err := m.storeVersesBatched(task, verses, meta); err != nil {
		return err
	}

	task.ItemsDone = len(verses)
	task.ItemsTotal = len(verses)

	m.recordContent(task, task.Chapter, len(verses), len(verses), true, versesSize(verses))
	return nil
}

func versesSize(verses []domain.Verse) int64 {
	var size int64
	for _, v := range verses {
		size += int64(len(v.Text))
	}
	return size
}

// executeBook walks every chapter of the book, continuing past individual
// chapter failures and marking the book record incomplete when any failed.
func (m *Manager) executeBook(ctx context.Context, task *domain.DownloadTask) error {
	logger := m.Logger.WithTask(task.ID, string(task.Kind))

	chapters, err := m.fetcher.GetChapters(ctx, task.BookID)
	if err != nil {
		return err
	}
	if len(chapters) == 0 {
		return fmt.Errorf("book %d has no chapters", task.BookID)
	}

	// Counters restart on every pass so a retried task does not stack its
	// progress on top of the previous attempt's persisted values.
	task.ItemsTotal = 0
	for _, ch := range chapters {
		task.ItemsTotal += ch.Verses
	}
	task.ItemsDone = 0
	task.Progress = 0
	if err := m.Repo.UpdateTask(task); err != nil {
		return err
	}

	failed := 0
	loaded := 0
	var totalSize int64

	for i, ch := range chapters {
		current, err := m.reloadForWrite(task.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return errTaskVanished
		}
		if current.Status == domain.TaskStatusPaused {
			return errTaskPaused
		}

		verses, meta, chErr := m.fetcher.GetVerses(ctx, task.BookID, ch.Number, domain.DefaultRange)
		if chErr != nil {
			if errors.Is(chErr, context.Canceled) {
				return chErr
			}
			logger.Warn("Chapter download failed, continuing", "chapter", ch.Number, "error", chErr)
			failed++
		} else if len(verses) > 0 {
			if err := m.storeVersesBatched(task, verses, meta); err != nil {
				return err
			}
			size := versesSize(verses)
			loaded += len(verses)
			totalSize += size
			m.recordContent(task, ch.Number, len(verses), len(verses), true, size)
		} else {
			failed++
		}

		task.ItemsDone = loaded
		if task.ItemsTotal > 0 {
			task.Progress = float64(loaded) / float64(task.ItemsTotal) * 100
		}
		if err := m.Repo.UpdateTask(task); err != nil {
			return err
		}
		m.hub.PublishTask(task, fmt.Sprintf("Downloaded chapter %d of %d", i+1, len(chapters)))
	}

	if failed == len(chapters) {
		return fmt.Errorf("all %d chapters failed", len(chapters))
	}

	m.recordContent(task, 0, loaded, task.ItemsTotal, failed == 0, totalSize)

	if failed > 0 {
		logger.Warn("Book downloaded with failed chapters", "failed", failed, "total", len(chapters))
	}
	return nil
}

// storeVersesBatched writes verses in fixed-size batches so a large chapter
// never holds one long transaction.
func (m *Manager) storeVersesBatched(task *domain.DownloadTask, verses []domain.Verse, meta *domain.BookMeta) error {
	if meta == nil {
		meta = &domain.BookMeta{ID: task.BookID, Name: task.BookName}
	}
	for start := 0; start < len(verses); start += constants.VerseBatchSize {
		end := start + constants.VerseBatchSize
		if end > len(verses) {
			end = len(verses)
		}
		if err := m.Repo.StoreVerses(verses[start:end], meta); err != nil {
			return err
		}
	}
	return nil
}

// recordContent upserts the completion record for a logical unit. chapter 0
// means the whole book.
func (m *Manager) recordContent(task *domain.DownloadTask, chapter, loaded, expected int, complete bool, size int64) {
	content := &domain.OfflineContent{
		BookID:         task.BookID,
		BookName:       task.BookName,
		VersesLoaded:   loaded,
		VersesExpected: expected,
		Complete:       complete,
		SizeBytes:      size,
		Status:         domain.TaskStatusCompleted,
		DownloadedAt:   time.Now(),
		LastAccessedAt: time.Now(),
	}
	if chapter > 0 {
		ch := chapter
		content.Chapter = &ch
		content.ID = fmt.Sprintf("%d-%d", task.BookID, chapter)
	} else {
		content.ID = fmt.Sprintf("%d", task.BookID)
	}
	if !complete {
		content.Status = domain.TaskStatusFailed
	}

	if err := m.Repo.UpsertContent(content); err != nil {
		m.Logger.Error("Failed to record offline content", "content_id", content.ID, "error", err)
		return
	}
	m.hub.PublishContent(content)
}

// reloadForWrite fetches the current row, distinguishing "removed" (nil, nil)
// from lookup errors.
func (m *Manager) reloadForWrite(id string) (*domain.DownloadTask, error) {
	return m.Repo.GetTask(id)
}

func (m *Manager) completeTask(task *domain.DownloadTask) {
	current, err := m.Repo.GetTask(task.ID)
	if err != nil || current == nil {
		return
	}

	now := time.Now()
	task.Status = domain.TaskStatusCompleted
	task.Progress = 100
	task.Error = nil
	task.CompletedAt = &now

	if err := m.Repo.UpdateTask(task); err != nil {
		m.Logger.Error("Failed to mark task completed", "task_id", task.ID, "error", err)
		return
	}

	m.Logger.WithTask(task.ID, string(task.Kind)).Info("Task completed")
	m.hub.PublishTask(task, "")
}

// retryOrFail returns the task to pending with a linear backoff, or marks it
// terminally failed once the retry budget is spent.
func (m *Manager) retryOrFail(ctx context.Context, task *domain.DownloadTask, cause error) {
	task.RetryCount++

	if task.RetryCount >= m.MaxRetries {
		m.recordFailure(task, cause.Error())
		return
	}

	backoff := time.Duration(task.RetryCount) * m.RetryBase
	select {
	case <-ctx.Done():
		return
	case <-time.After(backoff):
	}

	current, err := m.Repo.GetTask(task.ID)
	if err != nil || current == nil {
		return
	}

	msg := cause.Error()
	task.Status = domain.TaskStatusPending
	task.Error = &msg

	if err := m.Repo.UpdateTask(task); err != nil {
		m.Logger.Error("Failed to requeue task", "task_id", task.ID, "error", err)
		return
	}

	m.Logger.WithTask(task.ID, string(task.Kind)).Info("Task requeued", "retry", task.RetryCount, "backoff", backoff)
	m.hub.PublishTask(task, "")
}

func (m *Manager) recordFailure(task *domain.DownloadTask, msg string) {
	current, err := m.Repo.GetTask(task.ID)
	if err != nil || current == nil {
		return
	}

	now := time.Now()
	task.Status = domain.TaskStatusFailed
	task.Error = &msg
	task.CompletedAt = &now

	if err := m.Repo.UpdateTask(task); err != nil {
		m.Logger.Error("Failed to mark task failed", "task_id", task.ID, "error", err)
		return
	}

	m.Logger.WithTask(task.ID, string(task.Kind)).Error("Task failed permanently", "error", msg)
	m.hub.PublishTask(task, "")
}
