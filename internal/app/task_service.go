// Package app holds the thin service layer between the HTTP surface and the
// engine components.
package app

import (
	"github.com/cesargomez89/versecache/internal/domain"
	"github.com/cesargomez89/versecache/internal/queue"
	"github.com/cesargomez89/versecache/internal/store"
)

type TaskService struct {
	Repo    *store.DB
	Manager *queue.Manager
}

func NewTaskService(repo *store.DB, manager *queue.Manager) *TaskService {
	return &TaskService{Repo: repo, Manager: manager}
}

func (s *TaskService) EnqueueBook(bookID int, bookName string, background bool) (*domain.DownloadTask, error) {
	return s.Manager.Enqueue(queue.EnqueueRequest{
		Kind:       domain.TaskKindBook,
		BookID:     bookID,
		BookName:   bookName,
		Background: background,
	})
}

func (s *TaskService) EnqueueChapter(bookID int, bookName string, chapter int, background bool) (*domain.DownloadTask, error) {
	return s.Manager.Enqueue(queue.EnqueueRequest{
		Kind:       domain.TaskKindChapter,
		BookID:     bookID,
		BookName:   bookName,
		Chapter:    chapter,
		Background: background,
	})
}

func (s *TaskService) EnqueueVerseRange(bookID int, bookName string, chapter int, rng domain.VerseRange, background bool) (*domain.DownloadTask, error) {
	return s.Manager.Enqueue(queue.EnqueueRequest{
		Kind:       domain.TaskKindVerseRange,
		BookID:     bookID,
		BookName:   bookName,
		Chapter:    chapter,
		Verses:     rng,
		Background: background,
	})
}

func (s *TaskService) ListTasks() ([]domain.DownloadTask, error) {
	return s.Repo.ListTasks()
}

func (s *TaskService) ListActiveTasks() ([]domain.DownloadTask, error) {
	return s.Repo.ListActiveTasks()
}

func (s *TaskService) GetTask(id string) (*domain.DownloadTask, error) {
	return s.Repo.GetTask(id)
}

func (s *TaskService) CancelTask(id string) error { return s.Manager.Cancel(id) }
func (s *TaskService) RetryTask(id string) error  { return s.Manager.Retry(id) }
func (s *TaskService) PauseTask(id string) error  { return s.Manager.Pause(id) }
func (s *TaskService) ResumeTask(id string) error { return s.Manager.Resume(id) }
