// Package taskqueue is a small JSON-backed task list for queueing agent
// work. At most one task is in progress at a time.
package taskqueue

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"trackd/internal/atomicfile"
)

// Task statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// priorityRank orders pending tasks; unknown priorities sort as normal.
var priorityRank = map[string]int{
	"urgent": 0,
	"high":   1,
	"normal": 2,
	"low":    3,
}

// Task is one queued unit of work.
type Task struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Priority      string   `json:"priority"`
	Status        string   `json:"status"`
	CreatedAt     string   `json:"created_at"`
	StartedAt     string   `json:"started_at,omitempty"`
	CompletedAt   string   `json:"completed_at,omitempty"`
	Agent         string   `json:"agent"`
	Tags          []string `json:"tags,omitempty"`
	EstimatedTime string   `json:"estimated_time,omitempty"`
}

// Queue manages the task file.
type Queue struct {
	Path string
	Now  func() time.Time

	tasks map[string]Task
}

type queueFile struct {
	Tasks       map[string]Task `json:"tasks"`
	LastUpdated string          `json:"last_updated"`
}

// Open loads the queue at path, creating an empty one if the file is
// missing.
func Open(path string) (*Queue, error) {
	q := &Queue{Path: path, Now: time.Now, tasks: map[string]Task{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return q, nil
		}
		return nil, fmt.Errorf("read task queue: %w", err)
	}
	var file queueFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse task queue %s: %w", path, err)
	}
	if file.Tasks != nil {
		q.tasks = file.Tasks
	}
	return q, nil
}

// Save persists the queue atomically.
func (q *Queue) Save() error {
	data, err := json.MarshalIndent(queueFile{
		Tasks:       q.tasks,
		LastUpdated: q.Now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task queue: %w", err)
	}
	if err := atomicfile.WriteFile(q.Path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("save task queue: %w", err)
	}
	return nil
}

// Add queues a new pending task and returns its id.
func (q *Queue) Add(title, description, priority, agent string, tags []string) (string, error) {
	if priority == "" {
		priority = "normal"
	}
	if agent == "" {
		agent = "main"
	}
	now := q.Now().UTC()
	id := fmt.Sprintf("task_%s_%d", now.Format("20060102_150405"), len(q.tasks))

	q.tasks[id] = Task{
		ID:          id,
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      StatusPending,
		CreatedAt:   now.Format(time.RFC3339),
		Agent:       agent,
		Tags:        tags,
	}
	return id, q.Save()
}

// Start marks a task in progress. Any other in-progress task drops back to
// pending so only one runs at a time.
func (q *Queue) Start(id string) error {
	task, ok := q.tasks[id]
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}
	for otherID, other := range q.tasks {
		if other.Status == StatusInProgress {
			other.Status = StatusPending
			other.StartedAt = ""
			q.tasks[otherID] = other
		}
	}
	task.Status = StatusInProgress
	task.StartedAt = q.Now().UTC().Format(time.RFC3339)
	q.tasks[id] = task
	return q.Save()
}

// Complete marks a task done.
func (q *Queue) Complete(id string) error {
	return q.finish(id, StatusCompleted)
}

// Cancel marks a task cancelled.
func (q *Queue) Cancel(id string) error {
	return q.finish(id, StatusCancelled)
}

func (q *Queue) finish(id, status string) error {
	task, ok := q.tasks[id]
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}
	task.Status = status
	task.CompletedAt = q.Now().UTC().Format(time.RFC3339)
	q.tasks[id] = task
	return q.Save()
}

// Get returns one task by id.
func (q *Queue) Get(id string) (Task, bool) {
	t, ok := q.tasks[id]
	return t, ok
}

// Pending lists pending tasks sorted by priority rank, then creation time.
func (q *Queue) Pending() []Task {
	var pending []Task
	for _, t := range q.tasks {
		if t.Status == StatusPending {
			pending = append(pending, t)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		ri, rj := rank(pending[i].Priority), rank(pending[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return pending[i].CreatedAt < pending[j].CreatedAt
	})
	return pending
}

// All lists every task, pending first by priority, then the rest by
// creation time.
func (q *Queue) All() []Task {
	var all []Task
	for _, t := range q.tasks {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt < all[j].CreatedAt
	})
	return all
}

func rank(priority string) int {
	if r, ok := priorityRank[priority]; ok {
		return r
	}
	return priorityRank["normal"]
}
