// Package memory is an in-process storage backend. All tables of one Store
// share a single lock so multi-row checks are atomic, the way a database
// transaction would make them.
package memory

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"quillpress/internal/model"
	"quillpress/internal/repository"
)

type db struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]model.User
	posts    map[uuid.UUID]model.Post
	comments map[uuid.UUID]model.Comment
	logs     []model.ModerationLog
}

// NewStore returns an empty in-memory backend.
func NewStore() *repository.Store {
	d := &db{
		users:    make(map[uuid.UUID]model.User),
		posts:    make(map[uuid.UUID]model.Post),
		comments: make(map[uuid.UUID]model.Comment),
	}
	return &repository.Store{
		Users:      &userRepository{db: d},
		Posts:      &postRepository{db: d},
		Comments:   &commentRepository{db: d},
		Moderation: &moderationLogRepository{db: d},
	}
}

// paginate sorts items with less and cuts out the requested page.
func paginate[T any](items []T, page model.Page, less func(a, b T) bool) ([]T, int) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
	total := len(items)
	start, end := page.Window(total)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, total
}
