package store

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrNovelExists       = errors.New("novel already in library")
	ErrInvalidStatus     = errors.New("invalid reading status")
	ErrInvalidCompletion = errors.New("reading completion must be between 0 and 100")
)

// DefaultSite is recorded for novels added without a host.
const DefaultSite = "cenele.com"

type Status string

const (
	StatusReading    Status = "reading"
	StatusPlanToRead Status = "planToRead"
	StatusDropped    Status = "dropped"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in library display order.
var Statuses = []Status{
	StatusReading,
	StatusCompleted,
	StatusDropped,
	StatusPaused,
	StatusPlanToRead,
}

func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

type Novel struct {
	ID            int64     `db:"id" json:"id"`
	URI           string    `db:"uri" json:"uri"`
	Site          string    `db:"site" json:"site"`
	Name          string    `db:"name" json:"name"`
	Cover         string    `db:"cover" json:"cover"`
	Status        Status    `db:"status" json:"status"`
	NovelChapters int       `db:"novel_chapters" json:"novelChapters"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

type Chapter struct {
	ID                int64     `db:"id" json:"id"`
	NovelID           int64     `db:"novel_id" json:"novelId"`
	Link              string    `db:"link" json:"link"`
	Title             string    `db:"title" json:"title"`
	ReadingCompletion int       `db:"reading_completion" json:"readingCompletion"`
	LastRead          time.Time `db:"last_read" json:"lastRead"`
}

// NovelPatch holds the fields UpdateNovel changes; nil fields are kept.
type NovelPatch struct {
	Name          *string
	Cover         *string
	Status        *Status
	NovelChapters *int
}

type ChapterPatch struct {
	Title             *string
	ReadingCompletion *int
	LastRead          *time.Time
}

func validCompletion(pct int) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidCompletion, pct)
	}
	return nil
}
