package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const chapterColumns = `id, novel_id, link, title, reading_completion, last_read`

// FindChapter looks a chapter up by its novel and link.
func (s *Store) FindChapter(ctx context.Context, novelID int64, link string) (*Chapter, error) {
	var c Chapter
	err := s.db.GetContext(ctx, &c,
		`SELECT `+chapterColumns+` FROM chapters WHERE novel_id = ? AND link = ?`, novelID, link)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find chapter: %w", err)
	}
	return &c, nil
}

// ListChapters returns the novel's chapters, most recently read first.
func (s *Store) ListChapters(ctx context.Context, novelID int64) ([]Chapter, error) {
	out := []Chapter{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+chapterColumns+` FROM chapters WHERE novel_id = ? ORDER BY last_read DESC, id DESC`, novelID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	return out, nil
}

func (s *Store) FilterChapters(ctx context.Context, novelID int64, keep func(Chapter) bool) ([]Chapter, error) {
	all, err := s.ListChapters(ctx, novelID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, c := range all {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// InsertChapter stores c and returns its id. When the novel already has
// a chapter with the same link nothing is written and the existing id is
// returned with inserted false.
func (s *Store) InsertChapter(ctx context.Context, c Chapter) (id int64, inserted bool, err error) {
	if err := validCompletion(c.ReadingCompletion); err != nil {
		return 0, false, err
	}
	if c.LastRead.IsZero() {
		c.LastRead = time.Now().UTC()
	}

	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO chapters (novel_id, link, title, reading_completion, last_read)
		VALUES (:novel_id, :link, :title, :reading_completion, :last_read)
		ON CONFLICT (novel_id, link) DO NOTHING
	`, c)
	if err != nil {
		return 0, false, fmt.Errorf("insert chapter: %w", err)
	}

	if aff, _ := res.RowsAffected(); aff == 0 {
		existing, err := s.FindChapter(ctx, c.NovelID, c.Link)
		if err != nil {
			return 0, false, err
		}
		if existing == nil {
			return 0, false, fmt.Errorf("insert chapter: conflict without row for %s", c.Link)
		}
		return existing.ID, false, nil
	}

	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("insert chapter id: %w", err)
	}
	return id, true, nil
}

func (s *Store) UpdateChapter(ctx context.Context, id int64, p ChapterPatch) error {
	var (
		sets []string
		args []any
	)
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.ReadingCompletion != nil {
		if err := validCompletion(*p.ReadingCompletion); err != nil {
			return err
		}
		sets = append(sets, "reading_completion = ?")
		args = append(args, *p.ReadingCompletion)
	}
	if p.LastRead != nil {
		sets = append(sets, "last_read = ?")
		args = append(args, p.LastRead.UTC())
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE chapters SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update chapter: %w", err)
	}
	return expectRow(res)
}

// RaiseCompletion sets the chapter's completion to pct only when the
// stored value is lower. It reports whether a row changed.
func (s *Store) RaiseCompletion(ctx context.Context, id int64, pct int, at time.Time) (bool, error) {
	if err := validCompletion(pct); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE chapters SET reading_completion = ?, last_read = ?
		WHERE id = ? AND reading_completion < ?
	`, pct, at.UTC(), id, pct)
	if err != nil {
		return false, fmt.Errorf("raise completion: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return aff > 0, nil
}

func (s *Store) DeleteChapter(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chapters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	return expectRow(res)
}

type NovelProgress struct {
	ChaptersRead      int      `db:"chapters_read" json:"chaptersRead"`
	AverageCompletion float64  `db:"average_completion" json:"averageCompletion"`
	LastRead          *Chapter `db:"-" json:"lastRead,omitempty"`
}

// Progress summarizes what has been read of a novel.
func (s *Store) Progress(ctx context.Context, novelID int64) (NovelProgress, error) {
	var p NovelProgress
	err := s.db.GetContext(ctx, &p, `
		SELECT COUNT(*) AS chapters_read, COALESCE(AVG(reading_completion), 0) AS average_completion
		FROM chapters WHERE novel_id = ?
	`, novelID)
	if err != nil {
		return NovelProgress{}, fmt.Errorf("novel progress: %w", err)
	}

	var last Chapter
	err = s.db.GetContext(ctx, &last,
		`SELECT `+chapterColumns+` FROM chapters WHERE novel_id = ? ORDER BY last_read DESC, id DESC LIMIT 1`, novelID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return NovelProgress{}, fmt.Errorf("last read chapter: %w", err)
	default:
		p.LastRead = &last
	}
	return p, nil
}
