package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const novelColumns = `id, uri, site, name, cover, status, novel_chapters, created_at`

func (s *Store) getNovel(ctx context.Context, where string, arg any) (*Novel, error) {
	var n Novel
	err := s.db.GetContext(ctx, &n, `SELECT `+novelColumns+` FROM novels WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get novel: %w", err)
	}
	return &n, nil
}

func (s *Store) FindNovelByURI(ctx context.Context, uri string) (*Novel, error) {
	return s.getNovel(ctx, `uri = ?`, uri)
}

func (s *Store) GetNovel(ctx context.Context, id int64) (*Novel, error) {
	return s.getNovel(ctx, `id = ?`, id)
}

// ListNovels returns novels with status, or every novel when status is
// empty, newest first.
func (s *Store) ListNovels(ctx context.Context, status Status) ([]Novel, error) {
	q := `SELECT ` + novelColumns + ` FROM novels`
	var args []any
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC, id DESC`

	out := []Novel{}
	if err := s.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("list novels: %w", err)
	}
	return out, nil
}

func (s *Store) FilterNovels(ctx context.Context, keep func(Novel) bool) ([]Novel, error) {
	all, err := s.ListNovels(ctx, "")
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, n := range all {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// InsertNovel stores n and returns its id. A duplicate URI yields
// ErrNovelExists.
func (s *Store) InsertNovel(ctx context.Context, n Novel) (int64, error) {
	if n.Status == "" {
		n.Status = StatusReading
	}
	if _, err := ParseStatus(string(n.Status)); err != nil {
		return 0, err
	}
	if n.Site == "" {
		n.Site = DefaultSite
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO novels (uri, site, name, cover, status, novel_chapters, created_at)
		VALUES (:uri, :site, :name, :cover, :status, :novel_chapters, :created_at)
	`, n)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("%w: %s", ErrNovelExists, n.URI)
	}
	if err != nil {
		return 0, fmt.Errorf("insert novel: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert novel id: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateNovel(ctx context.Context, id int64, p NovelPatch) error {
	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Cover != nil {
		sets = append(sets, "cover = ?")
		args = append(args, *p.Cover)
	}
	if p.Status != nil {
		if _, err := ParseStatus(string(*p.Status)); err != nil {
			return err
		}
		sets = append(sets, "status = ?")
		args = append(args, *p.Status)
	}
	if p.NovelChapters != nil {
		sets = append(sets, "novel_chapters = ?")
		args = append(args, *p.NovelChapters)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE novels SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update novel: %w", err)
	}
	return expectRow(res)
}

// DeleteNovel removes the novel and, through the foreign key, its
// chapters.
func (s *Store) DeleteNovel(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM novels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete novel: %w", err)
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if aff == 0 {
		return ErrNotFound
	}
	return nil
}
