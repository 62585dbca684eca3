// Package article implements Article, an active record over the article table.
package article

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/articles/internal/record"
)

const table = "article"

const (
	insertSQL = `
		INSERT INTO article (title, context)
		VALUES (:title, :context)
	`
	updateSQL = `
		UPDATE article
		SET title=:title, context=:context
		WHERE pk=:pk
	`
	deleteSQL = `
		DELETE FROM article
		WHERE pk=:pk
	`
	getSQL = `
		SELECT pk, title, context
		FROM article
		WHERE pk=:pk
	`
	allSQL = `
		SELECT pk, title, context
		FROM article
	`
)

var _ record.Persistable[*Article] = (*Article)(nil)

// Article is a titled body of text stored in the article table.
type Article struct {
	Title   string
	Context string

	pk       record.Key
	provider record.Provider
}

// New returns an unsaved Article bound to p.
func New(p record.Provider) *Article {
	return &Article{provider: p}
}

// PK returns the article's identity.
func (a *Article) PK() record.Key {
	return a.pk
}

// Connection returns a handle from the article's provider.
// A zero Article has no provider and gets record.ErrNoProvider.
func (a *Article) Connection(ctx context.Context) (*sqlx.Conn, error) {
	if a.provider == nil {
		return nil, record.ErrNoProvider
	}
	return a.provider.Conn(ctx)
}

// Save inserts the article when it is unsaved and updates every field
// otherwise. An insert assigns the store-generated key; an update keeps it.
func (a *Article) Save(ctx context.Context) error {
	conn, err := a.Connection(ctx)
	if err != nil {
		return fmt.Errorf("save article: %w", err)
	}
	defer conn.Close()

	switch pk, persisted := a.pk.ID(); persisted {
	case false:
		id, err := record.InsertID(ctx, conn, table, insertSQL,
			sql.Named("title", a.Title),
			sql.Named("context", a.Context),
		)
		if err != nil {
			return err
		}
		a.pk = record.Persisted(id)
		slog.Debug("article inserted", "table", table, "pk", id)
	case true:
		_, err := record.Exec(ctx, conn, record.OpUpdate, table, updateSQL,
			sql.Named("pk", pk),
			sql.Named("title", a.Title),
			sql.Named("context", a.Context),
		)
		if err != nil {
			return err
		}
		slog.Debug("article updated", "table", table, "pk", pk)
	}

	return nil
}

// Delete removes the stored row and resets the key to Unsaved.
// It returns false without touching the store when the article is unsaved.
func (a *Article) Delete(ctx context.Context) (bool, error) {
	pk, persisted := a.pk.ID()
	if !persisted {
		return false, nil
	}

	conn, err := a.Connection(ctx)
	if err != nil {
		return false, fmt.Errorf("delete article: %w", err)
	}
	defer conn.Close()

	if _, err := record.Exec(ctx, conn, record.OpDelete, table, deleteSQL, sql.Named("pk", pk)); err != nil {
		return false, err
	}

	a.pk = record.Unsaved
	slog.Debug("article deleted", "table", table, "pk", pk)
	return true, nil
}

// Get loads the article stored under pk into a new Article.
// found is false when no row matches.
func (a *Article) Get(ctx context.Context, pk int64) (*Article, bool, error) {
	conn, err := a.Connection(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("get article: %w", err)
	}
	defer conn.Close()

	var r row
	found, err := record.GetRow(ctx, conn, table, &r, getSQL, sql.Named("pk", pk))
	if err != nil || !found {
		return nil, false, err
	}
	return r.article(a.provider), true, nil
}

// All loads every stored article. An empty table yields an empty slice.
func (a *Article) All(ctx context.Context) ([]*Article, error) {
	conn, err := a.Connection(ctx)
	if err != nil {
		return nil, fmt.Errorf("all articles: %w", err)
	}
	defer conn.Close()

	var rows []row
	if err := record.SelectRows(ctx, conn, table, &rows, allSQL); err != nil {
		return nil, err
	}

	articles := make([]*Article, 0, len(rows))
	for _, r := range rows {
		articles = append(articles, r.article(a.provider))
	}
	return articles, nil
}

// row mirrors one article table row. NULL columns read back as "".
type row struct {
	PK      int64          `db:"pk"`
	Title   sql.NullString `db:"title"`
	Context sql.NullString `db:"context"`
}

func (r row) article(p record.Provider) *Article {
	a := New(p)
	a.pk = record.Persisted(r.PK)
	a.Title = r.Title.String
	a.Context = r.Context.String
	return a
}
