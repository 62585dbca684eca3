// Package blog implements the dated blog article, an active record over the
// blog_article table.
//
// A blog Article shares the shape of article.Article and satisfies the same
// record.Persistable contract, but it is persisted independently: its own
// table, its own statements, and a publication date column.
//
// Unlike article.Article, a successful update resets the key to
// record.Unsaved. Saving the same value twice in a row therefore inserts a
// second row unless the value is reloaded with Get in between.
package blog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/articles/internal/record"
)

const table = "blog_article"

const (
	insertSQL = `
		INSERT INTO blog_article (title, context, date)
		VALUES (:title, :context, :date)
	`
	updateSQL = `
		UPDATE blog_article
		SET title=:title, context=:context, date=:date
		WHERE pk=:pk
	`
	deleteSQL = `
		DELETE FROM blog_article
		WHERE pk=:pk
	`
	getSQL = `
		SELECT pk, title, context, date
		FROM blog_article
		WHERE pk=:pk
	`
	allSQL = `
		SELECT pk, title, context, date
		FROM blog_article
	`
)

var _ record.Persistable[*Article] = (*Article)(nil)

// Article is a blog post with a publication date.
type Article struct {
	Title   string
	Context string
	Date    time.Time

	pk       record.Key
	provider record.Provider
	now      func() time.Time
}

// Option configures New.
type Option func(*Article)

// WithClock sets the clock New reads the default publication date from.
// Values produced by Get and All inherit it.
func WithClock(now func() time.Time) Option {
	return func(a *Article) {
		if now != nil {
			a.now = now
		}
	}
}

// New returns an unsaved blog Article bound to p, dated now.
func New(p record.Provider, opts ...Option) *Article {
	a := &Article{provider: p, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	a.Date = a.now()
	return a
}

// PK returns the blog article's identity.
func (a *Article) PK() record.Key {
	return a.pk
}

// Connection returns a handle from the blog article's provider.
// A zero Article has no provider and gets record.ErrNoProvider.
func (a *Article) Connection(ctx context.Context) (*sqlx.Conn, error) {
	if a.provider == nil {
		return nil, record.ErrNoProvider
	}
	return a.provider.Conn(ctx)
}

// Save inserts the blog article when it is unsaved and updates every field
// otherwise. An insert assigns the store-generated key; a successful update
// resets it to record.Unsaved.
func (a *Article) Save(ctx context.Context) error {
	conn, err := a.Connection(ctx)
	if err != nil {
		return fmt.Errorf("save blog article: %w", err)
	}
	defer conn.Close()

	date := record.StoreTime(a.Date)

	switch pk, persisted := a.pk.ID(); persisted {
	case false:
		id, err := record.InsertID(ctx, conn, table, insertSQL,
			sql.Named("title", a.Title),
			sql.Named("context", a.Context),
			sql.Named("date", date),
		)
		if err != nil {
			return err
		}
		a.pk = record.Persisted(id)
		slog.Debug("blog article inserted", "table", table, "pk", id)
	case true:
		_, err := record.Exec(ctx, conn, record.OpUpdate, table, updateSQL,
			sql.Named("pk", pk),
			sql.Named("title", a.Title),
			sql.Named("context", a.Context),
			sql.Named("date", date),
		)
		if err != nil {
			return err
		}
		a.pk = record.Unsaved
		slog.Debug("blog article updated", "table", table, "pk", pk)
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
		return false, fmt.Errorf("delete blog article: %w", err)
	}
	defer conn.Close()

	if _, err := record.Exec(ctx, conn, record.OpDelete, table, deleteSQL, sql.Named("pk", pk)); err != nil {
		return false, err
	}

	a.pk = record.Unsaved
	slog.Debug("blog article deleted", "table", table, "pk", pk)
	return true, nil
}

// Get loads the blog article stored under pk into a new Article.
// found is false when no row matches.
func (a *Article) Get(ctx context.Context, pk int64) (*Article, bool, error) {
	conn, err := a.Connection(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("get blog article: %w", err)
	}
	defer conn.Close()

	var r row
	found, err := record.GetRow(ctx, conn, table, &r, getSQL, sql.Named("pk", pk))
	if err != nil || !found {
		return nil, false, err
	}
	return r.article(a.provider, a.now), true, nil
}

// All loads every stored blog article. An empty table yields an empty slice.
func (a *Article) All(ctx context.Context) ([]*Article, error) {
	conn, err := a.Connection(ctx)
	if err != nil {
		return nil, fmt.Errorf("all blog articles: %w", err)
	}
	defer conn.Close()

	var rows []row
	if err := record.SelectRows(ctx, conn, table, &rows, allSQL); err != nil {
		return nil, err
	}

	articles := make([]*Article, 0, len(rows))
	for _, r := range rows {
		articles = append(articles, r.article(a.provider, a.now))
	}
	return articles, nil
}

// row mirrors one blog_article table row. NULL text reads back as "" and
// a NULL date as the zero time.
type row struct {
	PK      int64          `db:"pk"`
	Title   sql.NullString `db:"title"`
	Context sql.NullString `db:"context"`
	Date    sql.NullTime   `db:"date"`
}

// article builds a fresh value the way New does, then overwrites the
// default date with the stored one.
func (r row) article(p record.Provider, now func() time.Time) *Article {
	a := New(p, WithClock(now))
	a.pk = record.Persisted(r.PK)
	a.Title = r.Title.String
	a.Context = r.Context.String
	a.Date = time.Time{}
	if r.Date.Valid {
		a.Date = record.StoreTime(r.Date.Time)
	}
	return a
}
