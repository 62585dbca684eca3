package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/articles/internal/article"
	"github.com/roach88/articles/internal/blog"
	"github.com/roach88/articles/internal/record"
)

// ArticleView is the output form of an article.
type ArticleView struct {
	PK      record.Key `json:"pk"`
	Title   string     `json:"title"`
	Context string     `json:"context"`
}

func newArticleView(a *article.Article) ArticleView {
	return ArticleView{PK: a.PK(), Title: a.Title, Context: a.Context}
}

func (v ArticleView) String() string {
	return fmt.Sprintf("[%s] %s: %s", v.PK, v.Title, v.Context)
}

// BlogArticleView is the output form of a blog article.
type BlogArticleView struct {
	PK      record.Key `json:"pk"`
	Title   string     `json:"title"`
	Context string     `json:"context"`
	Date    time.Time  `json:"date"`
}

func newBlogArticleView(a *blog.Article) BlogArticleView {
	return BlogArticleView{PK: a.PK(), Title: a.Title, Context: a.Context, Date: record.StoreTime(a.Date)}
}

func (v BlogArticleView) String() string {
	return fmt.Sprintf("[%s] %s (%s): %s", v.PK, v.Title, v.Date.Format(time.RFC3339), v.Context)
}

// ViewList prints one view per line in text mode and a JSON array otherwise.
type ViewList[T fmt.Stringer] []T

func (l ViewList[T]) String() string {
	if len(l) == 0 {
		return "(none)"
	}
	lines := make([]string, len(l))
	for i, v := range l {
		lines[i] = v.String()
	}
	return strings.Join(lines, "\n")
}

// DeleteResult is the output of a delete command.
type DeleteResult struct {
	Kind    string `json:"kind"`
	PK      int64  `json:"pk"`
	Deleted bool   `json:"deleted"`
}

func (r DeleteResult) String() string {
	return fmt.Sprintf("deleted %s %d", r.Kind, r.PK)
}
