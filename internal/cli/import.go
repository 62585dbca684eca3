package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/articles/internal/article"
	"github.com/roach88/articles/internal/blog"
)

// Fixture is the YAML document the import command reads.
//
//	articles:
//	  - title: Hello
//	    context: First post
//	blog_articles:
//	  - title: Release notes
//	    context: ...
//	    date: 2024-05-01T09:00:00Z
type Fixture struct {
	Articles     []FixtureArticle     `yaml:"articles"`
	BlogArticles []FixtureBlogArticle `yaml:"blog_articles"`
}

// FixtureArticle is one article in a fixture.
type FixtureArticle struct {
	Title   string `yaml:"title"`
	Context string `yaml:"context"`
}

// FixtureBlogArticle is one blog article in a fixture.
// An empty Date means the time of import.
type FixtureBlogArticle struct {
	Title   string `yaml:"title"`
	Context string `yaml:"context"`
	Date    string `yaml:"date"`
}

// ImportResult is the output of the import command.
type ImportResult struct {
	Articles     int `json:"articles"`
	BlogArticles int `json:"blog_articles"`
}

func (r ImportResult) String() string {
	return fmt.Sprintf("imported %d articles and %d blog articles", r.Articles, r.BlogArticles)
}

// LoadFixture reads and parses a fixture YAML file.
// Unknown fields and malformed dates are rejected.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var fixture Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, b := range fixture.BlogArticles {
		if b.Date == "" {
			continue
		}
		if _, err := time.Parse(time.RFC3339, b.Date); err != nil {
			return nil, fmt.Errorf("blog_articles[%d]: invalid date %q: %w", i, b.Date, err)
		}
	}

	if len(fixture.Articles) == 0 && len(fixture.BlogArticles) == 0 {
		return nil, errors.New("fixture contains no records")
	}

	return &fixture, nil
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <fixture.yaml>",
		Short: "Insert articles and blog articles from a YAML file",
		Long: `Insert every record of a YAML fixture as a new row.

Titles and bodies are normalized to Unicode NFC before saving. Records are
saved one at a time; a failure stops the import and leaves earlier records
in place.

Example:
  articles import --db ./articles.db ./seed.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importFixture(rootOpts, args[0], cmd)
		},
	}
}

func importFixture(opts *RootOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	fixture, err := LoadFixture(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}

	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	var result ImportResult

	for _, f := range fixture.Articles {
		a := article.New(e.articles)
		a.Title = norm.NFC.String(f.Title)
		a.Context = norm.NFC.String(f.Context)
		if err := a.Save(ctx); err != nil {
			return storageError("import article", err)
		}
		e.formatter.VerboseLog("imported article %s", a.PK())
		result.Articles++
	}

	for _, f := range fixture.BlogArticles {
		a := blog.New(e.blog)
		a.Title = norm.NFC.String(f.Title)
		a.Context = norm.NFC.String(f.Context)
		if f.Date != "" {
			// Validated by LoadFixture.
			a.Date, _ = time.Parse(time.RFC3339, f.Date)
		}
		if err := a.Save(ctx); err != nil {
			return storageError("import blog article", err)
		}
		e.formatter.VerboseLog("imported blog article %s", a.PK())
		result.BlogArticles++
	}

	return e.formatter.Success(result)
}
