package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/articles/internal/blog"
)

// BlogSaveOptions holds flags for the blog save command.
type BlogSaveOptions struct {
	*RootOptions
	PK      int64
	Title   string
	Context string
	Date    string // RFC 3339; empty means now
}

// NewBlogCommand creates the blog command group.
func NewBlogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blog",
		Short: "Manage dated blog articles",
	}

	cmd.AddCommand(newBlogSaveCommand(rootOpts))
	cmd.AddCommand(newBlogGetCommand(rootOpts))
	cmd.AddCommand(newBlogListCommand(rootOpts))
	cmd.AddCommand(newBlogDeleteCommand(rootOpts))

	return cmd
}

func newBlogSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BlogSaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Insert a blog article, or update one with --pk",
		Long: `Insert a new blog article, or update the one stored under --pk.

New blog articles are dated now unless --date is given. When updating,
fields whose flags are omitted keep their stored values.

A successful update leaves the in-memory blog article unsaved, so the
printed pk is null after an update.

Examples:
  articles blog save --title "Release notes" --context "..." --date 2024-05-01T09:00:00Z
  articles blog save --pk 2 --context "Corrected body"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return saveBlogArticle(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.PK, "pk", 0, "primary key of the blog article to update")
	cmd.Flags().StringVar(&opts.Title, "title", "", "blog article title")
	cmd.Flags().StringVar(&opts.Context, "context", "", "blog article body")
	cmd.Flags().StringVar(&opts.Date, "date", "", "publication date (RFC 3339, default now)")

	return cmd
}

func saveBlogArticle(opts *BlogSaveOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	var date time.Time
	if opts.Date != "" {
		parsed, err := time.Parse(time.RFC3339, opts.Date)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid --date %q", opts.Date), err)
		}
		date = parsed
	}

	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	a := blog.New(e.blog)
	updating := cmd.Flags().Changed("pk")
	if updating {
		stored, found, err := a.Get(ctx, opts.PK)
		if err != nil {
			return storageError("get blog article", err)
		}
		if !found {
			return notFound("blog article", opts.PK)
		}
		a = stored
	}

	if !updating || cmd.Flags().Changed("title") {
		a.Title = opts.Title
	}
	if !updating || cmd.Flags().Changed("context") {
		a.Context = opts.Context
	}
	if !date.IsZero() {
		a.Date = date
	}

	if err := a.Save(ctx); err != nil {
		return storageError("save blog article", err)
	}

	if updating {
		e.formatter.VerboseLog("updated blog article %d", opts.PK)
	} else {
		e.formatter.VerboseLog("saved blog article %s", a.PK())
	}
	return e.formatter.Success(newBlogArticleView(a))
}

func newBlogGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <pk>",
		Short: "Show one blog article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getBlogArticle(rootOpts, args[0], cmd)
		},
	}
}

func getBlogArticle(opts *RootOptions, arg string, cmd *cobra.Command) error {
	pk, err := parsePK(arg)
	if err != nil {
		return err
	}

	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	a, found, err := blog.New(e.blog).Get(commandContext(cmd), pk)
	if err != nil {
		return storageError("get blog article", err)
	}
	if !found {
		return notFound("blog article", pk)
	}

	return e.formatter.Success(newBlogArticleView(a))
}

func newBlogListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every blog article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listBlogArticles(rootOpts, cmd)
		},
	}
}

func listBlogArticles(opts *RootOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	all, err := blog.New(e.blog).All(commandContext(cmd))
	if err != nil {
		return storageError("list blog articles", err)
	}

	views := make(ViewList[BlogArticleView], 0, len(all))
	for _, a := range all {
		views = append(views, newBlogArticleView(a))
	}
	return e.formatter.Success(views)
}

func newBlogDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <pk>",
		Short: "Delete one blog article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteBlogArticle(rootOpts, args[0], cmd)
		},
	}
}

func deleteBlogArticle(opts *RootOptions, arg string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	pk, err := parsePK(arg)
	if err != nil {
		return err
	}

	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	a, found, err := blog.New(e.blog).Get(ctx, pk)
	if err != nil {
		return storageError("get blog article", err)
	}
	if !found {
		return notFound("blog article", pk)
	}

	deleted, err := a.Delete(ctx)
	if err != nil {
		return storageError("delete blog article", err)
	}

	return e.formatter.Success(DeleteResult{Kind: "blog article", PK: pk, Deleted: deleted})
}
