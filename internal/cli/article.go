package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/articles/internal/article"
)

// ArticleSaveOptions holds flags for the article save command.
type ArticleSaveOptions struct {
	*RootOptions
	PK      int64
	Title   string
	Context string
}

// NewArticleCommand creates the article command group.
func NewArticleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "article",
		Short: "Manage articles",
	}

	cmd.AddCommand(newArticleSaveCommand(rootOpts))
	cmd.AddCommand(newArticleGetCommand(rootOpts))
	cmd.AddCommand(newArticleListCommand(rootOpts))
	cmd.AddCommand(newArticleDeleteCommand(rootOpts))

	return cmd
}

func newArticleSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArticleSaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Insert an article, or update one with --pk",
		Long: `Insert a new article, or update the article stored under --pk.

When updating, fields whose flags are omitted keep their stored values.

Examples:
  articles article save --title "Hello" --context "First post"
  articles article save --pk 3 --title "Hello again"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return saveArticle(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.PK, "pk", 0, "primary key of the article to update")
	cmd.Flags().StringVar(&opts.Title, "title", "", "article title")
	cmd.Flags().StringVar(&opts.Context, "context", "", "article body")

	return cmd
}

func saveArticle(opts *ArticleSaveOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	a := article.New(e.articles)
	updating := cmd.Flags().Changed("pk")
	if updating {
		stored, found, err := a.Get(ctx, opts.PK)
		if err != nil {
			return storageError("get article", err)
		}
		if !found {
			return notFound("article", opts.PK)
		}
		a = stored
	}

	if !updating || cmd.Flags().Changed("title") {
		a.Title = opts.Title
	}
	if !updating || cmd.Flags().Changed("context") {
		a.Context = opts.Context
	}

	if err := a.Save(ctx); err != nil {
		return storageError("save article", err)
	}

	e.formatter.VerboseLog("saved article %s", a.PK())
	return e.formatter.Success(newArticleView(a))
}

func newArticleGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <pk>",
		Short: "Show one article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getArticle(rootOpts, args[0], cmd)
		},
	}
}

func getArticle(opts *RootOptions, arg string, cmd *cobra.Command) error {
	pk, err := parsePK(arg)
	if err != nil {
		return err
	}

	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	a, found, err := article.New(e.articles).Get(commandContext(cmd), pk)
	if err != nil {
		return storageError("get article", err)
	}
	if !found {
		return notFound("article", pk)
	}

	return e.formatter.Success(newArticleView(a))
}

func newArticleListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listArticles(rootOpts, cmd)
		},
	}
}

func listArticles(opts *RootOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	all, err := article.New(e.articles).All(commandContext(cmd))
	if err != nil {
		return storageError("list articles", err)
	}

	views := make(ViewList[ArticleView], 0, len(all))
	for _, a := range all {
		views = append(views, newArticleView(a))
	}
	return e.formatter.Success(views)
}

func newArticleDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <pk>",
		Short: "Delete one article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteArticle(rootOpts, args[0], cmd)
		},
	}
}

func deleteArticle(opts *RootOptions, arg string, cmd *cobra.Command) error {
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

	a, found, err := article.New(e.articles).Get(ctx, pk)
	if err != nil {
		return storageError("get article", err)
	}
	if !found {
		return notFound("article", pk)
	}

	deleted, err := a.Delete(ctx)
	if err != nil {
		return storageError("delete article", err)
	}

	return e.formatter.Success(DeleteResult{Kind: "article", PK: pk, Deleted: deleted})
}
