package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// InitResult is the output of the init command.
type InitResult struct {
	Database     string `json:"database"`
	BlogDatabase string `json:"blog_database"`
}

func (r InitResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "database ready: %s", r.Database)
	if r.BlogDatabase != r.Database {
		fmt.Fprintf(&b, "\nblog database ready: %s", r.BlogDatabase)
	}
	return b.String()
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the databases and tables",
		Long: `Create the configured databases if needed and apply the schema.

Every other command does the same implicitly; init only makes it explicit.

Example:
  articles init --db ./articles.db --blog-db ./blog.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			return e.formatter.Success(InitResult{
				Database:     e.articles.Path(),
				BlogDatabase: e.blog.Path(),
			})
		},
	}
}
