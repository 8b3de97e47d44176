package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/evidra/internal/adapters/docs"
)

// filesCmd represents the files command
var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List documents available for analysis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		if a.docs == nil {
			return errors.New("document store unavailable (see documents.backend)")
		}

		files, err := a.docs.AvailableFiles(cmd.Context())
		if err != nil {
			return fmt.Errorf("list files: %w", err)
		}
		if len(files) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No files in %s store\n", a.docs.Backend())
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tSIZE\tMODIFIED\tPARSED")
		for _, f := range files {
			parsed := "no"
			if docs.Supported(f.Type) {
				parsed = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", f.Name, f.Type, f.Size, f.Modified.Format("2006-01-02 15:04"), parsed)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(filesCmd)
}
