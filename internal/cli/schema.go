package cli

import (
	"fmt"

	"github.com/optimusx/nl2sql/internal/nl2sql"
	"github.com/spf13/cobra"
)

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the tables and columns the model is told about",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), nl2sql.SchemaDescription())
			return err
		},
	}
}
