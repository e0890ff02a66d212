// =============================================================================
// Bulk Poster - Render Command
// =============================================================================
//
// COMMAND USAGE:
//   bulkposter render FILE [flags]
//
// FLAGS:
//   --out           : Write the document to this path instead of stdout
//   --with-password : Include the account password in the auth element
//
// The document is rendered whether or not the postings are valid, so the
// output can be inspected while fixing a batch.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/cl-bulk-poster/internal/types"
)

var (
	renderOut          string
	renderWithPassword bool
)

var renderCmd = &cobra.Command{
	Use:   "render FILE",
	Short: "Render a batch file as a submission document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&renderOut, "out", "", "Write the document to this path instead of stdout")
	renderCmd.Flags().BoolVar(&renderWithPassword, "with-password", false, "Include the account password in the auth element")
}

func runRender(cmd *cobra.Command, file string) error {
	mainConfig, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	account := types.Account{
		Username:  mainConfig.Account.Username,
		AccountID: mainConfig.Account.AccountID,
	}
	if renderWithPassword {
		if account, err = mainConfig.ResolveAccount(); err != nil {
			return err
		}
	}

	b, err := loadBatch(file, mainConfig, account, logger)
	if err != nil {
		return err
	}

	doc := b.Serialize()
	if doc == nil {
		return b.Errors[len(b.Errors)-1]
	}

	if renderOut == "" {
		_, err := cmd.OutOrStdout().Write(doc)
		return err
	}

	if err := os.WriteFile(renderOut, doc, 0600); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	logger.WithField("path", renderOut).Info("document written")

	return nil
}
