package cli

import (
	"fmt"

	"github.com/LeJamon/goOracled/internal/core/ledger/keylet"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

var deriveProgram string

var deriveCmd = &cobra.Command{
	Use:   "derive <owner> <feed-id>",
	Short: "Derive a data feed address offline",
	Long: `Derive the address of the data feed (owner, feed-id) under the configured
oracle program, or under --program when given. No node is contacted.`,
	Args: cobra.ExactArgs(2),
	RunE: runDerive,
}

func init() {
	rootCmd.AddCommand(deriveCmd)
	deriveCmd.Flags().StringVar(&deriveProgram, "program", "", "program id (overrides oracle.program_id)")
}

func runDerive(cmd *cobra.Command, args []string) error {
	c, err := loadedConfig()
	if err != nil {
		return err
	}

	var programID solana.PublicKey
	if deriveProgram != "" {
		programID, err = solana.PublicKeyFromBase58(deriveProgram)
		if err != nil {
			return fmt.Errorf("invalid --program: %w", err)
		}
	} else if programID, err = c.ProgramKey(); err != nil {
		return err
	}

	owner, err := solana.PublicKeyFromBase58(args[0])
	if err != nil {
		return fmt.Errorf("invalid owner: %w", err)
	}
	feedID, err := parseFeedID(args[1])
	if err != nil {
		return err
	}

	k, err := keylet.DataFeed(programID, owner, feedID)
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]interface{}{
		"program_id": programID.String(),
		"owner":      owner.String(),
		"feed_id":    feedID,
		"data_feed":  k.Key.String(),
		"bump":       k.Bump,
	})
}
