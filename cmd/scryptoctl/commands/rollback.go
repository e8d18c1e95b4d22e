package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reyzin/scrypto/log"
)

var rollbackTo string

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll the store's version pointer back to a previously committed digest",
	RunE:  runRollback,
}

func init() {
	rollbackCmd.Flags().StringVar(&rollbackTo, "to", "", "root digest (hex, as printed by digest/batch) to roll back to")
	_ = rollbackCmd.MarkFlagRequired("to")
	RootCmd.AddCommand(rollbackCmd)
}

func runRollback(cmd *cobra.Command, args []string) error {
	target, err := hex.DecodeString(rollbackTo)
	if err != nil {
		return fmt.Errorf("invalid digest %q: %w", rollbackTo, err)
	}

	pp, backend, err := openProver()
	if err != nil {
		return err
	}
	defer backend.Close()

	if err := pp.Rollback(target); err != nil {
		return fmt.Errorf("rolling back: %w", err)
	}
	log.Infof("rolled back to %x", target)
	fmt.Printf("%x\n", pp.Digest().Bytes())
	return nil
}
