package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Print the store's current root digest without mutating it",
	RunE:  runDigest,
}

func init() {
	RootCmd.AddCommand(digestCmd)
}

func runDigest(cmd *cobra.Command, args []string) error {
	pp, backend, err := openProver()
	if err != nil {
		return err
	}
	defer backend.Close()

	fmt.Printf("%x\n", pp.Digest().Bytes())
	return nil
}
