package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reyzin/scrypto/avl"
)

var (
	verifyStartDigest string
	verifyProofHex    string
	verifyMaxInserts  int
	verifyMaxDeletes  int
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Replay a proof against a starting digest and the same batch flags used to produce it",
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyStartDigest, "start", "", "pre-batch root label (hex, digest||height)")
	verifyCmd.Flags().StringVar(&verifyProofHex, "proof", "", "proof bytes (hex), as printed by batch")
	verifyCmd.Flags().IntVar(&verifyMaxInserts, "max-inserts", 0, "declared insert envelope")
	verifyCmd.Flags().IntVar(&verifyMaxDeletes, "max-deletes", 0, "declared delete envelope")
	verifyCmd.Flags().StringArrayVar(&inserts, "insert", nil, "key=valuehex, repeatable")
	verifyCmd.Flags().StringArrayVar(&updates, "update", nil, "key=valuehex, repeatable")
	verifyCmd.Flags().StringArrayVar(&removes, "remove", nil, "key, repeatable")
	verifyCmd.Flags().StringArrayVar(&removeIfExists, "remove-if-exists", nil, "key, repeatable")
	verifyCmd.Flags().StringArrayVar(&addTos, "add-to", nil, "key=delta (signed int64), repeatable")
	_ = verifyCmd.MarkFlagRequired("start")
	_ = verifyCmd.MarkFlagRequired("proof")
	RootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	hf, err := hashFunction()
	if err != nil {
		return err
	}
	start, err := hex.DecodeString(verifyStartDigest)
	if err != nil {
		return fmt.Errorf("invalid start digest: %w", err)
	}
	proof, err := hex.DecodeString(verifyProofHex)
	if err != nil {
		return fmt.Errorf("invalid proof hex: %w", err)
	}
	mods, err := buildModifications()
	if err != nil {
		return err
	}

	v := avl.NewVerifier(avl.Label(start), proof, cfg.KeyLength, cfg.ValueLength, hf, verifyMaxInserts, verifyMaxDeletes)
	for _, m := range mods {
		v.PerformOneModification(m)
	}
	digest, ok := v.Digest()
	if !ok {
		if err := v.Err(); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		return fmt.Errorf("verification incomplete: declared envelope not fully replayed")
	}
	fmt.Printf("%x\n", digest.Bytes())
	return nil
}
