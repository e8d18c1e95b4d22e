package commands

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reyzin/scrypto/avl"
	"github.com/reyzin/scrypto/log"
)

var (
	inserts        []string
	updates        []string
	removes        []string
	removeIfExists []string
	addTos         []string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Apply one batch of modifications and print the resulting proof and digest",
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().StringArrayVar(&inserts, "insert", nil, "key=valuehex, repeatable")
	batchCmd.Flags().StringArrayVar(&updates, "update", nil, "key=valuehex, repeatable")
	batchCmd.Flags().StringArrayVar(&removes, "remove", nil, "key, repeatable")
	batchCmd.Flags().StringArrayVar(&removeIfExists, "remove-if-exists", nil, "key, repeatable")
	batchCmd.Flags().StringArrayVar(&addTos, "add-to", nil, "key=delta (signed int64), repeatable")
	RootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	pp, backend, err := openProver()
	if err != nil {
		return err
	}
	defer backend.Close()

	before := pp.Digest()
	log.Debugf("starting batch from digest %x", before.Bytes())

	mods, err := buildModifications()
	if err != nil {
		return err
	}
	for _, m := range mods {
		if err := pp.PerformOneModification(m); err != nil {
			log.Warnf("modification rejected: %v", err)
			return fmt.Errorf("applying batch: %w", err)
		}
	}

	proof, err := pp.GenerateProof()
	if err != nil {
		return fmt.Errorf("generating proof: %w", err)
	}
	after := pp.Digest()

	fmt.Printf("start digest:  %x\n", before.Bytes())
	fmt.Printf("end digest:    %x\n", after.Bytes())
	fmt.Printf("proof bytes:   %s\n", hex.EncodeToString(proof))
	stats := pp.Stats()
	fmt.Printf("inserts=%d updates=%d removes=%d noops=%d\n", stats.Inserts, stats.Updates, stats.Removes, stats.NoOps)
	return nil
}

func buildModifications() ([]avl.Modification, error) {
	var mods []avl.Modification
	for _, kv := range inserts {
		k, v, err := splitKV(kv)
		if err != nil {
			return nil, err
		}
		key, err := parseFixedHex(k, cfg.KeyLength)
		if err != nil {
			return nil, err
		}
		value, err := parseFixedHex(v, cfg.ValueLength)
		if err != nil {
			return nil, err
		}
		mods = append(mods, avl.Insert(key, avl.Value(value)))
	}
	for _, kv := range updates {
		k, v, err := splitKV(kv)
		if err != nil {
			return nil, err
		}
		key, err := parseFixedHex(k, cfg.KeyLength)
		if err != nil {
			return nil, err
		}
		value, err := parseFixedHex(v, cfg.ValueLength)
		if err != nil {
			return nil, err
		}
		mods = append(mods, avl.Update(key, avl.Value(value)))
	}
	for _, k := range removes {
		key, err := parseFixedHex(k, cfg.KeyLength)
		if err != nil {
			return nil, err
		}
		mods = append(mods, avl.Remove(key))
	}
	for _, k := range removeIfExists {
		key, err := parseFixedHex(k, cfg.KeyLength)
		if err != nil {
			return nil, err
		}
		mods = append(mods, avl.RemoveIfExists(key))
	}
	for _, kv := range addTos {
		k, d, err := splitKV(kv)
		if err != nil {
			return nil, err
		}
		key, err := parseFixedHex(k, cfg.KeyLength)
		if err != nil {
			return nil, err
		}
		delta, err := strconv.ParseInt(d, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid delta %q: %w", d, err)
		}
		mods = append(mods, avl.UpdateLongBy(key, delta))
	}
	return mods, nil
}

func splitKV(s string) (key, value string, err error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected key=value, got %q", s)
	}
	return parts[0], parts[1], nil
}
