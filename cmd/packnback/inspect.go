package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/constxd/packnback/internal/asymcrypt"
)

func (a *app) inspectCmd() *cobra.Command {
	var (
		inPath  string
		asJSON  bool
		records bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe an artifact without decrypting it",
		Long: `Reads a key, public key, signature or ciphertext artifact and prints its
type and structure. Ciphertext records are hashed into a BLAKE3 manifest
whose Merkle root identifies the ciphertext.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rep *asymcrypt.Report
			err := a.traced("inspect", func(ctx context.Context) error {
				in, err := a.openInput(inPath)
				if err != nil {
					return err
				}
				defer in.Close()
				if records {
					rep, err = asymcrypt.InspectWithRecords(in)
				} else {
					rep, err = asymcrypt.Inspect(in)
				}
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			a.printReport(rep)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inPath, "input", "i", "-", "artifact file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&records, "records", false, "include per-record hashes")
	return cmd
}

func (a *app) printReport(rep *asymcrypt.Report) {
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Type:\t%s\n", rep.Kind)
	fmt.Fprintf(w, "Version:\t%d\n", rep.Version)
	fmt.Fprintf(w, "Size:\t%d bytes\n", rep.Size)

	switch rep.Type {
	case asymcrypt.TypeKey, asymcrypt.TypePublicKey:
		fmt.Fprintf(w, "Fingerprint:\t%s\n", rep.Fingerprint)
	case asymcrypt.TypeSignature:
		fmt.Fprintf(w, "Signer key:\t%s\n", rep.Signer)
		fmt.Fprintf(w, "Signed length:\t%d bytes\n", rep.SignedLength)
	case asymcrypt.TypeCiphertext:
		fmt.Fprintf(w, "Ephemeral key:\t%s\n", rep.EphemeralKey)
		fmt.Fprintf(w, "Records:\t%d\n", rep.Records)
		fmt.Fprintf(w, "Max plaintext:\t%d bytes\n", rep.MaxPlaintextBytes)
		fmt.Fprintf(w, "Merkle root:\t%s\n", rep.Manifest.MerkleRoot)
		if rep.Truncated {
			fmt.Fprintf(w, "Status:\t%s\n", color.RedString("truncated inside a record"))
		}
		for _, c := range rep.Manifest.Chunks {
			fmt.Fprintf(w, "  record %d:\t%s\n", c.Index, c.Hash)
		}
	}
}
