package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/constxd/packnback/internal/asymcrypt"
)

func (a *app) encryptCmd() *cobra.Command {
	var toPath, inPath, outPath string

	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt data to a recipient's public key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := a.loadPublicKey(toPath)
			if err != nil {
				return err
			}

			stop := a.startSpinner("Encrypting...")
			err = a.traced("encrypt", func(ctx context.Context) error {
				in, err := a.openInput(inPath)
				if err != nil {
					return err
				}
				defer in.Close()

				out, err := a.createOutput(ctx, outPath, 0o644)
				if err != nil {
					return err
				}
				defer out.Abort()

				if err := asymcrypt.Encrypt(in, out, to, a.pipelineOptions(inPath)...); err != nil {
					return err
				}
				return out.Commit()
			}, attribute.String("recipient", to.Fingerprint()))
			stop()
			if err != nil {
				return err
			}

			if !isStdio(outPath) {
				fmt.Fprintln(a.stderr, color.GreenString("✓")+" Encrypted to "+color.YellowString(outPath))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&toPath, "to", "", "recipient public key file")
	cmd.Flags().StringVarP(&inPath, "input", "i", "-", "plaintext input file")
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "ciphertext output file")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) decryptCmd() *cobra.Command {
	var (
		keyPaths        []string
		inPath, outPath string
	)

	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt data with one or more key files",
		Long: `Decrypts ciphertext with the given key. When --key is repeated, each key
is tried against the first record and the one that authenticates is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(keyPaths) == 0 {
				keyPaths = []string{a.cfg.KeyPath()}
			}
			ring := make([]*asymcrypt.KeyMaterial, 0, len(keyPaths))
			defer func() {
				for _, km := range ring {
					km.Wipe()
				}
			}()
			for _, p := range keyPaths {
				km, err := a.loadKey(p)
				if err != nil {
					return err
				}
				ring = append(ring, km)
			}

			stop := a.startSpinner("Decrypting...")
			var matched *asymcrypt.KeyMaterial
			err := a.traced("decrypt", func(ctx context.Context) error {
				in, err := a.openInput(inPath)
				if err != nil {
					return err
				}
				defer in.Close()

				// Plaintext output stays owner-only.
				out, err := a.createOutput(ctx, outPath, 0o600)
				if err != nil {
					return err
				}
				defer out.Abort()

				opts := a.pipelineOptions(inPath)
				if len(ring) == 1 {
					matched = ring[0]
					err = asymcrypt.Decrypt(in, out, ring[0], opts...)
				} else {
					matched, err = asymcrypt.DecryptWithKeyring(in, out, ring, opts...)
				}
				if err != nil {
					return err
				}
				return out.Commit()
			}, attribute.Int("keyring.size", len(ring)))
			stop()
			if err != nil {
				return err
			}

			if len(ring) > 1 {
				a.log.Info("decrypted with key " + matched.Fingerprint())
			}
			if !isStdio(outPath) {
				fmt.Fprintln(a.stderr, color.GreenString("✓")+" Decrypted to "+color.YellowString(outPath))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&keyPaths, "key", nil, "secret key file; repeat to try several (default: configured key)")
	cmd.Flags().StringVarP(&inPath, "input", "i", "-", "ciphertext input file")
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "plaintext output file")
	return cmd
}
