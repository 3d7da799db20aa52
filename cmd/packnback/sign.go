package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/constxd/packnback/internal/asymcrypt"
)

func (a *app) signCmd() *cobra.Command {
	var keyPath, inPath, outPath string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a message",
		Long: `Writes a signature artifact for the message. The signature embeds the
signed message, so verification needs both the message and the artifact.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			km, err := a.loadKey(keyPath)
			if err != nil {
				return err
			}
			defer km.Wipe()

			return a.traced("sign", func(ctx context.Context) error {
				msg, err := a.readAll(inPath)
				if err != nil {
					return err
				}

				out, err := a.createOutput(ctx, outPath, 0o644)
				if err != nil {
					return err
				}
				defer out.Abort()

				if err := asymcrypt.Sign(out, msg, km, a.pipelineOptions(inPath)...); err != nil {
					return err
				}
				return out.Commit()
			}, attribute.String("signer", km.Fingerprint()))
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "", "secret key file (default: configured key)")
	cmd.Flags().StringVarP(&inPath, "input", "i", "-", "message file")
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "signature output file")
	return cmd
}

func (a *app) verifyCmd() *cobra.Command {
	var pubPath, sigPath, inPath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a signature over a message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if isStdio(sigPath) && isStdio(inPath) {
				return errStdinConflict
			}
			signer, err := a.loadPublicKey(pubPath)
			if err != nil {
				return err
			}

			var n int
			err = a.traced("verify", func(ctx context.Context) error {
				msg, err := a.readAll(inPath)
				if err != nil {
					return err
				}
				sig, err := a.openInput(sigPath)
				if err != nil {
					return err
				}
				defer sig.Close()

				n, err = asymcrypt.Verify(msg, sig, signer, a.pipelineOptions(sigPath)...)
				return err
			}, attribute.String("signer", signer.Fingerprint()))
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "%s Good signature from %s (%d bytes)\n",
				color.GreenString("✓"), color.YellowString(signer.Fingerprint()), n)
			return nil
		},
	}

	cmd.Flags().StringVar(&pubPath, "pub", "", "signer public key file")
	cmd.Flags().StringVar(&sigPath, "sig", "", "signature file")
	cmd.Flags().StringVarP(&inPath, "input", "i", "-", "message file")
	_ = cmd.MarkFlagRequired("pub")
	_ = cmd.MarkFlagRequired("sig")
	return cmd
}

// readAll reads a whole input. Signing and verification work on the
// message as one buffer.
func (a *app) readAll(path string) ([]byte, error) {
	in, err := a.openInput(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", displayName(path), err)
	}
	return data, nil
}

func displayName(path string) string {
	if isStdio(path) {
		return "stdin"
	}
	return path
}
