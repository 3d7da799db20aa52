package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/constxd/packnback/internal/asymcrypt"
	"github.com/constxd/packnback/internal/crypto"
	"github.com/constxd/packnback/internal/crypto/identity"
	"github.com/constxd/packnback/internal/validation"
)

func (a *app) keygenCmd() *cobra.Command {
	var (
		name         string
		noPassphrase bool
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new key pair in the keys directory",
		Long: `Generates encryption and signing key pairs and writes them as <name>.key
(secret, passphrase protected unless --no-passphrase) and <name>.pub
(shareable public key) in the configured keys directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = a.cfg.KeyName
			}
			if err := validation.ValidateKeyName(name); err != nil {
				return fmt.Errorf("--name: %w", err)
			}
			keyPath, pubPath := identity.DefaultPaths(a.cfg.KeysDirectory, name)
			if !force && (fileExists(keyPath) || fileExists(pubPath)) {
				return fmt.Errorf("key %q already exists in %s (use --force to overwrite)", name, a.cfg.KeysDirectory)
			}

			var passphrase []byte
			if !noPassphrase {
				var err error
				passphrase, err = a.readPassphrase("Enter passphrase: ", true)
				if err != nil {
					return err
				}
				defer crypto.Wipe(passphrase)
			}

			var fingerprint string
			err := a.traced("keygen", func(ctx context.Context) error {
				km := asymcrypt.Generate()
				defer km.Wipe()
				fingerprint = km.Fingerprint()

				if err := identity.SaveKey(keyPath, km, passphrase, a.cfg.Keystore, force); err != nil {
					return err
				}
				if err := identity.SavePublicKey(pubPath, km.PublicKey(), force); err != nil {
					return err
				}
				a.metrics.RecordKeyOperation("generate")
				a.log.KeyLoaded(keyPath, fingerprint, len(passphrase) > 0)
				return nil
			}, attribute.String("key.name", name))
			if err != nil {
				return err
			}

			fmt.Fprintln(a.stderr, color.GreenString("✓")+" Key pair generated")
			fmt.Fprintln(a.stderr, color.CyanString("→")+" Secret key: "+color.YellowString(keyPath))
			fmt.Fprintln(a.stderr, color.CyanString("→")+" Public key: "+color.YellowString(pubPath))
			if noPassphrase {
				fmt.Fprintln(a.stderr, color.YellowString("!")+" The secret key is not passphrase protected")
			}
			fmt.Fprintln(a.stdout, fingerprint)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "key name (default from config, \"identity\")")
	cmd.Flags().BoolVar(&noPassphrase, "no-passphrase", false, "store the secret key without passphrase protection")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing key pair")
	return cmd
}

func (a *app) pubkeyCmd() *cobra.Command {
	var keyPath, outPath string

	cmd := &cobra.Command{
		Use:   "pubkey",
		Short: "Write the public key of a key file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			km, err := a.loadKey(keyPath)
			if err != nil {
				return err
			}
			defer km.Wipe()

			return a.traced("pubkey", func(ctx context.Context) error {
				out, err := a.createOutput(ctx, outPath, 0o644)
				if err != nil {
					return err
				}
				defer out.Abort()
				if err := km.PublicKey().Write(out); err != nil {
					return err
				}
				return out.Commit()
			})
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "", "secret key file (default: configured key)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "output file")
	return cmd
}

func (a *app) fingerprintCmd() *cobra.Command {
	var pubPath string

	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the BLAKE3 fingerprint of a public key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := a.loadPublicKey(pubPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, pub.Fingerprint())
			return nil
		},
	}

	cmd.Flags().StringVar(&pubPath, "pub", "", "public key file (default: configured public key)")
	return cmd
}
