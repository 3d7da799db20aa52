package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/term"

	"github.com/constxd/packnback/internal/asymcrypt"
	"github.com/constxd/packnback/internal/crypto"
	"github.com/constxd/packnback/internal/crypto/identity"
	"github.com/constxd/packnback/internal/observability"
)

var (
	errNoPassphraseSource = errors.New("no passphrase source: set --passphrase-env or run in a terminal")
	errPassphraseMismatch = errors.New("passphrases do not match")
	errEmptyPassphrase    = errors.New("passphrase must not be empty")
)

// traced runs fn inside a span named after the command.
func (a *app) traced(name string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := observability.StartSpan(a.ctx, "packnback."+name, attrs...)
	err := fn(ctx)
	observability.EndSpan(span, err)
	return err
}

// readPassphrase returns the passphrase from --passphrase-env, or prompts
// on the terminal. With confirm set the prompt is repeated and both
// entries must match. The caller wipes the result.
func (a *app) readPassphrase(prompt string, confirm bool) ([]byte, error) {
	if a.passphraseEnv != "" {
		v, ok := os.LookupEnv(a.passphraseEnv)
		if !ok {
			return nil, fmt.Errorf("environment variable %s is not set", a.passphraseEnv)
		}
		if v == "" {
			return nil, errEmptyPassphrase
		}
		return []byte(v), nil
	}

	f, ok := a.stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil, errNoPassphraseSource
	}
	fd := int(f.Fd())

	fmt.Fprint(a.stderr, prompt)
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(a.stderr)
	if err != nil {
		return nil, err
	}
	if len(pass) == 0 {
		return nil, errEmptyPassphrase
	}
	if !confirm {
		return pass, nil
	}

	fmt.Fprint(a.stderr, "Confirm passphrase: ")
	again, err := term.ReadPassword(fd)
	fmt.Fprintln(a.stderr)
	if err != nil {
		crypto.Wipe(pass)
		return nil, err
	}
	defer crypto.Wipe(again)
	if !bytes.Equal(pass, again) {
		crypto.Wipe(pass)
		return nil, errPassphraseMismatch
	}
	return pass, nil
}

// loadKey reads a key file, prompting for its passphrase if it is sealed.
// An empty path selects the configured key.
func (a *app) loadKey(path string) (*asymcrypt.KeyMaterial, error) {
	if path == "" {
		path = a.cfg.KeyPath()
	}
	km, protected, err := identity.LoadKey(path, func() ([]byte, error) {
		return a.readPassphrase(fmt.Sprintf("Passphrase for %s: ", path), false)
	})
	if err != nil {
		return nil, err
	}
	a.metrics.RecordKeyOperation("load")
	a.log.KeyLoaded(path, km.Fingerprint(), protected)
	return km, nil
}

// loadPublicKey reads a public key file. An empty path selects the
// configured public key.
func (a *app) loadPublicKey(path string) (asymcrypt.PublicKeyMaterial, error) {
	if path == "" {
		path = a.cfg.PublicKeyPath()
	}
	pub, err := identity.LoadPublicKey(path)
	if err != nil {
		return asymcrypt.PublicKeyMaterial{}, err
	}
	a.metrics.RecordKeyOperation("load_public")
	return pub, nil
}

// startSpinner shows progress on stderr when it is a terminal. The
// returned func stops it.
func (a *app) startSpinner(message string) func() {
	f, ok := a.stderr.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(f))
	s.Suffix = " " + message
	// Ignore color errors - continue without colored spinner if it fails.
	_ = s.Color("cyan")
	s.Start()
	return s.Stop
}
