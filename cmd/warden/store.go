// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/warden/lib/keyring"
	"github.com/bureau-foundation/warden/lib/metastore"
)

// storeParams holds the flags shared by every subcommand that opens
// the metadata store.
type storeParams struct {
	dataDir   string
	key       string
	keyPrompt bool
}

func (p *storeParams) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&p.dataDir, "data-dir", "", "metadata data directory (required)")
	flagSet.StringVar(&p.key, "key", "", "encryption secret: 64-hex-char key or passphrase (never written to disk)")
	flagSet.BoolVar(&p.keyPrompt, "key-prompt", false, "prompt for the encryption secret without echo")
}

// open parses flags and constructs the store. Warnings (including the
// empty-aggregate fallback diagnostic) go to stderr.
func (p *storeParams) open(flagSet *pflag.FlagSet, args []string) (*metastore.Store, []string, error) {
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if p.dataDir == "" {
		return nil, nil, fmt.Errorf("--data-dir is required")
	}

	secret := p.key
	if p.keyPrompt {
		prompted, err := promptSecret()
		if err != nil {
			return nil, nil, err
		}
		secret = prompted
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	store, err := metastore.New(metastore.Options{
		DataDir:          p.dataDir,
		EncryptionSecret: secret,
		Logger:           logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return store, flagSet.Args(), nil
}

func promptSecret() (string, error) {
	fmt.Fprint(os.Stderr, "encryption secret: ")
	line, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(line), nil
}

// runShow decrypts the aggregate and prints it as indented JSON.
func runShow(args []string) error {
	var params storeParams
	flagSet := pflag.NewFlagSet("warden show", pflag.ContinueOnError)
	params.addFlags(flagSet)

	store, _, err := params.open(flagSet, args)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	encoded, err := json.MarshalIndent(store.Load(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

// runAudit appends an audit event record. The record ID is assigned
// here — the store never assigns identity.
func runAudit(args []string) error {
	if len(args) < 1 || args[0] != "append" {
		return fmt.Errorf("usage: warden audit append --data-dir <dir> --action <action> [--detail <text>]")
	}

	var params storeParams
	flagSet := pflag.NewFlagSet("warden audit append", pflag.ContinueOnError)
	params.addFlags(flagSet)
	action := flagSet.String("action", "", "audited action (required)")
	detail := flagSet.String("detail", "", "free-form detail")

	store, _, err := params.open(flagSet, args[1:])
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	if *action == "" {
		return fmt.Errorf("--action is required")
	}

	aggregate := store.Load()
	event := metastore.Record{
		"id":     uuid.NewString(),
		"action": *action,
	}
	if *detail != "" {
		event["detail"] = *detail
	}
	aggregate.AuditEvents = append(aggregate.AuditEvents, event)

	if err := store.Save(aggregate); err != nil {
		return err
	}
	fmt.Println(event["id"])
	return nil
}

// runBackup exports a point-in-time backup and prints its path.
func runBackup(args []string) error {
	var params storeParams
	flagSet := pflag.NewFlagSet("warden backup", pflag.ContinueOnError)
	params.addFlags(flagSet)

	store, _, err := params.open(flagSet, args)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	backupPath, err := store.ExportBackup()
	if err != nil {
		return err
	}
	fmt.Println(backupPath)
	return nil
}

// runRestore imports a backup over the primary file.
func runRestore(args []string) error {
	var params storeParams
	flagSet := pflag.NewFlagSet("warden restore", pflag.ContinueOnError)
	params.addFlags(flagSet)

	store, positional, err := params.open(flagSet, args)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	if len(positional) != 1 {
		return fmt.Errorf("usage: warden restore <backup-path> --data-dir <dir>")
	}

	aggregate, err := store.ImportBackup(positional[0])
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(aggregate, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

// runPath prints the primary data file path.
func runPath(args []string) error {
	var params storeParams
	flagSet := pflag.NewFlagSet("warden path", pflag.ContinueOnError)
	params.addFlags(flagSet)

	store, _, err := params.open(flagSet, args)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	fmt.Println(store.DataPath())
	return nil
}

// runKeygen prints a fresh 64-hex-character key to stdout, suitable
// for --key or for seeding a key file.
func runKeygen() error {
	key, err := keyring.GenerateHex()
	if err != nil {
		return err
	}
	fmt.Println(key)
	return nil
}
