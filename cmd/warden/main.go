// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/warden/lib/version"
)

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	subcommand := os.Args[1]
	args := os.Args[2:]
	switch subcommand {
	case "check":
		return runCheck(args)
	case "show":
		return runShow(args)
	case "audit":
		return runAudit(args)
	case "backup":
		return runBackup(args)
	case "restore":
		return runRestore(args)
	case "path":
		return runPath(args)
	case "keygen":
		return runKeygen()
	case "version", "--version":
		version.Print("warden")
		return nil
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", subcommand)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: warden <subcommand> [flags]

Subcommands:
  check       Evaluate a proposed action against a policy file
  show        Decrypt and print the metadata aggregate
  audit       Manage audit events (append)
  backup      Export a point-in-time backup of the metadata file
  restore     Import a backup over the metadata file
  path        Print the primary data file path
  keygen      Generate a fresh 64-hex-character encryption key
  version     Print version information

Run 'warden <subcommand> --help' for subcommand flags.
`)
}

// verdictError carries a non-allow policy verdict to the exit code:
// 2 for deny, 3 for require_approval. The decision itself has already
// been printed to stdout.
type verdictError struct {
	code    int
	message string
}

func (e *verdictError) Error() string { return e.message }

func (e *verdictError) ExitCode() int { return e.code }
