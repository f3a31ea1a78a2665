// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/warden/lib/policy"
)

// runCheck evaluates one proposed action against a policy file and
// prints the decision as JSON. The verdict maps to the exit code:
// 0 allow, 2 deny, 3 require_approval.
func runCheck(args []string) error {
	flagSet := pflag.NewFlagSet("warden check", pflag.ContinueOnError)
	policyPath := flagSet.String("policy", "", "path to the YAML policy file (required)")
	additions := flagSet.Int("additions", 0, "added line count (edit checks)")
	deletions := flagSet.Int("deletions", 0, "deleted line count (edit checks)")
	touchesDeps := flagSet.Bool("touches-deps", false, "edit touches dependency manifests (edit checks)")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage:
  warden check command <command-string> --policy <file>
  warden check path <path> --policy <file>
  warden check network <domain> --policy <file>
  warden check edit <path> --policy <file> [--additions N] [--deletions N] [--touches-deps]
  warden check sensitive <path>... --policy <file>

Flags:
%s`, flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	positional := flagSet.Args()
	if len(positional) < 2 {
		flagSet.Usage()
		return fmt.Errorf("check requires an action kind and a subject")
	}
	if *policyPath == "" {
		return fmt.Errorf("--policy is required")
	}

	config, err := policy.Load(*policyPath)
	if err != nil {
		return err
	}

	kind, subject := positional[0], positional[1]
	switch kind {
	case "command":
		return printDecision(policy.EvaluateCommand(config, subject))
	case "path":
		return printDecision(policy.EvaluatePath(config, subject))
	case "network":
		return printDecision(policy.EvaluateNetwork(config, subject))
	case "edit":
		return printDecision(policy.EvaluateEditSummary(config, policy.EditSummary{
			Path:                subject,
			Additions:           *additions,
			Deletions:           *deletions,
			TouchesDependencies: *touchesDeps,
		}))
	case "sensitive":
		touched := policy.SensitiveTouches(config, positional[1:])
		for _, path := range touched {
			fmt.Println(path)
		}
		return nil
	default:
		return fmt.Errorf("unknown check kind: %q", kind)
	}
}

func printDecision(decision policy.Decision) error {
	encoded, err := json.Marshal(decision)
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))

	switch decision.Verdict {
	case policy.VerdictAllow:
		return nil
	case policy.VerdictDeny:
		return &verdictError{code: 2, message: "denied: " + decision.Reason}
	default:
		return &verdictError{code: 3, message: "approval required: " + decision.Reason}
	}
}
