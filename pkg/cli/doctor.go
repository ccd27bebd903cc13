package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/device-doctor/pkg/checks"
	"github.com/devicelab-dev/device-doctor/pkg/command"
	"github.com/devicelab-dev/device-doctor/pkg/logger"
	"github.com/devicelab-dev/device-doctor/pkg/requirement"
)

var doctorCommand = &cli.Command{
	Name:  "doctor",
	Usage: "Check that the mobile toolchains on this machine are usable",
	Description: `Evaluate the environment requirement checks for the selected
platform (or all platforms) and print a per-check ledger.

Examples:
  device-doctor doctor
  device-doctor -p android doctor
  device-doctor doctor --fail-fast`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "fail-fast",
			Usage: "Stop at the first unfulfilled requirement",
		},
	},
	Action: runDoctor,
}

var (
	fulfilledMark   = color.New(color.FgGreen).SprintFunc()
	unfulfilledMark = color.New(color.FgRed).SprintFunc()
	skippedMark     = color.New(color.FgCyan).SprintFunc()
	dimText         = color.New(color.Faint).SprintFunc()
)

// printOutcome is the doctor's progress reporter: one line per check as
// it completes.
func printOutcome(title string, outcome requirement.Outcome) {
	var mark string
	switch outcome.Status {
	case requirement.StatusFulfilled:
		mark = fulfilledMark("✓")
	case requirement.StatusUnfulfilled:
		mark = unfulfilledMark("✗")
	case requirement.StatusSkipped:
		mark = skippedMark("-")
	}

	line := fmt.Sprintf("  %s %s", mark, title)
	if outcome.Detail != "" {
		line += " " + dimText("("+outcome.Detail+")")
	}
	fmt.Println(line)
}

func runDoctor(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Close()

	platform, err := resolvePlatform(c, cfg)
	if err != nil {
		return err
	}

	exe := command.NewShell(cfg.CommandTimeout())
	opts := checks.Options{Executor: exe}

	var groups []requirement.Group
	switch platform {
	case "android":
		groups = []requirement.Group{checks.AndroidGroup(opts)}
	case "ios":
		groups = []requirement.Group{checks.IOSGroup(opts)}
	default:
		groups = []requirement.Group{checks.AndroidGroup(opts), checks.IOSGroup(opts)}
	}

	result, err := requirement.NewProcessor().Execute(c.Context, groups, requirement.Options{
		FailFast: c.Bool("fail-fast"),
		Reporter: printOutcome,
	})
	if err != nil {
		var aggErr *requirement.AggregateError
		if errors.As(err, &aggErr) {
			printSummary(aggErr.Records)
			printFailures(aggErr.Records)
			return cli.Exit("", 1)
		}
		return err
	}

	printSummary(result.Records)
	if !result.AllFulfilled() {
		printFailures(result.Records)
		return cli.Exit("", 1)
	}

	fmt.Printf("  %s everything looks good\n", fulfilledMark("✓"))
	return nil
}

// printSummary prints the per-status counts below the ledger.
func printSummary(records []requirement.Record) {
	var fulfilled, unfulfilled, skipped int
	for _, rec := range records {
		switch rec.Outcome.Status {
		case requirement.StatusFulfilled:
			fulfilled++
		case requirement.StatusUnfulfilled:
			unfulfilled++
		case requirement.StatusSkipped:
			skipped++
		}
	}
	fmt.Println()
	fmt.Printf("  %d fulfilled, %d unfulfilled, %d skipped\n", fulfilled, unfulfilled, skipped)
}

// printFailures lists the failing requirements with their remediation
// hints after the ledger.
func printFailures(records []requirement.Record) {
	fmt.Println()
	for _, rec := range records {
		if !rec.Outcome.Failed() {
			continue
		}
		fmt.Printf("  %s %s\n", unfulfilledMark("✗"), requirement.Describe(rec))
	}
}
