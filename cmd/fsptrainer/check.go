package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"fsptrainer"

	"github.com/spf13/cobra"
)

var errBankInvalid = errors.New("term bank check failed")

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Validate a term bank file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := cfg.TermBank.Path
		if len(args) == 1 {
			path = args[0]
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		samples, _ := cmd.Flags().GetInt("samples")

		return runCheck(cmd.OutOrStdout(), path, asJSON, samples)
	},
}

func init() {
	checkCmd.Flags().Bool("json", false, "print the audit report as JSON")
	checkCmd.Flags().Int("samples", 200, "number of generated questions to validate")
}

func runCheck(out io.Writer, path string, asJSON bool, samples int) error {
	bank, err := fsptrainer.LoadTermBank(path)
	if err != nil {
		fmt.Fprintf(out, "❌ %v\n", err)
		return errBankInvalid
	}
	if bank.IsEmpty() {
		fmt.Fprintf(out, "❌ %s: %v\n", path, fsptrainer.ErrEmptyBank)
		return fmt.Errorf("%w: %w", errBankInvalid, fsptrainer.ErrEmptyBank)
	}

	report := bank.Audit()
	var rejected []fsptrainer.ValidationResult
	if report.OK() {
		rejected = sampleQuestions(bank, samples)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		printReport(out, path, report, rejected)
	}

	if !report.OK() || len(rejected) > 0 {
		return errBankInvalid
	}
	return nil
}

// sampleQuestions generates questions from the bank and returns rejected checks
func sampleQuestions(bank *fsptrainer.TermBank, samples int) []fsptrainer.ValidationResult {
	if samples <= 0 {
		return nil
	}
	gen := fsptrainer.NewGenerator(bank, rand.New(rand.NewSource(1)))

	var rejected []fsptrainer.ValidationResult
	for generated := 0; generated < samples; {
		questions, err := gen.Generate(samples - generated)
		if err != nil || len(questions) == 0 {
			break
		}
		for _, q := range questions {
			if res := fsptrainer.CheckQuestion(q, bank); res.Action == fsptrainer.ActionReject {
				rejected = append(rejected, res)
			}
		}
		generated += len(questions)
	}
	return rejected
}

func printReport(out io.Writer, path string, report fsptrainer.AuditReport, rejected []fsptrainer.ValidationResult) {
	fmt.Fprintf(out, "Term bank: %s\n", path)
	fmt.Fprintf(out, "  Terms:    %d\n", report.Terms)
	fmt.Fprintf(out, "  Meanings: %d\n", report.Meanings)

	if len(report.Shared) > 0 {
		fmt.Fprintln(out, "\nMeanings shared by several terms:")
		for _, s := range report.Shared {
			fmt.Fprintf(out, "  %s: %s\n", s.Meaning, strings.Join(s.Terms, ", "))
		}
	}

	if len(report.Infeasible) > 0 {
		fmt.Fprintln(out, "\nToo few distractors:")
		for _, t := range report.Infeasible {
			if t.Meaning != "" {
				fmt.Fprintf(out, "  %s (%s via %q): %d eligible\n", t.Term, t.Direction, t.Meaning, t.Eligible)
			} else {
				fmt.Fprintf(out, "  %s (%s): %d eligible\n", t.Term, t.Direction, t.Eligible)
			}
		}
	}

	for _, r := range rejected {
		fmt.Fprintf(out, "  question %d rejected: %s\n", r.QuestionID, r.Reason)
	}

	if report.OK() && len(rejected) == 0 {
		fmt.Fprintln(out, "\n✅ Term bank OK")
	}
}
