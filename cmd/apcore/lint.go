package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"questforge/apcore/pkg/engine"
	ruleErrors "questforge/apcore/pkg/rules/errors"
	"questforge/apcore/pkg/rules/parser"
)

var lintFlags struct {
	file   string
	dir    string
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate rule files",
	Long: `Validate rule files for syntax and semantic errors.

The lint command parses rule files and performs the same checks the
engine runs at registration time:
  - YAML syntax validation
  - Rule structure validation (predicates, effects, invariants)
  - Path shape validation (subsystem.entity.attribute)
  - Footprint validation (declared sets must cover computed sets)

Examples:
  # Lint a single file
  apcore lint --file rules.yaml

  # Lint a directory
  apcore lint --dir rules/

  # JSON output for CI
  apcore lint --file rules.yaml --format json`,
	RunE: lintRules,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "rule file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of rule files")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// LintResult is the validation outcome for a single rule file.
type LintResult struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Rules  int      `json:"rules"`
	Errors []string `json:"errors,omitempty"`
}

func lintRules(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}

	var files []string
	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}
	if lintFlags.dir != "" {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(lintFlags.dir, pattern))
			if err != nil {
				return fmt.Errorf("failed to list rule files: %w", err)
			}
			files = append(files, matches...)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no rule files found")
	}

	results := make([]LintResult, 0, len(files))
	for _, file := range files {
		results = append(results, lintFile(file))
	}

	if lintFlags.format == "json" {
		return outputJSON(results)
	}
	return outputText(results)
}

// lintFile parses one file and runs registration-time validation on its
// rules.
func lintFile(path string) LintResult {
	result := LintResult{File: path, Valid: true}

	doc, err := parser.NewParser().ParseFile(path)
	if err != nil {
		result.Valid = false
		var el *ruleErrors.ErrorList
		if errors.As(err, &el) {
			for _, e := range el.Errors {
				result.Errors = append(result.Errors, e.Error())
			}
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
		return result
	}

	result.Rules = len(doc.Rules)

	// Registration catches what parsing alone cannot: duplicate ids and
	// under-declared footprints.
	registry := engine.NewRegistry(nil, nil)
	for _, rule := range doc.Rules {
		if err := registry.Register(rule); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, err.Error())
		}
	}

	return result
}

func outputJSON(results []LintResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return err
	}
	for _, r := range results {
		if !r.Valid {
			return fmt.Errorf("validation failed")
		}
	}
	return nil
}

func outputText(results []LintResult) error {
	failed := 0
	for _, r := range results {
		if r.Valid {
			fmt.Printf("✓ %s (%d rules)\n", r.File, r.Rules)
			continue
		}
		failed++
		fmt.Printf("✗ %s\n", r.File)
		for _, e := range r.Errors {
			fmt.Printf("    %s\n", e)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed validation", failed, len(results))
	}
	fmt.Printf("\n%d file(s) valid\n", len(results))
	return nil
}
