package main

import (
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/reqforge/internal/workflow"
)

func validateReportFormat(format string) error {
	switch format {
	case "none", "yaml", "json":
		return nil
	default:
		return fmt.Errorf("invalid --report %q: want none, yaml, or json", format)
	}
}

// writeReport encodes rep as yaml or json.
func writeReport(w io.Writer, rep *workflow.Report, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return nil
	case "none":
		return nil
	default:
		return validateReportFormat(format)
	}
}
