package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/reqforge/internal/config"
	"github.com/ShayCichocki/reqforge/internal/console"
	"github.com/ShayCichocki/reqforge/internal/debuglog"
	"github.com/ShayCichocki/reqforge/internal/tui"
	"github.com/ShayCichocki/reqforge/internal/workflow"
)

const requirementPrompt = "Enter the main task/requirement: "

// errNoRequirement is returned when no requirement text was supplied.
var errNoRequirement = errors.New("no requirement given")

var (
	runTUI       bool
	runVerbose   bool
	reportFormat string
	reportFile   string
)

var runCmd = &cobra.Command{
	Use:   "run [requirement...]",
	Short: "Create a parent item, its development items, and their test cases",
	Long: `Run the full workflow for one requirement.

The requirement is taken from the arguments. Without arguments it is read from
an interactive prompt, or from the first non-empty line of standard input.

Steps:
  1. Create the parent item in the configured project
  2. Generate 3-5 development items and create each one, linked to the parent
  3. Generate 3-5 test cases per development item and create them as children
  4. List the project's items

Only a failure to create the parent item stops the run. Every later failure is
reported and the run continues.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show live progress in a terminal UI")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print generated test-case details")
	runCmd.Flags().StringVar(&reportFormat, "report", "none", "Write a run report: none, yaml, or json")
	runCmd.Flags().StringVar(&reportFile, "report-file", "", "Write the report to this file instead of stdout")
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := validateReportFormat(reportFormat); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	// Status output moves to stderr when the report takes stdout.
	statusOut := cmd.OutOrStdout()
	if reportFormat != "none" && reportFile == "" {
		statusOut = cmd.ErrOrStderr()
	}

	interactive := console.IsTerminal(os.Stdin)
	var requirement string
	// The terminal UI prompts for the requirement itself.
	if len(args) > 0 || !runTUI || !interactive {
		requirement, err = readRequirement(args, cmd.InOrStdin(), statusOut, interactive)
		if err != nil {
			return err
		}
	}

	var (
		rep    *workflow.Report
		runErr error
	)
	if runTUI {
		rep, runErr, err = runWithTUI(ctx, cfg, log, requirement)
		if err != nil {
			return err
		}
	} else {
		printer := console.NewWithOptions(statusOut, console.Options{
			Color:   console.IsTerminal(statusOut),
			Width:   console.TerminalWidth(statusOut),
			Verbose: runVerbose,
		})
		wf, gen, err := newWorkflow(cfg, log, printer)
		if err != nil {
			return err
		}
		rep, runErr = wf.Run(ctx, requirement)
		if rep != nil {
			rep.Usage = usageOf(gen)
			printer.Field("Completion calls", fmt.Sprintf("%d (%d in / %d out tokens, $%.4f)",
				rep.Usage.Calls, rep.Usage.InputTokens, rep.Usage.OutputTokens, rep.Usage.CostUSD))
		}
	}

	if rep != nil {
		if err := emitReport(cmd.OutOrStdout(), rep); err != nil {
			return err
		}
	}
	return runErr
}

// runWithTUI runs the workflow behind the terminal UI. The returned runErr is
// the workflow's own error; err reports a UI failure or cancellation.
func runWithTUI(ctx context.Context, cfg *config.Config, log *debuglog.Logger, requirement string) (rep *workflow.Report, runErr error, err error) {
	sink := &tui.ProgramSink{}
	wf, gen, err := newWorkflow(cfg, log, sink)
	if err != nil {
		return nil, nil, err
	}

	program, app := tui.NewRunProgram(requirement, func(req string) (*workflow.Report, error) {
		r, err := wf.Run(ctx, req)
		if r != nil {
			r.Usage = usageOf(gen)
		}
		return r, err
	}, tea.WithContext(ctx))
	sink.Attach(program)

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, nil, fmt.Errorf("terminal UI: %w", err)
	}
	if !app.Done() {
		return nil, nil, errors.New("run cancelled")
	}
	rep, runErr = app.Result()
	return rep, runErr, nil
}

// readRequirement resolves the requirement text. Arguments win; otherwise an
// interactive reader is prompted once and a piped reader yields its first
// non-empty line.
func readRequirement(args []string, in io.Reader, out io.Writer, interactive bool) (string, error) {
	if len(args) > 0 {
		req := strings.TrimSpace(strings.Join(args, " "))
		if req == "" {
			return "", errNoRequirement
		}
		return req, nil
	}

	scanner := bufio.NewScanner(in)
	if interactive {
		fmt.Fprint(out, requirementPrompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("read requirement: %w", err)
			}
			return "", errNoRequirement
		}
		req := strings.TrimSpace(scanner.Text())
		if req == "" {
			return "", errNoRequirement
		}
		return req, nil
	}

	for scanner.Scan() {
		if req := strings.TrimSpace(scanner.Text()); req != "" {
			return req, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read requirement: %w", err)
	}
	return "", errNoRequirement
}

// emitReport writes rep in the selected format, to --report-file or stdout.
func emitReport(stdout io.Writer, rep *workflow.Report) error {
	if reportFormat == "none" {
		return nil
	}
	if reportFile == "" {
		return writeReport(stdout, rep, reportFormat)
	}

	f, err := os.Create(reportFile)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := writeReport(f, rep, reportFormat); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
