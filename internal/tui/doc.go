// Package tui provides the live terminal view for reqforge runs.
//
// The view is read-only once a run starts. When no requirement is given it
// first shows an input field; pressing Enter starts the run. Progress arrives
// as workflow events sent through ProgramSink, and the final report arrives as
// RunDoneMsg. Users quit with 'q' once the run is done, or Ctrl+C at any time.
//
// Usage:
//
//	program, app := tui.NewRunProgram(requirement, func(req string) (*workflow.Report, error) {
//	    return wf.Run(ctx, req)
//	})
//	sink.Attach(program)
//	_, err := program.Run()
//	report, runErr := app.Result()
package tui
