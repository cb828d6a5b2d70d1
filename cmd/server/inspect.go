package main

import (
	"careerchat/internal/app"
	"careerchat/internal/assessment"
	"careerchat/internal/model"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type inspectReport struct {
	SessionID  string                 `json:"sessionId"`
	Version    int64                  `json:"version"`
	Degraded   bool                   `json:"degraded"`
	State      model.AssessmentState  `json:"state"`
	Next       model.AnswerType       `json:"next,omitempty"`
	Progress   model.Progress         `json:"progress"`
	Violations []assessment.Violation `json:"violations"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Load a stored session and check its invariants",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	id := args[0]
	ok, err := a.Sessions.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}

	s, err := a.Sessions.Load(ctx, id)
	if err != nil {
		return err
	}

	report := inspectReport{
		SessionID:  s.ID,
		Version:    s.Version,
		Degraded:   a.Sessions.Degraded(id),
		State:      s.Assessment,
		Progress:   a.Engine.Progress(s.Assessment),
		Violations: a.Engine.Validate(s.Assessment).Violations,
	}
	if report.Violations == nil {
		report.Violations = []assessment.Violation{}
	}
	// The required type is only meaningful for a state that passes validation
	if len(report.Violations) == 0 {
		if next, err := a.Engine.RequiredType(s.Assessment); err == nil {
			report.Next = next
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if len(report.Violations) > 0 {
		return fmt.Errorf("session %s violates %d invariant(s)", id, len(report.Violations))
	}
	return nil
}
