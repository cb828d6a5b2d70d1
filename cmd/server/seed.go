package main

import (
	"careerchat/internal/app"
	"careerchat/internal/model"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCount int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create sample sessions and drive them to completion",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().IntVarP(&seedCount, "count", "n", 1, "number of sessions to create")
	rootCmd.AddCommand(seedCmd)
}

// sampleAnswer returns a plausible client answer for the required type
func sampleAnswer(t model.AnswerType, turn int) model.SubmitAnswerRequest {
	req := model.SubmitAnswerRequest{Type: t, ClientTurnID: uuid.NewString()}
	switch t {
	case model.AnswerTypeText:
		req.Payload.Text = fmt.Sprintf("Sample reflection number %d about the work I enjoy.", turn)
	case model.AnswerTypeMultipleChoice:
		req.Payload.OptionID = []string{"a", "b", "c", "d"}[turn%4]
	case model.AnswerTypeRanking:
		req.Payload.Items = []string{"impact", "autonomy", "growth", "stability"}
	}
	return req
}

func runSeed(cmd *cobra.Command, _ []string) error {
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
	defer a.Close(context.Background())

	for i := 0; i < seedCount; i++ {
		view, err := a.Turns.CreateSession(ctx)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		next := view.Next
		for turn := 1; next != model.AnswerTypeComplete; turn++ {
			res, err := a.Turns.SubmitAnswer(ctx, view.SessionID, sampleAnswer(next, turn))
			if err != nil {
				return fmt.Errorf("session %s turn %d: %w", view.SessionID, turn, err)
			}
			next = res.Next
		}

		token, err := a.Auth.GenerateSessionToken(view.SessionID)
		if err != nil {
			return err
		}
		log.Info("seeded session", zap.String("session_id", view.SessionID))
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", view.SessionID, token)
	}
	return nil
}
