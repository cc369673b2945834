package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groupguard/modbot/internal/model"
	"github.com/groupguard/modbot/internal/prompt"
)

var (
	classifyText    string
	classifyName    string
	classifyBio     string
	classifyAdminID int64
)

// classifyCmd scores a message once and prints the verdict. Context
// collectors need live bridge data, so CLI scoring runs on the message and
// profile fields alone.
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Score a single message and print the verdict",
	RunE: func(cmd *cobra.Command, args []string) error {
		if classifyText == "" {
			return fmt.Errorf("--text is required")
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		var adminIDs []int64
		if classifyAdminID != 0 {
			adminIDs = append(adminIDs, classifyAdminID)
		}
		examples, err := env.Store.FetchExamples(cmd.Context(), adminIDs, cfg.Classifier.MaxExamples)
		if err != nil {
			return err
		}

		signals := map[string]model.ContextResult{}
		req := prompt.Request{
			System: env.Builder.BuildSystem(examples, signals),
			User:   prompt.FormatRequest(classifyText, classifyName, classifyBio, signals),
		}

		verdict, err := env.Gateway.Classify(cmd.Context(), req)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(verdict, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyText, "text", "", "message text to score (required)")
	classifyCmd.Flags().StringVar(&classifyName, "name", "", "sender display name")
	classifyCmd.Flags().StringVar(&classifyBio, "bio", "", "sender bio")
	classifyCmd.Flags().Int64Var(&classifyAdminID, "admin", 0, "admin id for personalized examples")
	rootCmd.AddCommand(classifyCmd)
}
