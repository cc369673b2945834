package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groupguard/modbot/internal/model"
)

var (
	exampleText    string
	exampleName    string
	exampleBio     string
	exampleScore   int
	exampleAdminID int64
	exampleLimit   int
)

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "Manage the labeled example pool used for few-shot prompting",
}

var examplesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or relabel an example",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exampleText == "" {
			return fmt.Errorf("--text is required")
		}
		if exampleScore < model.MinScore || exampleScore > model.MaxScore {
			return fmt.Errorf("--score must be in [%d, %d]", model.MinScore, model.MaxScore)
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		ex := model.LabeledExample{
			Text:  exampleText,
			Name:  exampleName,
			Bio:   exampleBio,
			Score: exampleScore,
		}
		if exampleAdminID != 0 {
			ex.AdminID = &exampleAdminID
		}
		if err := st.AddExample(cmd.Context(), ex); err != nil {
			return err
		}
		fmt.Println("example added")
		return nil
	},
}

var examplesRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove an example by its text",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exampleText == "" {
			return fmt.Errorf("--text is required")
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		var adminID *int64
		if exampleAdminID != 0 {
			adminID = &exampleAdminID
		}
		if err := st.RemoveExample(cmd.Context(), exampleText, adminID); err != nil {
			return err
		}
		fmt.Println("example removed")
		return nil
	},
}

var examplesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List examples, admin-specific first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		var adminIDs []int64
		if exampleAdminID != 0 {
			adminIDs = append(adminIDs, exampleAdminID)
		}
		examples, err := st.FetchExamples(cmd.Context(), adminIDs, exampleLimit)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(examples, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{examplesAddCmd, examplesRemoveCmd, examplesListCmd} {
		c.Flags().StringVar(&exampleText, "text", "", "example message text")
		c.Flags().Int64Var(&exampleAdminID, "admin", 0, "owning admin id (0 = shared pool)")
	}
	examplesAddCmd.Flags().StringVar(&exampleName, "name", "", "sender display name")
	examplesAddCmd.Flags().StringVar(&exampleBio, "bio", "", "sender bio")
	examplesAddCmd.Flags().IntVar(&exampleScore, "score", 0, "label: positive = spam, negative = legitimate")
	examplesListCmd.Flags().IntVar(&exampleLimit, "limit", 50, "max rows to list")

	examplesCmd.AddCommand(examplesAddCmd, examplesRemoveCmd, examplesListCmd)
	rootCmd.AddCommand(examplesCmd)
}
