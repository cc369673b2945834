package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	policyAdminID int64
	policyEnable  bool
	policyAmount  int64
	groupChatID   int64
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage admin policies and credits",
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show an admin's policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := st.GetPolicy(cmd.Context(), policyAdminID)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var policyAutoCmd = &cobra.Command{
	Use:   "auto-enforce",
	Short: "Enable or disable automatic delete-and-ban for an admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SetAutoEnforce(cmd.Context(), policyAdminID, policyEnable); err != nil {
			return err
		}
		fmt.Printf("auto_enforce=%t for admin %d\n", policyEnable, policyAdminID)
		return nil
	},
}

var policyCreditsCmd = &cobra.Command{
	Use:   "add-credits",
	Short: "Add enforcement credits to an admin's balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		if policyAmount <= 0 {
			return fmt.Errorf("--amount must be positive")
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.AddCredits(cmd.Context(), policyAdminID, policyAmount); err != nil {
			return err
		}
		fmt.Printf("added %d credits to admin %d\n", policyAmount, policyAdminID)
		return nil
	},
}

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage moderated groups",
}

var groupModerationCmd = &cobra.Command{
	Use:   "moderation",
	Short: "Enable or disable moderation for a group",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SetGroupModeration(cmd.Context(), groupChatID, policyEnable); err != nil {
			return err
		}
		fmt.Printf("moderation=%t for chat %d\n", policyEnable, groupChatID)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{policyShowCmd, policyAutoCmd, policyCreditsCmd} {
		c.Flags().Int64Var(&policyAdminID, "admin", 0, "admin id (required)")
		_ = c.MarkFlagRequired("admin")
	}
	policyAutoCmd.Flags().BoolVar(&policyEnable, "enable", false, "enable (true) or disable (false)")
	policyCreditsCmd.Flags().Int64Var(&policyAmount, "amount", 0, "credits to add")

	groupModerationCmd.Flags().Int64Var(&groupChatID, "chat", 0, "chat id (required)")
	groupModerationCmd.Flags().BoolVar(&policyEnable, "enable", false, "enable (true) or disable (false)")
	_ = groupModerationCmd.MarkFlagRequired("chat")

	policyCmd.AddCommand(policyShowCmd, policyAutoCmd, policyCreditsCmd)
	groupCmd.AddCommand(groupModerationCmd)
	rootCmd.AddCommand(policyCmd, groupCmd)
}
