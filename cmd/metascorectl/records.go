package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Shreshtthh/MetaScore/client"
)

func init() {
	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show categories, tiers and roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := client.New(apiFlag).Info(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, info)
		},
	}
	rootCmd.AddCommand(infoCmd)

	mintCmd := &cobra.Command{
		Use:   "mint [ADDRESS]",
		Short: "Mint a record for ADDRESS, or for the PRIVATE_KEY wallet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := session(cmd.Context())
			if err != nil {
				return err
			}
			to := ""
			if len(args) == 1 {
				to = args[0]
			}
			rec, err := c.Mint(cmd.Context(), to)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, rec)
		},
	}
	rootCmd.AddCommand(mintCmd)

	statusCmd := &cobra.Command{
		Use:   "status ADDRESS",
		Short: "Show the record, tier progress and recent activity of ADDRESS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(apiFlag)
			rec, err := c.RecordByOwner(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			acts, err := c.Activities(cmd.Context(), rec.ID, 5)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, map[string]any{"record": rec, "recent_activities": acts})
		},
	}
	rootCmd.AddCommand(statusCmd)

	scoreCmd := &cobra.Command{
		Use:   "score RECORD_ID CATEGORY DELTA",
		Short: "Add DELTA points to a category (tracker or owner key)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid record id %q", args[0])
			}
			delta, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid delta %q", args[2])
			}
			c, err := session(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := c.UpdateScore(cmd.Context(), id, args[1], delta)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, rec)
		},
	}
	rootCmd.AddCommand(scoreCmd)

	var limit int
	leaderboardCmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top records",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := client.New(apiFlag).Leaderboard(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(os.Stdout, "%3d  #%-5d %s  %6d  %s\n", e.Rank, e.RecordID, e.Address, e.TotalScore, e.TierName)
			}
			return nil
		},
	}
	leaderboardCmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of entries")
	rootCmd.AddCommand(leaderboardCmd)
}
