package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Shreshtthh/MetaScore/client"
)

func init() {
	var revoke bool
	authorizeCmd := &cobra.Command{
		Use:   "authorize ADDRESS",
		Short: "Allow ADDRESS to update scores (owner key)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := session(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Authorize(cmd.Context(), args[0], !revoke); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s allowed=%t\n", args[0], !revoke)
			return nil
		},
	}
	authorizeCmd.Flags().BoolVar(&revoke, "revoke", false, "Clear the tracker flag instead of setting it")
	rootCmd.AddCommand(authorizeCmd)

	verifyCmd := &cobra.Command{
		Use:   "verify SOURCE CATEGORY POINTS",
		Short: "Register a verified activity source (owner key)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid points %q", args[2])
			}
			c, err := session(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.VerifySources(cmd.Context(), []string{args[0]}, []string{args[1]}, []uint64{points}); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "verified %s category=%s points=%d\n", args[0], args[1], points)
			return nil
		},
	}
	rootCmd.AddCommand(verifyCmd)

	revokeCmd := &cobra.Command{
		Use:   "revoke-source SOURCE",
		Short: "Stop accepting reports from SOURCE (owner key)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := session(cmd.Context())
			if err != nil {
				return err
			}
			return c.RevokeSource(cmd.Context(), args[0])
		},
	}
	rootCmd.AddCommand(revokeCmd)

	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "List verified sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := client.New(apiFlag).Sources(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, list)
		},
	}
	rootCmd.AddCommand(sourcesCmd)

	issueKeyCmd := &cobra.Command{
		Use:   "issue-key SOURCE",
		Short: "Issue a new API key for SOURCE (owner key); printed once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := session(cmd.Context())
			if err != nil {
				return err
			}
			key, err := c.IssueSourceKey(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, key)
			return nil
		},
	}
	rootCmd.AddCommand(issueKeyCmd)

	var source, sourceKey, action string
	trackCmd := &cobra.Command{
		Use:   "track USER",
		Short: "Report an activity of USER on behalf of a verified source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sourceKey != "" && source == "" {
				return fmt.Errorf("--source is required with --key")
			}
			c := client.New(apiFlag)
			if sourceKey == "" {
				var err error
				if c, err = session(cmd.Context()); err != nil {
					return err
				}
			}
			res, err := c.Track(cmd.Context(), source, sourceKey, args[0], action)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, res)
		},
	}
	trackCmd.Flags().StringVarP(&source, "source", "s", "", "Source address")
	trackCmd.Flags().StringVarP(&sourceKey, "key", "k", os.Getenv("METASCORE_SOURCE_KEY"), "Source API key; without it PRIVATE_KEY must be the source wallet")
	trackCmd.Flags().StringVar(&action, "action", "", "Free-text action label")
	rootCmd.AddCommand(trackCmd)
}
