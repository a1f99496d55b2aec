package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketdesk/mcp-polygon/internal/release"
)

// newReleaseCmd groups the release validation commands used by CI and by
// operators planning a rollback.
func newReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Validates release tags, manifests and compatibility tables",
	}
	cmd.AddCommand(newReleaseValidateCmd())
	cmd.AddCommand(newReleaseVerifyManifestCmd())
	cmd.AddCommand(newReleasePublishCmd())
	cmd.AddCommand(newReleaseCheckCompatCmd())
	cmd.AddCommand(newReleaseRollbackCmd())
	return cmd
}

func newReleaseValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <tag>",
		Short: "Checks that a tag is a strict MAJOR.MINOR.PATCH version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := release.ParseVersion(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.Tag())
			return nil
		},
	}
}

func newReleaseVerifyManifestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-manifest <manifest.json>",
		Short: "Verifies every tag and digest in a release manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := release.LoadManifest(args[0])
			if err != nil {
				return err
			}
			if err := m.Verify(); err != nil {
				return err
			}
			latest, err := m.Latest()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "manifest ok: %d tags, latest %s\n", len(m.Tags), latest.Tag())
			return nil
		},
	}
}

func newReleasePublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish <manifest.json> <tag> <digest>",
		Short: "Records a newly pushed tag in the release manifest",
		Long: `Records a tag -> digest pair in the manifest. Published tags are
immutable: re-publishing an existing tag with a different digest fails.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := release.LoadManifest(args[0])
			if err != nil {
				return err
			}
			if err := m.Publish(args[1], args[2]); err != nil {
				return err
			}
			if err := m.Save(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s\n", args[1])
			return nil
		},
	}
}

func newReleaseCheckCompatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-compat <compat.json>",
		Short: "Checks that feature sets only grow across versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := release.LoadCompat(args[0])
			if err != nil {
				return err
			}
			if err := release.CheckCompat(rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "compatibility table ok: %d versions\n", len(rows))
			return nil
		},
	}
}

func newReleaseRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <manifest.json> <tag>",
		Short: "Prints the pinned image reference for rolling back to a tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := release.LoadManifest(args[0])
			if err != nil {
				return err
			}
			ref, err := m.RollbackRef(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ref)
			return nil
		},
	}
}
