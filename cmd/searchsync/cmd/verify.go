package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openmediahub/searchsync/internal/engine"
	syncerrors "github.com/openmediahub/searchsync/internal/errors"
	"github.com/openmediahub/searchsync/internal/ui"
)

func newVerifyCmd() *cobra.Command {
	var jsonOutput bool
	var fix bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare the index against the database",
		Long: `Walk every document id in the index and every entity id in the
database, and report the difference per kind.

Orphaned documents exist only in the index; missing documents exist
only in the database. With --fix, both sets are queued as ordinary
markers and the next drain cycle repairs them. Verification never
writes to the index directly.`,
		Example: `  # Report drift
  searchsync verify

  # Queue repairs, then drain
  searchsync verify --fix && searchsync drain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), cmd, jsonOutput, fix)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&fix, "fix", false, "Queue drifted entries for reconciliation")

	return cmd
}

func runVerify(ctx context.Context, cmd *cobra.Command, jsonOutput, fix bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sdb, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = sdb.Close() }()

	client, err := openIndex(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	eng, err := buildEngine(cfg, sdb, client, nil, nil)
	if err != nil {
		return err
	}

	report, err := eng.Verify(ctx)
	if err != nil {
		return syncerrors.IndexError("failed to verify index", err)
	}

	info := verifyInfoFromReport(report)

	if fix && !report.Clean() {
		queued, err := eng.Fix(ctx, report)
		if err != nil {
			return syncerrors.DatabaseError("failed to queue repairs", err)
		}
		info.Fixed = queued
	}

	noColor := ui.DetectNoColor()
	renderer := ui.NewVerifyRenderer(cmd.OutOrStdout(), noColor)

	if jsonOutput {
		err = renderer.RenderJSON(info)
	} else {
		err = renderer.Render(info)
	}
	if err != nil {
		return err
	}

	// Unrepaired drift fails the command so scripts can alert on it.
	if !report.Clean() && !fix {
		return fmt.Errorf("index drift detected")
	}
	return nil
}

func verifyInfoFromReport(report *engine.Report) ui.VerifyInfo {
	var info ui.VerifyInfo
	for _, k := range report.Kinds {
		vk := ui.VerifyKind{
			Kind:      string(k.Kind),
			Entities:  k.Entities,
			Documents: k.Documents,
		}
		for _, id := range k.Orphans {
			vk.Orphans = append(vk.Orphans, string(id))
		}
		for _, key := range k.Missing {
			vk.Missing = append(vk.Missing, int64(key))
		}
		info.Kinds = append(info.Kinds, vk)
	}
	return info
}
