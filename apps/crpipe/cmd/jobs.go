package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/astrokit/crpipe/pkg/artifact"
	"github.com/astrokit/crpipe/pkg/config"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect archived job diagnostics",
	Long: `Browse the diagnostics archive. Temp files are deleted when a job ends,
so the archived job record and captured tool output are the only trace of
past runs. Requires diagnostics to be enabled in config.`,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived job IDs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := jobsStore(cmd)
		if err != nil {
			return err
		}
		ids, err := archivedJobIDs(cmd.Context(), store)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("No archived jobs.")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Print an archived job's record and captured output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := jobsStore(cmd)
		if err != nil {
			return err
		}
		return printArchivedJob(cmd.Context(), store, cmd.OutOrStdout(), args[0])
	},
}

var jobsRmCmd = &cobra.Command{
	Use:   "rm <job-id>",
	Short: "Delete an archived job's diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := jobsStore(cmd)
		if err != nil {
			return err
		}
		n, err := deleteArchivedJob(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("no archived job %q", args[0])
		}
		fmt.Printf("✓ Deleted %d archived file(s) for job %s\n", n, args[0])
		return nil
	},
}

func jobsStore(cmd *cobra.Command) (artifact.Store, error) {
	cfg, err := GetConfig(cmd)
	if err != nil {
		return nil, err
	}
	if !cfg.Diagnostics.Enabled {
		return nil, fmt.Errorf("diagnostics archive is not enabled in config")
	}
	env, err := config.ValidateEnv()
	if err != nil {
		return nil, err
	}
	return newDiagnosticsStore(cfg, env)
}

// archivedJobIDs lists the distinct job IDs present under the jobs prefix.
func archivedJobIDs(ctx context.Context, store artifact.Store) ([]string, error) {
	arts, err := store.List(ctx, artifact.JobsRoot)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, a := range arts {
		rest := strings.TrimPrefix(a.Key, artifact.JobsRoot)
		if id, _, ok := strings.Cut(rest, "/"); ok && id != "" {
			seen[id] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// printArchivedJob writes every archived file of one job, job record first.
func printArchivedJob(ctx context.Context, store artifact.Store, w io.Writer, jobID string) error {
	arts, err := store.List(ctx, artifact.JobPrefix(jobID))
	if err != nil {
		return err
	}
	if len(arts) == 0 {
		return fmt.Errorf("no archived job %q", jobID)
	}
	// Lexical order puts job.json ahead of the log files.
	sort.Slice(arts, func(i, j int) bool { return arts[i].Key < arts[j].Key })
	for _, a := range arts {
		body, err := store.Download(ctx, a.Key)
		if err != nil {
			return fmt.Errorf("downloading %s: %w", a.Key, err)
		}
		fmt.Fprintf(w, "── %s ──\n", strings.TrimPrefix(a.Key, artifact.JobPrefix(jobID)))
		if _, err := io.Copy(w, body); err != nil {
			body.Close()
			return err
		}
		body.Close()
		fmt.Fprintln(w)
	}
	return nil
}

// deleteArchivedJob removes every archived file of one job and reports how
// many were deleted.
func deleteArchivedJob(ctx context.Context, store artifact.Store, jobID string) (int, error) {
	arts, err := store.List(ctx, artifact.JobPrefix(jobID))
	if err != nil {
		return 0, err
	}
	for _, a := range arts {
		if err := store.Delete(ctx, a.Key); err != nil {
			return 0, fmt.Errorf("deleting %s: %w", a.Key, err)
		}
	}
	return len(arts), nil
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd, jobsShowCmd, jobsRmCmd)
}
