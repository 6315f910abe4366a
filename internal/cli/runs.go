package cli

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/me/schedlab/pkg/model"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	var algorithm, state string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			if algorithm != "" {
				q.Set("algorithm", algorithm)
			}
			if state != "" {
				q.Set("state", state)
			}
			resp, err := client.Get("/api/v1/runs?" + q.Encode())
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			var data []model.Run
			if err := resp.decode(&data); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(data) == 0 {
				fmt.Fprintln(out, "No runs found.")
				return nil
			}

			fmt.Fprintf(out, "%-40s  %-20s  %-10s  %s\n", "ID", "ALGORITHM", "STATE", "CREATED")
			fmt.Fprintf(out, "%-40s  %-20s  %-10s  %s\n", "--", "---------", "-----", "-------")
			for _, r := range data {
				fmt.Fprintf(out, "%-40s  %-20s  %-10s  %s\n", r.ID, r.Algorithm, r.State, r.CreatedAt.Format("2006-01-02 15:04:05"))
			}

			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Fprintf(out, "\n(%d of %d shown)\n", len(data), resp.Pagination.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&algorithm, "algorithm", "", "Only runs of this algorithm")
	cmd.Flags().StringVar(&state, "state", "", "Only runs in this state (COMPLETED, FAILED, DISCARDED)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <run_id>",
		Short: "Show one recorded run with its inputs and outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/runs/" + args[0])
			if err != nil {
				return fmt.Errorf("get run: %w", err)
			}

			var run model.Run
			if err := resp.decode(&run); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, run)
			}

			fmt.Fprintf(out, "Run: %s\n", run.ID)
			fmt.Fprintf(out, "  Algorithm: %s\n", run.Algorithm)
			fmt.Fprintf(out, "  State:     %s\n", run.State)
			fmt.Fprintf(out, "  Created:   %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
			if run.CompletedAt != nil {
				fmt.Fprintf(out, "  Completed: %s\n", run.CompletedAt.Format("2006-01-02 15:04:05"))
			}
			if run.Error != "" {
				fmt.Fprintf(out, "  Error:     %s\n", run.Error)
			}

			names := make([]string, 0, len(run.Inputs))
			for name := range run.Inputs {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintln(out, "\nInputs:")
			for _, name := range names {
				printValue(out, name, run.Inputs[name])
			}

			if run.Result != nil {
				printResult(out, run.Result)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run as JSON")
	return cmd
}
