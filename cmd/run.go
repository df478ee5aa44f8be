package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var runProjectID string

// selectTarget points the session at the requested project, defaulting to
// the operator's most recent one.
func selectTarget(env *env) error {
	user, _ := env.Sess.CurrentUser()
	id := runProjectID
	if id == "" {
		if len(user.Projects) == 0 {
			return eris.New("no projects, run: viplayer project create")
		}
		id = user.Projects[len(user.Projects)-1].ID
	}
	if !env.Sess.SetActive(id) {
		return eris.Errorf("project %s not found", id)
	}
	return nil
}

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Manage facility report nodes",
}

var nodeAddRegion string

var nodeAddCmd = &cobra.Command{
	Use:   "add <facility-name> <report-text>",
	Short: "Parse and append a manually entered facility report",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		if err := requireSignIn(env); err != nil {
			return err
		}
		if err := selectTarget(env); err != nil {
			return err
		}

		report, err := env.Orch.AddManualNode(cmd.Context(), args[0], nodeAddRegion, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("added %s (%s) at [%.4f, %.4f]\n",
			report.FacilityName, report.ID, report.Coordinates.Lat(), report.Coordinates.Lng())
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-run discovery and regenerate the plan for a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		if err := requireSignIn(env); err != nil {
			return err
		}
		if err := selectTarget(env); err != nil {
			return err
		}

		plan, err := env.Orch.RefreshDiscovery(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(plan)
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match professional placements onto a project's capability gaps",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		if err := requireSignIn(env); err != nil {
			return err
		}
		if err := selectTarget(env); err != nil {
			return err
		}

		placements, err := env.Orch.MatchExpertise(cmd.Context())
		if err != nil {
			return err
		}
		for _, p := range placements {
			fmt.Printf("%-10s %-24s -> %-30s %s\n", p.Priority, p.Role, p.FacilityName, p.Reason)
		}
		return nil
	},
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast infrastructure gap evolution for a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		if err := requireSignIn(env); err != nil {
			return err
		}
		if err := selectTarget(env); err != nil {
			return err
		}

		forecasts, err := env.Orch.ForecastNeeds(cmd.Context())
		if err != nil {
			return err
		}
		for _, f := range forecasts {
			fmt.Printf("%-16s %-36s p=%.2f  %s\n", f.Region, f.FutureGap, f.Probability, f.Timeframe)
		}
		return nil
	},
}

func init() {
	nodeAddCmd.Flags().StringVar(&nodeAddRegion, "region", "", "facility region")
	nodeCmd.AddCommand(nodeAddCmd)

	for _, c := range []*cobra.Command{nodeAddCmd, refreshCmd, matchCmd, forecastCmd} {
		c.Flags().StringVar(&runProjectID, "project", "", "target project id (default: most recent)")
	}

	rootCmd.AddCommand(nodeCmd, refreshCmd, matchCmd, forecastCmd)
}
