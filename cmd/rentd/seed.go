package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/boma/rent-engine/api"
)

func seedCmd(configFile *string) *cobra.Command {
	var scenario string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Reset the database and load a demo scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configFile, func(ctx context.Context, a *app) error {
				if err := api.LoadScenarioData(ctx, a.store, scenario, time.Now()); err != nil {
					return err
				}
				fmt.Printf("loaded scenario %q into %s (landlord %s)\n", scenario, a.cfg.DBPath, api.DemoLandlordID)
				return nil
			})
		},
	}

	ids := make([]string, 0, len(api.Scenarios()))
	for _, s := range api.Scenarios() {
		ids = append(ids, s.ID)
	}
	cmd.Flags().StringVarP(&scenario, "scenario", "s", "portfolio", "Scenario ("+strings.Join(ids, ", ")+")")
	return cmd
}
