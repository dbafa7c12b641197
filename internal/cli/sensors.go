package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func sensorsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensors",
		Short: "Search, show, register and delete sensors",
	}
	cmd.AddCommand(sensorsSearchCommand(a), sensorsShowCommand(a), sensorsRegisterCommand(a), sensorsDeleteCommand(a))
	return cmd
}

func sensorsSearchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "List sensors whose name contains the query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			options, err := searchOptions(ctx, a.client(), args[0])
			if err != nil {
				return err
			}
			if len(options) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No Sensors")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, s := range options {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Name, s.Description)
			}
			return w.Flush()
		},
	}
}

func sensorsRegisterCommand(a *app) *cobra.Command {
	var loadData bool

	cmd := &cobra.Command{
		Use:   "register <location>",
		Short: "Look up a location and register the best match as a sensor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			api := a.client()
			locations, err := api.LookupLocations(ctx, args[0])
			if err != nil {
				return fmt.Errorf("location lookup: %w", err)
			}
			if len(locations) == 0 {
				return fmt.Errorf("no location found for %q", args[0])
			}

			loc := locations[0]
			sensor, err := api.CreateSensor(ctx, loc.SensorRequest(loadData))
			if err != nil {
				return fmt.Errorf("register sensor: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s) as %s at %s m\n",
				sensor.Name, sensor.Description, sensor.ID, humanize.Ftoa(sensor.Elevation))
			return nil
		},
	}
	cmd.Flags().BoolVar(&loadData, "load-data", true, "Import the recent history of the location")
	return cmd
}

func sensorsShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a sensor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			s, err := a.client().GetSensor(ctx, args[0])
			if err != nil {
				return fmt.Errorf("get sensor: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID\t%s\n", s.ID)
			fmt.Fprintf(w, "Name\t%s\n", s.Label())
			fmt.Fprintf(w, "Country\t%s\n", s.CountryCode)
			fmt.Fprintf(w, "Time zone\t%s\n", s.TimeZone)
			fmt.Fprintf(w, "Position\t%s, %s\n", humanize.Ftoa(s.Latitude), humanize.Ftoa(s.Longitude))
			fmt.Fprintf(w, "Elevation\t%s m\n", humanize.Ftoa(s.Elevation))
			return w.Flush()
		},
	}
}

func sensorsDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a sensor and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			if err := a.client().DeleteSensor(ctx, args[0]); err != nil {
				return fmt.Errorf("delete sensor: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted sensor %s\n", args[0])
			return nil
		},
	}
}
