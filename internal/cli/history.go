package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-sensor-history/internal/historyform"
)

func historyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage sensor history",
	}
	cmd.AddCommand(historyAddCommand(a))
	return cmd
}

// historyFlags maps flag names to draft fields in form order.
var historyFlags = []struct {
	name  string
	field historyform.Field
	usage string
}{
	{"date", historyform.FieldRecordDate, "Record date (YYYY-MM-DD)"},
	{"rain", historyform.FieldRainfallSum, "Rainfall in mm (0-100)"},
	{"snow", historyform.FieldSnowfallSum, "Snowfall in cm (0-100)"},
	{"sunrise", historyform.FieldSunrise, "Sunrise (HH:mm)"},
	{"sunset", historyform.FieldSunset, "Sunset (HH:mm)"},
	{"temp-mean", historyform.FieldTemperatureMean, "Mean temperature in °C (-50-50)"},
	{"temp-min", historyform.FieldTemperatureMin, "Minimum temperature in °C (-50-50)"},
	{"temp-max", historyform.FieldTemperatureMax, "Maximum temperature in °C (-50-50)"},
	{"wind-dir", historyform.FieldWindDirection, "Wind direction in whole degrees (above 0, up to 360)"},
	{"wind-speed", historyform.FieldWindSpeedMax, "Maximum wind speed in km/h (0-100)"},
}

func historyAddCommand(a *app) *cobra.Command {
	var sensorQuery string
	values := make(map[string]*string, len(historyFlags))

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a daily history record to a sensor",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			api := a.client()
			sensor, err := resolveSensor(ctx, api, sensorQuery)
			if err != nil {
				return err
			}

			form := historyform.New(api)
			if err := form.SelectSensor(&sensor); err != nil {
				return err
			}
			for _, f := range historyFlags {
				if !cmd.Flags().Changed(f.name) {
					continue
				}
				if err := form.Set(f.field, *values[f.name]); err != nil {
					return fmt.Errorf("--%s: %w", f.name, err)
				}
			}

			record, err := form.Submit(ctx)
			out := cmd.OutOrStdout()
			var verr *historyform.ValidationError
			if errors.As(err, &verr) {
				printFieldErrors(out, verr.Fields)
				return errors.New("history record is invalid")
			}

			snap := form.Snapshot()
			if err != nil {
				if snap.Message == "" {
					return err
				}
				return errors.New(snap.Message)
			}
			fmt.Fprintf(out, "%s (%s, %s, id %s)\n", snap.Message, sensor.Label(), record.RecordDate, record.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&sensorQuery, "sensor", "", "Sensor name or part of it")
	_ = cmd.MarkFlagRequired("sensor")
	for _, f := range historyFlags {
		values[f.name] = cmd.Flags().String(f.name, "", f.usage)
	}
	return cmd
}

func printFieldErrors(w io.Writer, fields map[historyform.Field]string) {
	keys := make([]string, 0, len(fields))
	for f := range fields {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s\n", fields[historyform.Field(k)])
	}
}
