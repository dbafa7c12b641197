package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/i474232898/weather-sensor-history/internal/viewer"
	"github.com/i474232898/weather-sensor-history/internal/weather"
)

func dashboardCommand(a *app) *cobra.Command {
	var (
		sensorQuery string
		start, end  string
		page        int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show min/max/mean statistics and the history grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			api := a.client()
			var filter viewer.Filter
			if sensorQuery != "" {
				sensor, err := resolveSensor(ctx, api, sensorQuery)
				if err != nil {
					return err
				}
				filter.SensorID = sensor.ID
			}

			var err error
			if start != "" {
				if filter.StartDate, err = weather.ParseDate(start); err != nil {
					return fmt.Errorf("--start: %w", err)
				}
			}
			if end != "" {
				if filter.EndDate, err = weather.ParseDate(end); err != nil {
					return fmt.Errorf("--end: %w", err)
				}
			}

			view, err := viewer.New(api).Refresh(ctx, filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s to %s\n\n", view.Filter.StartDate, view.Filter.EndDate)
			if err := printCharts(out, viewer.Charts(view.Averages)); err != nil {
				return err
			}
			return printGrid(out, viewer.Rows(view.Records), page)
		},
	}

	cmd.Flags().StringVar(&sensorQuery, "sensor", "", "Sensor name; all sensors when empty")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD), default 180 days ago")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD), default today")
	cmd.Flags().IntVar(&page, "page", 1, "Grid page")
	return cmd
}

func printCharts(out io.Writer, charts []viewer.Dataset) error {
	for _, ds := range charts {
		fmt.Fprintln(out, ds.Metric)
		if len(ds.Points) == 0 {
			fmt.Fprintln(out, "  no data")
			fmt.Fprintln(out)
			continue
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "  BUCKET\tMIN\tMAX\tMEAN\t")
		for _, p := range ds.Points {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t\n", p.Key, humanize.Ftoa(p.Min), humanize.Ftoa(p.Max), humanize.Ftoa(p.Mean))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}

func printGrid(out io.Writer, rows []viewer.Row, page int) error {
	total := len(rows)
	pages := viewer.PageCount(total)
	if total == 0 {
		fmt.Fprintln(out, "No history records")
		return nil
	}
	if page < 1 || page > pages {
		return fmt.Errorf("page %d out of range 1-%d", page, pages)
	}

	fmt.Fprintf(out, "History records (page %d of %d, %s total)\n",
		page, pages, humanize.Comma(int64(total)))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tSENSOR\tRAIN\tSNOW\tSUNRISE\tSUNSET\tT MEAN\tT MIN\tT MAX\tWIND DIR\tWIND MAX")
	for _, r := range viewer.Page(rows, page-1) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.RecordDate, r.Sensor,
			humanize.Ftoa(r.RainfallSum), humanize.Ftoa(r.SnowfallSum),
			r.Sunrise, r.Sunset,
			humanize.Ftoa(r.TemperatureMean), humanize.Ftoa(r.TemperatureMin), humanize.Ftoa(r.TemperatureMax),
			r.WindDirection, humanize.Ftoa(r.WindSpeedMax))
	}
	return w.Flush()
}
