// Package cli is the command line front end of the sensor API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/i474232898/weather-sensor-history/internal/search"
	"github.com/i474232898/weather-sensor-history/internal/sensorapi"
	"github.com/i474232898/weather-sensor-history/internal/weather"
)

// app carries what the subcommands share.
type app struct {
	v          *viper.Viper
	httpClient *http.Client
}

func (a *app) client() *sensorapi.Client {
	hc := a.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: a.v.GetDuration("timeout")}
	}
	return sensorapi.New(a.v.GetString("server"), hc)
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.v.GetDuration("timeout"))
}

// RootCommand builds the weather CLI. httpClient may be nil.
func RootCommand(httpClient *http.Client) *cobra.Command {
	a := &app{v: viper.New(), httpClient: httpClient}

	rootCmd := &cobra.Command{
		Use:           "weather",
		Short:         "Weather sensor history CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("server", "http://localhost:8080/api", "Base URL of the sensor API")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Timeout of a single command")

	// WEATHER_SERVER and WEATHER_TIMEOUT override the defaults; flags override both.
	a.v.SetEnvPrefix("WEATHER")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(fmt.Sprintf("error binding flags: %v", err))
	}

	rootCmd.AddCommand(
		sensorsCommand(a),
		historyCommand(a),
		dashboardCommand(a),
	)
	return rootCmd
}

// resolveSensor runs query through the typeahead and picks the sensor whose name matches
// exactly, ignoring case, or else the first option.
func resolveSensor(ctx context.Context, api search.Lookup, query string) (weather.Sensor, error) {
	options, err := searchOptions(ctx, api, query)
	if err != nil {
		return weather.Sensor{}, err
	}
	if len(options) == 0 {
		return weather.Sensor{}, fmt.Errorf("no sensor matches %q", query)
	}
	for _, s := range options {
		if strings.EqualFold(s.Name, query) {
			return s, nil
		}
	}
	return options[0], nil
}

func searchOptions(ctx context.Context, api search.Lookup, query string) ([]weather.Sensor, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("empty sensor query")
	}

	s := search.New(api, 0)
	defer s.Close()

	results := make(chan []weather.Sensor, 1)
	s.OnOptions(func(options []weather.Sensor) {
		select {
		case results <- options:
		default:
		}
	})
	s.Input(query)

	select {
	case options := <-results:
		return options, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("sensor search: %w", ctx.Err())
	}
}
