package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/astro-chart-backend/internal/ephemeris"
	"github.com/tbourn/astro-chart-backend/internal/interpret"
	"github.com/tbourn/astro-chart-backend/internal/services"
)

func chartCmd() *cobra.Command {
	var (
		in      services.BirthInput
		house   string
		premium bool
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Compute a natal chart and print it as JSON",
		Long: "Compute a natal chart in-process, without a database, and print it as JSON.\n" +
			"Premium text is included with --premium.",
		Example: "  astrochart chart --date 1990-01-01 --time 12:00 --lat 40.7128 --lon -74.006 --tz America/New_York",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sys, err := ephemeris.ParseHouseSystem(house)
			if err != nil {
				return err
			}
			svc := &services.ChartService{
				Provider:    ephemeris.NewMeeusProvider(sys),
				HouseSystem: sys,
			}
			chart, err := svc.Compute(cmd.Context(), in)
			if err != nil {
				return err
			}
			if premium {
				text, err := interpret.Premium(services.PositionsFromSnapshot(chart.Snapshot.Data()))
				if err != nil {
					return fmt.Errorf("premium interpretation: %w", err)
				}
				chart.PremiumInterpretation = &text
				chart.IsPremiumUnlocked = true
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(chart)
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Date, "date", "", "birth date, YYYY-MM-DD")
	f.StringVar(&in.Time, "time", "", "local birth time, HH:MM")
	f.Float64Var(&in.Latitude, "lat", 0, "latitude in degrees, north positive")
	f.Float64Var(&in.Longitude, "lon", 0, "longitude in degrees, east positive")
	f.StringVar(&in.Timezone, "tz", "UTC", "IANA time zone of the birth place")
	f.StringVar(&house, "house", string(ephemeris.Placidus), "house system: placidus|porphyry|equal|whole_sign")
	f.BoolVar(&premium, "premium", false, "include the premium interpretation")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}
