// Command inspect prints the evaluation history kept by regiond.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/regioncheck/internal/cli"
	"github.com/danielpatrickdp/regioncheck/internal/eval"
	"github.com/danielpatrickdp/regioncheck/internal/history"
	"github.com/spf13/cobra"
)

// #region main

func main() {
	var (
		dbPath   string
		clientID string
		recordID string
		last     int
		jsonOut  bool
	)
	rootCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect stored evaluations",
		Long: `Without --client, lists clients with retained history.
With --client, lists that client's most recent evaluations.
With --record, shows one evaluation in detail.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := history.NewStore(dbPath, history.DefaultMaxPerClient)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer store.Close()

			switch {
			case recordID != "":
				return runDetailMode(store, recordID, jsonOut)
			case clientID != "":
				return runListMode(store, clientID, last, jsonOut)
			default:
				return runClientsMode(store, last, jsonOut)
			}
		},
	}
	rootCmd.Flags().StringVar(&dbPath, "db", "regioncheck.db", "path to the history database")
	rootCmd.Flags().StringVar(&clientID, "client", "", "client id to list")
	rootCmd.Flags().StringVar(&recordID, "record", "", "show a single record")
	rootCmd.Flags().IntVar(&last, "last", 20, "show N most recent rows")
	rootCmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

// #endregion main

// #region clients-mode

type clientRow struct {
	ClientID string `json:"client_id"`
	Entries  int    `json:"entries"`
	Hits     int    `json:"hits"`
	LastAt   string `json:"last_at"`
}

func runClientsMode(store *history.Store, last int, jsonOut bool) error {
	stats, err := store.Clients(last)
	if err != nil {
		return err
	}
	rows := make([]clientRow, len(stats))
	for i, s := range stats {
		rows[i] = clientRow{ClientID: s.ClientID, Entries: s.Entries, Hits: s.Hits, LastAt: s.LastAt.Format(time.RFC3339)}
	}
	if jsonOut {
		return cli.PrintJSON(os.Stdout, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "no history found")
		return nil
	}

	fmt.Printf("%-36s  %7s  %5s  %s\n", "Client", "Entries", "Hits", "Last")
	fmt.Printf("%-36s+-%7s+-%5s+-%s\n",
		"------------------------------------", "-------", "-----", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-36s  %7d  %5d  %s\n", r.ClientID, r.Entries, r.Hits, r.LastAt)
	}
	return nil
}

// #endregion clients-mode

// #region list-mode

type listRow struct {
	ID             string  `json:"id"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	R              float64 `json:"r"`
	Hit            bool    `json:"hit"`
	Shape          string  `json:"shape,omitempty"`
	Now            string  `json:"now"`
	DurationMicros float64 `json:"durationMicros"`
}

func toRow(rec eval.Record) listRow {
	return listRow{
		ID:             rec.ID,
		X:              rec.Point.X,
		Y:              rec.Point.Y,
		R:              rec.Radius,
		Hit:            rec.Hit,
		Shape:          string(rec.Shape),
		Now:            rec.EvaluatedAt.Format(time.RFC3339Nano),
		DurationMicros: rec.DurationMicros(),
	}
}

func runListMode(store *history.Store, clientID string, last int, jsonOut bool) error {
	entries, err := store.List(clientID, last)
	if err != nil {
		return err
	}
	rows := make([]listRow, len(entries))
	records := make([]eval.Record, len(entries))
	for i, e := range entries {
		rows[i] = toRow(e.Record)
		records[i] = e.Record
	}
	if jsonOut {
		return cli.PrintJSON(os.Stdout, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "no entries for client "+clientID)
		return nil
	}

	fmt.Printf("%-12s  %8s  %8s  %5s  %-6s  %-12s  %10s  %s\n",
		"Record", "X", "Y", "R", "Result", "Shape", "Duration", "Time")
	fmt.Printf("%-12s+-%8s+-%8s+-%5s+-%-6s+-%-12s+-%10s+-%s\n",
		"------------", "--------", "--------", "-----", "------", "------------", "----------", "--------------------")
	for _, r := range rows {
		shape := r.Shape
		if shape == "" {
			shape = "-"
		}
		fmt.Printf("%-12s  %8.4g  %8.4g  %5.3g  %-6s  %-12s  %8.3fµs  %s\n",
			shortID(r.ID), r.X, r.Y, r.R, result(r.Hit), shape, r.DurationMicros, r.Now)
	}

	s := eval.Summarize(records)
	fmt.Printf("\n%d shown: %s hits, %s misses, mean %.3fµs, max %.3fµs\n",
		s.Total, cli.HitStyle.Render(fmt.Sprint(s.Hits)), cli.MissStyle.Render(fmt.Sprint(s.Misses)),
		s.MeanMicros, s.MaxMicros)
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	listRow
	ClientID   string `json:"client_id"`
	RequestKey string `json:"request_key,omitempty"`
	Seq        int64  `json:"seq"`
	StoredAt   string `json:"stored_at"`
}

func runDetailMode(store *history.Store, recordID string, jsonOut bool) error {
	e, err := store.Get(recordID)
	if err != nil {
		return err
	}
	out := detailOutput{
		listRow:    toRow(e.Record),
		ClientID:   e.ClientID,
		RequestKey: e.RequestKey,
		Seq:        e.Seq,
		StoredAt:   e.StoredAt.Format(time.RFC3339Nano),
	}
	if jsonOut {
		return cli.PrintJSON(os.Stdout, out)
	}

	fmt.Printf("Record:     %s\n", out.ID)
	fmt.Printf("Client:     %s\n", out.ClientID)
	if out.RequestKey != "" {
		fmt.Printf("Request:    %s\n", out.RequestKey)
	}
	fmt.Printf("Point:      (%g, %g)\n", out.X, out.Y)
	fmt.Printf("Radius:     %g\n", out.R)
	fmt.Printf("Result:     %s\n", cli.Verdict(out.Hit))
	if out.Shape != "" {
		fmt.Printf("Shape:      %s\n", out.Shape)
	}
	fmt.Printf("Evaluated:  %s\n", out.Now)
	fmt.Printf("Duration:   %.3fµs\n", out.DurationMicros)
	fmt.Printf("Stored:     %s (seq %d)\n", out.StoredAt, out.Seq)
	return nil
}

// #endregion detail-mode

// #region helpers

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func result(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// #endregion helpers
