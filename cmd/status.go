package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/duo/internal/config"
	"github.com/BioHazard786/duo/internal/ui"
)

var (
	statusOpts     config.ClientOptions
	statusWatch    bool
	statusInterval time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show room and connection counts of a relay",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func init() {
	statusOpts.BindFlags(statusCmd.Flags())
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Keep polling and redraw the table")
	statusCmd.Flags().DurationVar(&statusInterval, "interval", 2*time.Second, "Polling interval for --watch")
	rootCmd.AddCommand(statusCmd)
}

type healthBody struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

func showStatus(ctx context.Context) error {
	cfg, err := config.LoadClient(statusOpts)
	if err != nil {
		return err
	}
	url, err := cfg.HealthURL()
	if err != nil {
		return err
	}

	if statusWatch {
		return ui.RunMonitor(ctx, func(ctx context.Context) (ui.RelayStatus, error) {
			return fetchStatus(ctx, url)
		}, statusInterval)
	}

	st, err := fetchStatus(ctx, url)
	if err != nil {
		return err
	}
	fmt.Println(ui.RelayStatusView(st))
	return nil
}

func fetchStatus(ctx context.Context, url string) (ui.RelayStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ui.RelayStatus{}, err
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return ui.RelayStatus{}, fmt.Errorf("failed to reach relay: %w", err)
	}
	defer resp.Body.Close()
	latency := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		return ui.RelayStatus{}, fmt.Errorf("relay answered %s", resp.Status)
	}

	var body healthBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ui.RelayStatus{}, fmt.Errorf("failed to decode health response: %w", err)
	}

	return ui.RelayStatus{
		URL:         url,
		Status:      body.Status,
		Rooms:       body.Rooms,
		Connections: body.Connections,
		Latency:     latency,
	}, nil
}
