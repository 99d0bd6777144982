package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/offcache/config"
	"github.com/unkn0wn-root/offcache/connectivity"
)

func newProbe(cfg *config.Config) *connectivity.Probe {
	return &connectivity.Probe{
		Addrs:    cfg.Connectivity.ProbeAddrs,
		Interval: cfg.Connectivity.Interval,
		Timeout:  cfg.Connectivity.Timeout,
	}
}

func newConnectivityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connectivity",
		Short: "Probe the configured addresses once and print the status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newProbe(a.cfg)
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
				"status": p.Check(cmd.Context()),
				"probes": p.Addrs,
			})
		},
	}
}
