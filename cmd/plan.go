package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/voltlab/smartcharge/config"
	"github.com/voltlab/smartcharge/core/charge"
	"github.com/voltlab/smartcharge/core/entity"
	"github.com/voltlab/smartcharge/core/price"
	"github.com/voltlab/smartcharge/infra/hass"
	"github.com/voltlab/smartcharge/infra/logger"
	"github.com/voltlab/smartcharge/infra/mqtt"
	"github.com/voltlab/smartcharge/pkg/export"
)

var (
	planFormat string
	planNeed   float64
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview the charge plan from current prices",
	Long: `Connects to the broker, reads the retained price data and prints the
slots the controller would pick, without commanding the charger.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planFormat, "format", "json", "output format: json or csv")
	planCmd.Flags().Float64Var(&planNeed, "need", 0, "charge need in hours, 0 reads the remaining-time sensor")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// A one-shot client id keeps the broker from kicking the service off.
	mqttCfg := cfg.MQTT
	suffix := time.Now().UnixNano()
	if mqttCfg.ClientID != "" {
		mqttCfg.ClientID = fmt.Sprintf("%s-plan-%d", mqttCfg.ClientID, suffix)
	} else {
		mqttCfg.ClientID = fmt.Sprintf("plan-%d", suffix)
	}
	// The service owns the availability last-will; a preview must not
	// carry one.
	mqttCfg.LWTTopic = ""
	client, err := mqtt.NewClient(mqttCfg)
	if err != nil {
		return fmt.Errorf("mqtt client: %w", err)
	}
	defer client.Disconnect()

	logg := logger.New("plan")
	ha, err := hass.NewClient(cfg.Hass, client, logg)
	if err != nil {
		return fmt.Errorf("hass client: %w", err)
	}
	if err := hass.RegisterEntitySource(ha); err != nil {
		return fmt.Errorf("entity source: %w", err)
	}
	sources, err := price.NewSources(cfg.Prices)
	if err != nil {
		return fmt.Errorf("price sources: %w", err)
	}

	session := charge.NewSession(true, charge.StatusUnknown)
	ctrl, err := charge.NewController(cfg.Charge, session, charge.Deps{
		Reader:    ha,
		Commander: ha,
		Status:    ha,
		Sources:   sources,
		Log:       logg,
	})
	if err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	// The service's worker normally subscribes these; a one-shot preview
	// has to warm the cache itself before reading.
	for _, ref := range ctrl.WatchRefs() {
		if err := ha.Track(ref); err != nil {
			return fmt.Errorf("track %s: %w", ref, err)
		}
	}
	waitForPoints(sources, 3*time.Second)

	now := time.Now()
	need := int(planNeed * 3600)
	if planNeed <= 0 {
		need = readNeed(ha, cfg.Charge)
	}
	var plan *charge.Plan
	if intervals := ctrl.Intervals(now); len(intervals) > 0 {
		plan = charge.SelectSlots(intervals, need)
	}

	out := export.FromPlan(plan, need, now)
	switch planFormat {
	case "json":
		return export.WriteJSON(cmd.OutOrStdout(), out)
	case "csv":
		return export.WriteCSV(cmd.OutOrStdout(), out)
	default:
		return fmt.Errorf("unknown format %s", planFormat)
	}
}

// waitForPoints polls until every source has usable data, so retained
// statestream values published right after subscribing are picked up.
func waitForPoints(sources []price.Source, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ready := true
		for _, s := range sources {
			if _, err := s.Points(); err != nil {
				ready = false
				break
			}
		}
		if ready {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// readNeed reads the remaining-time sensor the same way the controller
// does: a float in hours.
func readNeed(ha *hass.Client, cfg charge.Config) int {
	raw, ok := ha.Value(entity.ParseRef(cfg.TimeLeft))
	if !ok {
		return 0
	}
	hours, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || hours <= 0 {
		return 0
	}
	return int(hours * 3600)
}
