package commands

import (
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stev4501/e84ctl/internal/asciiport"
	"github.com/stev4501/e84ctl/internal/config"
	"github.com/stev4501/e84ctl/internal/controller"
	"github.com/stev4501/e84ctl/internal/digitalio"
	"github.com/stev4501/e84ctl/internal/e84"
	"github.com/stev4501/e84ctl/internal/loadport"
	"github.com/stev4501/e84ctl/internal/metrics"
	"github.com/stev4501/e84ctl/internal/opapi"
	"github.com/stev4501/e84ctl/internal/signal"
	"github.com/stev4501/e84ctl/internal/timer"
)

var listenAddr string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the controller in the foreground",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&listenAddr, "listen", "127.0.0.1:8765", "operator surface + /metrics listen address; status/reset/stop dial this via --api-addr")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)

	reg := signal.New(nil, log)
	handles, err := e84.RegisterSignals(reg)
	if err != nil {
		return fmt.Errorf("register signals: %w", err)
	}

	port, err := buildCoordinator(cfg, reg, handles, log)
	if err != nil {
		return fmt.Errorf("build load port coordinator: %w", err)
	}

	timers := timer.New(nil)
	go timers.Run()
	defer timers.Stop()

	m := metrics.New(nil)
	facade := controller.New(reg, port, m, log)

	opts := e84.NewOptions().WithObserver(facade)
	for name, d := range cfg.TimerOverrides() {
		opts = opts.WithTimerDuration(name, d)
	}
	machine := e84.New(reg, handles, timers, port, opts, log)
	facade.Attach(machine)
	go dispatchTimerFires(timers, machine)

	if cfg.Mode != "" {
		mode, err := controller.ParseMode(cfg.Mode)
		if err != nil {
			mode = controller.ModeAuto
		}
		facade.SetMode(mode)
	}
	if err := facade.Start(); err != nil {
		log.Warn().Err(err).Msg("start gate not satisfied at boot; waiting for operator")
	}

	api := opapi.New(facade)
	mux := http.NewServeMux()
	mux.Handle("/", api.Handler())
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: listenAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("operator surface HTTP server stopped")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	return srv.Close()
}

func dispatchTimerFires(timers *timer.Service, machine *e84.Machine) {
	for fired := range timers.Events {
		machine.OnTimerFired(fired.Name)
	}
}

func buildCoordinator(cfg *config.Config, reg *signal.Registry, handles *e84.Handles, log zerolog.Logger) (loadport.Coordinator, error) {
	switch cfg.Interface {
	case "ascii":
		transport, err := asciiport.OpenSerialTransport(cfg.ASCII.Port, asciiport.NewOptions().WithBaud(cfg.ASCII.Baud))
		if err != nil {
			return nil, err
		}
		return asciiport.New(transport, 5*time.Second, time.Second, log), nil
	default:
		mappings := make([]digitalio.Mapping, 0, len(cfg.Digital.Mapping))
		for _, mc := range cfg.Digital.Mapping {
			mappings = append(mappings, digitalio.Mapping{
				SignalName: mc.SignalName,
				Line:       digitalio.LineID{Card: mc.Card, Port: mc.Port, Bit: mc.Bit},
				ActiveLow:  mc.Polarity == "active_low",
			})
		}
		set, err := digitalio.NewMappingSet(mappings)
		if err != nil {
			return nil, err
		}
		driver, err := digitalio.OpenTTYLineDriver(cfg.Digital.Device, lineBitsFromMappings(mappings), 50*time.Millisecond)
		if err != nil {
			return nil, err
		}
		flat := make(map[string]signal.Handle, len(handles.Inputs)+len(handles.Outputs))
		for k, v := range handles.Inputs {
			flat[k] = v
		}
		for k, v := range handles.Outputs {
			flat[k] = v
		}
		if err := digitalio.WireAMHSLines(reg, flat, set, driver); err != nil {
			return nil, err
		}
		return digitalio.NewDigitalCoordinator(driver, set, 10*time.Second), nil
	}
}

// modemLineTable fixes the convention a digital.mapping row's bit field
// (0-8) addresses one of the tty's 9 RS-232 modem control lines, in the
// order tty.go declares the TIOCM_* constants.
var modemLineTable = [...]digitalio.ModemLine{
	digitalio.TIOCM_LE,
	digitalio.TIOCM_DTR,
	digitalio.TIOCM_RTS,
	digitalio.TIOCM_ST,
	digitalio.TIOCM_SR,
	digitalio.TIOCM_CTS,
	digitalio.TIOCM_CAR,
	digitalio.TIOCM_RNG,
	digitalio.TIOCM_DSR,
}

// lineBitsFromMappings derives the map[LineID]ModemLine OpenTTYLineDriver
// needs from the same mapping rows that name the signal-to-line
// bindings, using modemLineTable to resolve each LineID's bit to a
// physical modem control line.
func lineBitsFromMappings(mappings []digitalio.Mapping) map[digitalio.LineID]digitalio.ModemLine {
	out := make(map[digitalio.LineID]digitalio.ModemLine, len(mappings))
	for _, m := range mappings {
		if int(m.Line.Bit) < len(modemLineTable) {
			out[m.Line] = modemLineTable[m.Line.Bit]
		}
	}
	return out
}
