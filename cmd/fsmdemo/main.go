// Command fsmdemo runs the worker state machine: Idle moves to Running on
// "go", and Running falls through to Done when its timeout fires.
package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/amp-labs/amp-fsm/build"
	"github.com/amp-labs/amp-fsm/cli"
	"github.com/amp-labs/amp-fsm/closer"
	"github.com/amp-labs/amp-fsm/envutil"
	"github.com/amp-labs/amp-fsm/logger"
	"github.com/amp-labs/amp-fsm/shutdown"
	"github.com/amp-labs/amp-fsm/stage"
	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/amp-labs/amp-fsm/statemachine/validator"
	"github.com/amp-labs/amp-fsm/statemachine/visualizer"
	"github.com/amp-labs/amp-fsm/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	finalState      = statemachine.StateID("Done")
	shutdownTimeout = 5 * time.Second
)

//go:embed worker.yaml
var definition embed.FS

// buildInfo may be set with -ldflags "-X main.buildInfo=<json>".
var buildInfo string

var (
	interactive = flag.Bool("interactive", false, "pick events from a prompt instead of running the scripted scenario")
	metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	envFile     = flag.String("env-file", ".env", "optional file of environment variables to load")
	showVersion = flag.Bool("version", false, "print build information and exit")
)

func main() {
	flag.Parse()

	info := build.Current(buildInfo)

	if *showVersion {
		fmt.Printf("fsmdemo %s (%s, %s)\n", info.Version, info.GitCommit, info.GoVersion)

		return
	}

	if err := envutil.ApplyEnvFile(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("loading env file", "path", *envFile, "error", err)
		os.Exit(1)
	}

	ctx := shutdown.SetupHandler()
	logger.ConfigureLogging(ctx, "fsmdemo")
	logger.Get(ctx).InfoContext(ctx, "starting", "build", info)

	if info.Version != "" && !envutil.String(ctx, telemetry.EnvServiceVersion).HasValue() {
		ctx = envutil.WithEnvOverride(ctx, telemetry.EnvServiceVersion, info.Version)
	}

	if err := run(ctx); err != nil {
		logger.Get(ctx).Error("fsmdemo failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) (err error) {
	resources := closer.NewCloser()

	defer func() {
		if closeErr := resources.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	cfg, err := statemachine.LoadConfigFromFS(definition, "worker.yaml")
	if err != nil {
		return err
	}

	if report := validator.Validate(cfg); !report.Valid || report.HasWarnings() {
		logger.Get(ctx).WarnContext(ctx, "definition check", "report", report.String())

		if !report.Valid {
			return fmt.Errorf("%w: %s", statemachine.ErrInvalidConfig, cfg.Name)
		}
	}

	reachedFinal := make(chan struct{})

	opts := append(statemachine.OptionsFromEnv(ctx),
		statemachine.WithStopOnShutdown(),
		statemachine.WithObserver(func(rec statemachine.TransitionRecord) {
			fmt.Printf("#%d %s --%s--> %s (%s)\n", rec.Step, rec.From, rec.Event, rec.To, rec.Cause)

			if rec.To == finalState {
				select {
				case <-reachedFinal:
				default:
					close(reachedFinal)
				}
			}
		}))

	m, err := statemachine.NewMachineFromConfig(cfg, states(), actions(), opts...)
	if err != nil {
		return err
	}

	resources.Add(closer.HandlePanic(m))

	if *metricsAddr != "" {
		resources.Add(serveMetrics(ctx, *metricsAddr))
	}

	if err := setupTracing(ctx, resources); err != nil {
		return err
	}

	diagram, err := visualizer.GenerateMermaid(cfg)
	if err != nil {
		return err
	}

	fmt.Println(cli.Banner(fmt.Sprintf("%s (%s)", m.Name(), m.ID()), cli.DefaultTerminalWidth, cli.AlignCenter))
	fmt.Println(diagram)

	if err := m.Start(ctx, false); err != nil {
		return err
	}

	if *interactive {
		err = interact(ctx, m)
	} else {
		err = scripted(ctx, m, reachedFinal)
	}

	if err != nil {
		return err
	}

	final, err := visualizer.GenerateMermaidForMachine(m, visualizer.DefaultOptions())
	if err != nil {
		return err
	}

	fmt.Print(cli.Divider(cli.DefaultTerminalWidth))
	fmt.Println(final)

	return nil
}

func states() map[string]statemachine.State {
	return map[string]statemachine.State{
		"Idle": statemachine.NopState{},
		"runner": statemachine.StateFuncs{
			Entry: func(ctx context.Context) statemachine.EventID {
				logger.Get(ctx).InfoContext(ctx, "worker busy, waiting for timeout")

				return statemachine.NoEvent
			},
			Exit: func(ctx context.Context) {
				logger.Get(ctx).InfoContext(ctx, "worker finished")
			},
		},
		"Done": statemachine.NopState{},
	}
}

func actions() map[string]statemachine.Action {
	return map[string]statemachine.Action{
		"announce": func(ctx context.Context, args ...any) {
			logger.Get(ctx).InfoContext(ctx, "announce", "args", args)
		},
	}
}

func scripted(ctx context.Context, m *statemachine.Machine, reachedFinal <-chan struct{}) error {
	if err := m.Operate(ctx, "go"); err != nil {
		return err
	}

	select {
	case <-reachedFinal:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func interact(ctx context.Context, m *statemachine.Machine) error {
	for ctx.Err() == nil {
		current := m.CurrentState()

		var events []string

		for _, tr := range m.Transitions() {
			if tr.From == current {
				events = append(events, string(tr.Event))
			}
		}

		if len(events) == 0 {
			fmt.Printf("%s has no outgoing transitions\n", current)

			return nil
		}

		event, ok, err := cli.SelectEvent(string(current), events)
		if err != nil {
			return err
		}

		if !ok {
			stop, err := cli.PromptConfirm(fmt.Sprintf("Stop %s in %s", m.Name(), m.CurrentState()))
			if err != nil {
				return err
			}

			if stop {
				return nil
			}

			continue
		}

		if err := m.Operate(ctx, statemachine.EventID(event)); err != nil {
			logger.Get(ctx).WarnContext(ctx, "event rejected", "event", event, "error", err)
		}
	}

	return nil
}

func serveMetrics(ctx context.Context, addr string) *metricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get(ctx).ErrorContext(ctx, "metrics server failed", "addr", addr, "error", err)
		}
	}()

	logger.Get(ctx).InfoContext(ctx, "serving metrics", "addr", addr)

	return &metricsServer{srv: srv}
}

type metricsServer struct {
	srv *http.Server
}

func (s *metricsServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.srv.Shutdown(ctx)
}

func setupTracing(ctx context.Context, resources *closer.Closer) error {
	cfg, err := telemetry.LoadConfigFromEnv(ctx, string(stage.Current(ctx)))
	if err != nil {
		return err
	}

	flush, err := telemetry.Initialize(ctx, cfg)
	if err != nil {
		return err
	}

	resources.Add(closer.CustomCloser(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return flush(ctx)
	}))

	return nil
}
