package job

import (
	"context"
	"errors"
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"
	"golang.org/x/sync/errgroup"

	"ticksched/internal/client"
)

// App is one client process in a workload file.
type App struct {
	Name         string `yaml:"name"`
	Seconds      uint32 `yaml:"seconds"`        // CPU time to request
	StartAfterMS int64  `yaml:"start_after_ms"` // real-time delay before connecting
}

// Workload mirrors a workload YAML file.
type Workload struct {
	MaxConcurrent int   `yaml:"max_concurrent"` // apps connected at once, 0 = no limit
	Apps          []App `yaml:"apps"`
}

// LoadWorkload reads and checks a workload file.
func LoadWorkload(path string) (Workload, error) {
	var w Workload
	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("reading workload: %w", err)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("parsing workload %s: %w", path, err)
	}
	if len(w.Apps) == 0 {
		return w, errors.New("workload has no apps")
	}
	if w.MaxConcurrent < 0 {
		return w, errors.New("max_concurrent must not be negative")
	}
	for i := range w.Apps {
		if w.Apps[i].Name == "" {
			w.Apps[i].Name = fmt.Sprintf("app%d", i+1)
		}
		if w.Apps[i].StartAfterMS < 0 {
			return w, fmt.Errorf("app %s: start_after_ms must not be negative", w.Apps[i].Name)
		}
	}
	return w, nil
}

// Launcher runs one app to completion.
type Launcher func(ctx context.Context, app App, pid int32) (client.Result, error)

// Outcome is what happened to one app.
type Outcome struct {
	App    App
	PID    int32
	Result client.Result
	Err    error
}

// Launch starts every app of w after its delay, at most w.MaxConcurrent at
// a time, and returns the outcomes in workload order. App i gets identity
// basePID+i. Apps are independent: a failure is recorded in its Outcome and
// never cancels the others, so no group context is derived.
func Launch(ctx context.Context, w Workload, basePID int32, launch Launcher) []Outcome {
	out := make([]Outcome, len(w.Apps))
	var g errgroup.Group
	if w.MaxConcurrent > 0 {
		g.SetLimit(w.MaxConcurrent)
	}
	for i, app := range w.Apps {
		pid := basePID + int32(i)
		g.Go(func() error {
			o := Outcome{App: app, PID: pid}
			if err := Delay(ctx, app.StartAfterMS); err != nil {
				o.Err = err
			} else {
				o.Result, o.Err = launch(ctx, app, pid)
			}
			out[i] = o // each goroutine owns its slot
			return nil
		})
	}
	g.Wait()
	return out
}

// ClientLauncher launches apps as real clients of the daemon at socket.
func ClientLauncher(socket string, dialRetries uint64) Launcher {
	return func(ctx context.Context, app App, pid int32) (client.Result, error) {
		return client.Run(ctx, client.Options{
			Socket:      socket,
			PID:         pid,
			Seconds:     app.Seconds,
			DialRetries: dialRetries,
		})
	}
}
