package runner

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Laughs-In-Flowers/log"

	"ticktimer/internal/clock"
	"ticktimer/internal/config"
	"ticktimer/internal/expr"
	"ticktimer/internal/storage"
	"ticktimer/internal/timer"
)

// Summary describes one finished timer run.
type Summary struct {
	Name       string
	FinalValue float64
	Ticks      int
	Paused     bool // stopped early by a pause trigger
	Elapsed    time.Duration
}

// Runner drives configured timers over a scheduler, one at a time, and
// reports a summary per run.
type Runner struct {
	log.Logger
	sched clock.Scheduler
	store *storage.Database
}

// Option configures a Runner.
type Option func(*Runner)

// WithStore persists every run summary to db.
func WithStore(db *storage.Database) Option {
	return func(r *Runner) {
		r.store = db
	}
}

// New returns a runner over the given scheduler. A nil logger gets a
// null logger.
func New(l log.Logger, sched clock.Scheduler, options ...Option) *Runner {
	if l == nil {
		l = log.New(os.Stdout, log.LInfo, "ticktimer")
	}
	r := &Runner{Logger: l, sched: sched}
	for _, o := range options {
		o(r)
	}
	return r
}

// Run executes every timer in the preset file in declaration order.
func (r *Runner) Run(file *config.File) ([]*Summary, error) {
	if file == nil {
		return nil, fmt.Errorf("runner: nil preset file")
	}
	summaries := make([]*Summary, 0, len(file.Timers))
	for i := range file.Timers {
		s, err := r.runTimer(&file.Timers[i], file.Variables)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// compiledTrigger latches after its first firing; triggers act at most
// once per run.
type compiledTrigger struct {
	def   *config.TriggerDef
	cond  expr.Condition
	fired bool
}

func (r *Runner) runTimer(def *config.TimerDef, vars map[string]any) (*Summary, error) {
	triggers := make([]*compiledTrigger, 0, len(def.Triggers))
	for i := range def.Triggers {
		cond, err := expr.Compile(def.Triggers[i].When, vars)
		if err != nil {
			return nil, fmt.Errorf("timer '%s' trigger '%s': %w", def.Name, def.Triggers[i].Name, err)
		}
		triggers = append(triggers, &compiledTrigger{def: &def.Triggers[i], cond: cond})
	}

	t, err := timer.New(timer.Options{
		InitialValue:   def.InitialValue,
		UpdateInterval: def.Interval(),
		CountDown:      def.CountDown,
		Duration:       def.Duration,
	}, r.sched, timer.WithObserverErrorHook(func(err error) {
		r.Printf("timer '%s': %v", def.Name, err)
	}))
	if err != nil {
		return nil, fmt.Errorf("timer '%s': %w", def.Name, err)
	}
	defer t.Dispose()

	paused := make(chan struct{})
	var pausedOnce sync.Once

	sub := t.Subscribe(func(value float64) {
		r.Printf("timer '%s': value %g", def.Name, value)
		for _, trg := range triggers {
			if trg.fired || !trg.cond.Eval(t) {
				continue
			}
			trg.fired = true
			switch trg.def.Action {
			case config.ActionLog:
				r.Printf("timer '%s': trigger '%s' fired at %g", def.Name, trg.def.Name, value)
			case config.ActionPause:
				r.Printf("timer '%s': trigger '%s' paused the run at %g", def.Name, trg.def.Name, value)
				t.Pause()
				pausedOnce.Do(func() {
					close(paused)
				})
			}
		}
	})
	defer sub.Unsubscribe()

	started := time.Now()
	t.Start()

	wasPaused := false
	select {
	case <-t.Done():
	case <-paused:
		wasPaused = true
	}
	finished := time.Now()

	s := &Summary{
		Name:       def.Name,
		FinalValue: t.Value(),
		Ticks:      t.TickCount(),
		Paused:     wasPaused,
		Elapsed:    finished.Sub(started),
	}
	if r.store != nil {
		rec := &storage.Run{
			Name:         def.Name,
			CountDown:    def.CountDown,
			InitialValue: def.InitialValue,
			FinalValue:   s.FinalValue,
			Ticks:        s.Ticks,
			StartedAt:    started,
			FinishedAt:   finished,
		}
		if err := r.store.SaveRun(rec); err != nil {
			return s, fmt.Errorf("timer '%s': save run: %w", def.Name, err)
		}
	}
	return s, nil
}
