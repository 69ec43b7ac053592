package runner

import (
	"os"
	"path/filepath"
	"testing"

	"ticktimer/internal/clock"
	"ticktimer/internal/config"
	"ticktimer/internal/storage"
)

func loadPreset(t *testing.T, doc string) *config.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timers.yaml")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	file, err := config.Load(path)
	if err != nil {
		t.Fatalf("load preset: %v", err)
	}
	return file
}

func TestRunnerCompletesConfiguredTimers(t *testing.T) {
	file := loadPreset(t, `
name: test
timers:
  - name: launch
    initial_value: 3
    interval_seconds: 0.005
    count_down: true
    duration: 3
  - name: reps
    initial_value: 0
    interval_seconds: 0.005
    duration: 2
`)

	r := New(nil, clock.NewInterval())
	summaries, err := r.Run(file)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}

	launch := summaries[0]
	if launch.Name != "launch" || launch.Paused {
		t.Errorf("unexpected launch summary: %+v", launch)
	}
	if launch.FinalValue != 0 || launch.Ticks != 3 {
		t.Errorf("expected launch to end at 0 after 3 ticks, got %g after %d", launch.FinalValue, launch.Ticks)
	}

	reps := summaries[1]
	if reps.FinalValue != 2 || reps.Ticks != 2 {
		t.Errorf("expected reps to end at 2 after 2 ticks, got %g after %d", reps.FinalValue, reps.Ticks)
	}
}

func TestRunnerPauseTriggerStopsRunEarly(t *testing.T) {
	file := loadPreset(t, `
name: test
timers:
  - name: held
    initial_value: 0
    interval_seconds: 0.005
    duration: 50
    triggers:
      - name: hold
        action: pause
        when:
          value: {field: current_value, gte: 2}
`)

	r := New(nil, clock.NewInterval())
	summaries, err := r.Run(file)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}

	held := summaries[0]
	if !held.Paused {
		t.Error("expected the run to be stopped by the pause trigger")
	}
	if held.FinalValue != 2 {
		t.Errorf("expected the trigger to hold the value at 2, got %g", held.FinalValue)
	}
}

func TestRunnerLogTriggerDoesNotStopRun(t *testing.T) {
	file := loadPreset(t, `
name: test
variables:
  floor: 1
timers:
  - name: noted
    initial_value: 3
    interval_seconds: 0.005
    count_down: true
    duration: 3
    triggers:
      - name: low
        action: log
        when:
          value: {field: current_value, lte: "${floor}"}
`)

	r := New(nil, clock.NewInterval())
	summaries, err := r.Run(file)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summaries[0].Paused {
		t.Error("expected a log trigger to leave the run running")
	}
	if summaries[0].FinalValue != 0 {
		t.Errorf("expected completion at 0, got %g", summaries[0].FinalValue)
	}
}

func TestRunnerPersistsHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	db, err := storage.NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("open history database: %v", err)
	}
	defer db.Close()

	file := loadPreset(t, `
name: test
timers:
  - name: recorded
    initial_value: 2
    interval_seconds: 0.005
    count_down: true
    duration: 2
`)

	r := New(nil, clock.NewInterval(), WithStore(db))
	if _, err := r.Run(file); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	runs, err := db.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns returned error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}
	run := runs[0]
	if run.Name != "recorded" || !run.CountDown {
		t.Errorf("unexpected run record: %+v", run)
	}
	if run.InitialValue != 2 || run.FinalValue != 0 || run.Ticks != 2 {
		t.Errorf("expected 2 -> 0 in 2 ticks, got %+v", run)
	}
}

func TestRunnerNilPreset(t *testing.T) {
	r := New(nil, clock.NewInterval())
	if _, err := r.Run(nil); err == nil {
		t.Error("expected error for nil preset file")
	}
}
