package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/Laughs-In-Flowers/flip"
	"github.com/Laughs-In-Flowers/log"

	"ticktimer/internal/clock"
	"ticktimer/internal/config"
	"ticktimer/internal/runner"
	"ticktimer/internal/storage"
)

type Options struct {
	log.Logger
	*tOptions
	*rOptions
	*hOptions
}

func newOptions() *Options {
	return &Options{
		log.New(os.Stdout, log.LInfo, "timerd"),
		defaultTOptions(),
		defaultROptions(),
		defaultHOptions(),
	}
}

func cExecute(o *Options, c context.Context, a []string, x ...execution) (context.Context, flip.ExitStatus) {
	var status flip.ExitStatus
	for _, fn := range x {
		c, status = fn(o, c)
		if status != flip.ExitNo {
			return c, status
		}
	}
	return c, flip.ExitNo
}

type execution func(o *Options, c context.Context) (context.Context, flip.ExitStatus)

var tExecuting = []execution{
	logSetting,
}

func logSetting(o *Options, c context.Context) (context.Context, flip.ExitStatus) {
	if o.formatter != "null" {
		switch o.formatter {
		case "text", "stdout":
			o.SwapFormatter("timerd_text")
		default:
			o.SwapFormatter(o.formatter)
		}
	}
	return c, flip.ExitNo
}

func tFlags(fs *flip.FlagSet, o *Options) *flip.FlagSet {
	fs.StringVar(&o.formatter, "formatter", o.formatter, "Specify the log formatter. [null|raw|text]")
	return fs
}

type tOptions struct {
	formatter string
}

func defaultTOptions() *tOptions {
	return &tOptions{"text"}
}

func TopCommand() flip.Command {
	fs := flip.NewFlagSet("top", flip.ContinueOnError)
	fs = tFlags(fs, O)

	return flip.NewCommand(
		"",
		"timerd",
		"Top level options use.",
		1,
		false,
		func(c context.Context, a []string) (context.Context, flip.ExitStatus) {
			return cExecute(O, c, a, tExecuting...)
		},
		fs,
	)
}

type rOptions struct {
	configPath  string
	historyPath string
}

func defaultROptions() *rOptions {
	return &rOptions{"configs/timers.yaml", ""}
}

func rFlags(fs *flip.FlagSet, o *Options) *flip.FlagSet {
	fs.StringVar(&o.configPath, "config", o.configPath, "Path to the timer preset YAML file.")
	fs.StringVar(&o.historyPath, "history", o.historyPath, "SQLite file to record run history in (empty disables recording).")
	return fs
}

var rExecuting = []execution{
	runPresets,
}

func runPresets(o *Options, c context.Context) (context.Context, flip.ExitStatus) {
	file, err := config.Load(o.configPath)
	if err != nil {
		o.Printf("failed to load presets: %v", err)
		return c, flip.ExitFailure
	}

	var opts []runner.Option
	if o.historyPath != "" {
		db, err := storage.NewDatabase(o.historyPath)
		if err != nil {
			o.Printf("failed to open history database: %v", err)
			return c, flip.ExitFailure
		}
		defer db.Close()
		opts = append(opts, runner.WithStore(db))
	}

	r := runner.New(o.Logger, clock.NewInterval(), opts...)
	summaries, err := r.Run(file)
	if err != nil {
		o.Printf("run failed: %v", err)
		return c, flip.ExitFailure
	}

	for _, s := range summaries {
		outcome := "completed"
		if s.Paused {
			outcome = "paused by trigger"
		}
		fmt.Printf("%s: %s after %d ticks, final value %g (%v)\n",
			s.Name, outcome, s.Ticks, s.FinalValue, s.Elapsed.Round(time.Millisecond))
	}
	return c, flip.ExitSuccess
}

func RunCommand() flip.Command {
	fs := flip.NewFlagSet("run", flip.ContinueOnError)
	fs = rFlags(fs, O)

	return flip.NewCommand(
		"",
		"run",
		"Run every timer declared in a preset file.",
		1,
		false,
		func(c context.Context, a []string) (context.Context, flip.ExitStatus) {
			return cExecute(O, c, a, rExecuting...)
		},
		fs,
	)
}

func validatePresets(o *Options, c context.Context) (context.Context, flip.ExitStatus) {
	file, err := config.Load(o.configPath)
	if err != nil {
		o.Printf("preset file invalid: %v", err)
		return c, flip.ExitFailure
	}
	fmt.Printf("Preset file '%s' validated successfully: %d timer(s) (source: %s)\n",
		file.Name, len(file.Timers), o.configPath)
	return c, flip.ExitSuccess
}

func ValidateCommand() flip.Command {
	fs := flip.NewFlagSet("validate", flip.ContinueOnError)
	fs.StringVar(&O.configPath, "config", O.configPath, "Path to the timer preset YAML file.")

	return flip.NewCommand(
		"",
		"validate",
		"Load and validate a preset file, compiling every trigger condition.",
		1,
		false,
		func(c context.Context, a []string) (context.Context, flip.ExitStatus) {
			return cExecute(O, c, a, validatePresets)
		},
		fs,
	)
}

type hOptions struct {
	limit int
}

func defaultHOptions() *hOptions {
	return &hOptions{20}
}

func showHistory(o *Options, c context.Context) (context.Context, flip.ExitStatus) {
	if o.historyPath == "" {
		o.Print("history requires -history pointing at a run database")
		return c, flip.ExitUsageError
	}
	db, err := storage.NewDatabase(o.historyPath)
	if err != nil {
		o.Printf("failed to open history database: %v", err)
		return c, flip.ExitFailure
	}
	defer db.Close()

	runs, err := db.RecentRuns(o.limit)
	if err != nil {
		o.Printf("failed to read history: %v", err)
		return c, flip.ExitFailure
	}
	for _, run := range runs {
		direction := "up"
		if run.CountDown {
			direction = "down"
		}
		fmt.Printf("%s  %s  %g -> %g (%s, %d ticks)\n",
			run.FinishedAt.Format("2006-01-02 15:04:05"), run.Name,
			run.InitialValue, run.FinalValue, direction, run.Ticks)
	}
	return c, flip.ExitSuccess
}

func HistoryCommand() flip.Command {
	fs := flip.NewFlagSet("history", flip.ContinueOnError)
	fs.StringVar(&O.historyPath, "history", O.historyPath, "SQLite file holding run history.")
	fs.IntVar(&O.limit, "limit", O.limit, "Maximum number of runs to print.")

	return flip.NewCommand(
		"",
		"history",
		"Print recent runs from a history database.",
		1,
		false,
		func(c context.Context, a []string) (context.Context, flip.ExitStatus) {
			return cExecute(O, c, a, showHistory)
		},
		fs,
	)
}

var (
	O              *Options
	F              flip.Flipper
	versionPackage string = path.Base(os.Args[0])
	versionTag     string = "no tag"
	versionHash    string = "no hash"
	versionDate    string = "no date"
)

func init() {
	O = newOptions()
	O.SetFormatter("timerd_text", log.MakeTextFormatter(versionPackage))
	F = flip.New("timerd")
	F.AddBuiltIn("version", versionPackage, versionTag, versionHash, versionDate).
		AddBuiltIn("help").
		SetGroup("top", -1, TopCommand()).
		SetGroup("run", 1, RunCommand(), ValidateCommand(), HistoryCommand())
}

func main() {
	c := context.Background()
	os.Exit(F.Execute(c, os.Args))
}
