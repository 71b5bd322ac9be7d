// Package interp executes parsed shell commands against a metric store.
package interp

import (
	_ "embed"
	"log/slog"
	"math"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/getmockd/pesh/pkg/command"
	"github.com/getmockd/pesh/pkg/logging"
)

//go:embed help.txt
var helpText string

// HelpText returns the text printed by the help command.
func HelpText() string { return helpText }

// Store is the metric state a command runs against.
// *registry.Registry implements it.
type Store interface {
	Add(m command.Metric, value float64) error
	Get(m command.Metric) (float64, error)
	Remove(m command.Metric) error
}

// Outcome is the result of executing one command. Warning holds a failure to
// show the operator; it never stops the shell. Exit asks the caller to shut
// down.
type Outcome struct {
	Output  string
	Warning error
	Exit    bool
}

// Interpreter binds parsed operations to a Store.
type Interpreter struct {
	store Store
	log   *slog.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger used for per-command debug output.
func WithLogger(log *slog.Logger) Option {
	return func(i *Interpreter) {
		if log != nil {
			i.log = log
		}
	}
}

// New creates an Interpreter over store.
func New(store Store, opts ...Option) *Interpreter {
	i := &Interpreter{
		store: store,
		log:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ExecuteLine parses and executes one input line. A line that does not parse
// yields a Warning and leaves the store untouched.
func (i *Interpreter) ExecuteLine(line string) Outcome {
	op, err := command.Parse(line)
	if err != nil {
		return Outcome{Warning: err}
	}
	return i.Execute(op)
}

// Execute runs op. It never panics; every failure is reported through
// Outcome.Warning.
func (i *Interpreter) Execute(op command.Op) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Warning: errors.Newf("%s %s: internal error: %v", op.Kind, op.Metric, r)}
		}
	}()

	switch op.Kind {
	case command.KindEmpty:
		return Outcome{}

	case command.KindSet:
		i.log.Debug("set", "metric", op.Metric.String(), "value", op.Value)
		if err := i.store.Add(op.Metric, op.Value); err != nil {
			return Outcome{Warning: err}
		}
		return Outcome{}

	case command.KindDel:
		i.log.Debug("del", "metric", op.Metric.String())
		if err := i.store.Remove(op.Metric); err != nil {
			return Outcome{Warning: err}
		}
		return Outcome{}

	case command.KindGet:
		i.log.Debug("get", "metric", op.Metric.String())
		v, err := i.store.Get(op.Metric)
		if err != nil {
			return Outcome{Warning: err}
		}
		return Outcome{Output: FormatValue(v)}

	case command.KindHelp:
		return Outcome{Output: HelpText()}

	case command.KindExit:
		return Outcome{Exit: true}

	default:
		return Outcome{Warning: errors.Newf("unsupported command kind %d", int(op.Kind))}
	}
}

// FormatValue renders a gauge value for display: the shortest decimal that
// round-trips, or NaN, +Inf, -Inf.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 1) {
		return "+Inf"
	}
	if math.IsInf(v, -1) {
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
