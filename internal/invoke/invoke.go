// Package invoke builds and runs the command line of the external neural
// decoder. The flag list is constructed deterministically from a Request, so
// the same request always produces the same invocation.
package invoke

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Mode selects the decoder operation.
type Mode string

const (
	ModeTrain  Mode = "train"
	ModeTest   Mode = "test"
	ModeRerank Mode = "rerank"
)

var (
	ErrUnknownMode    = errors.New("unknown decoder mode")
	ErrMissingField   = errors.New("missing required request field")
	ErrDecoderFailure = errors.New("decoder exited with error")
)

// Request describes one decoder invocation. Extra carries pass-through flags
// that have no dedicated field; they are emitted in sorted key order to keep
// the command line deterministic.
type Request struct {
	PythonBin string
	Script    string

	Mode           Mode
	Seed           int
	BeamSize       int
	MaxDecodeSteps int

	TrainFile   string
	DevFile     string
	TestFile    string
	GrammarFile string
	ModelPath   string
	OutputPath  string

	Evaluator string
	Features  []string

	Extra map[string]string
}

// Validate checks the fields the selected mode requires.
func (r *Request) Validate() error {
	if r.PythonBin == "" || r.Script == "" {
		return errors.Wrap(ErrMissingField, "interpreter and script")
	}

	switch r.Mode {
	case ModeTrain:
		if r.TrainFile == "" || r.DevFile == "" {
			return errors.Wrap(ErrMissingField, "train mode needs train and dev files")
		}
	case ModeTest:
		if r.TestFile == "" || r.ModelPath == "" {
			return errors.Wrap(ErrMissingField, "test mode needs a test file and a model")
		}
	case ModeRerank:
		if r.TestFile == "" || r.OutputPath == "" {
			return errors.Wrap(ErrMissingField, "rerank mode needs a test file and a decode file")
		}
		if len(r.Features) == 0 {
			return errors.Wrap(ErrMissingField, "rerank mode needs at least one feature")
		}
	default:
		return errors.Wrap(ErrUnknownMode, string(r.Mode))
	}

	return nil
}

// Argv returns the full command line, interpreter first. The layout is
// fixed: positional mode, then flags in declaration order, then sorted extra
// flags, so two identical requests compare equal as strings.
func (r *Request) Argv() ([]string, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	argv := []string{r.PythonBin, r.Script, string(r.Mode)}

	appendFlag := func(name, value string) {
		if value != "" {
			argv = append(argv, name, value)
		}
	}

	appendFlag("--seed", strconv.Itoa(r.Seed))
	if r.BeamSize > 0 {
		appendFlag("--beam_size", strconv.Itoa(r.BeamSize))
	}
	if r.MaxDecodeSteps > 0 {
		appendFlag("--decode_max_time_step", strconv.Itoa(r.MaxDecodeSteps))
	}

	appendFlag("--train_file", r.TrainFile)
	appendFlag("--dev_file", r.DevFile)
	appendFlag("--test_file", r.TestFile)
	appendFlag("--asdl_file", r.GrammarFile)
	appendFlag("--load_model", r.ModelPath)
	appendFlag("--save_decode_to", r.OutputPath)
	appendFlag("--evaluator", r.Evaluator)

	if len(r.Features) > 0 {
		argv = append(argv, "--features")
		argv = append(argv, r.Features...)
	}

	keys := make([]string, 0, len(r.Extra))
	for key := range r.Extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		appendFlag("--"+key, r.Extra[key])
	}

	return argv, nil
}

// String is the shell-readable form of the invocation.
func (r *Request) String() string {
	argv, err := r.Argv()
	if err != nil {
		return fmt.Sprintf("invalid request: %v", err)
	}

	return strings.Join(argv, " ")
}

// Runner executes decoder requests, streaming their output to a log writer.
type Runner struct {
	logger *zap.Logger
}

// NewRunner returns a runner logging through logger.
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run executes the request and waits for it. Stdout and stderr are streamed
// to logOut. A non-zero exit is returned as an ErrDecoderFailure wrapping
// the exit code.
func (r *Runner) Run(ctx context.Context, req *Request, logOut io.Writer) error {
	argv, err := req.Argv()
	if err != nil {
		return err
	}

	r.logger.Info("running decoder",
		zap.String("mode", string(req.Mode)),
		zap.Strings("argv", argv),
	)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = logOut
	cmd.Stderr = logOut

	err = cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return errors.Wrapf(ErrDecoderFailure, "exit code %d", exitErr.ExitCode())
	}
	if err != nil {
		return errors.Wrapf(err, "unable to run %s", argv[0])
	}

	return nil
}
