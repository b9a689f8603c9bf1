// Package util provides the ambient stack shared by every engine
// component: configuration (Options), CLI argument parsing, a thread-safe
// stack, a parallel error collector, ID generation and colored step
// tracing. It plays the same role a util package plays in most
// compilers: small, dependency-light helpers with no knowledge of the
// domain logic built on top of them.
package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Options holds every configuration flag the engine recognizes, plus the
// entry-point/fixture-file plumbing a runnable CLI needs. Every field
// below corresponds to a documented command-line flag or config-file
// key, rather than target-architecture plumbing a code generator would
// need.
type Options struct {
	Src        string `yaml:"src"`         // path to a fixture program (src/fixture grammar), or "" for stdin.
	EntryPoint string `yaml:"entry_point"` // function id to start symbolic execution from.

	MaxDepth                int            `yaml:"max_depth"`
	DoingPathExploration    bool           `yaml:"doing_path_exploration"`
	AllowPointerUnsoundness bool           `yaml:"allow_pointer_unsoundness"`
	ConstantPropagation     bool           `yaml:"constant_propagation"`
	SelfLoopsToAssumptions  bool           `yaml:"self_loops_to_assumptions"`
	SimplifyOpt             bool           `yaml:"simplify_opt"`
	UnwindingAssertions     bool           `yaml:"unwinding_assertions"`
	PartialLoops            bool           `yaml:"partial_loops"`
	RunValidationChecks     bool           `yaml:"run_validation_checks"`
	ShowSymexSteps          bool           `yaml:"show_symex_steps"`
	DebugLevel              int            `yaml:"debug_level"`
	UnwindBound             int            `yaml:"unwind_bound"`            // default per-loop-head bound; negative = unbounded, 0 = no back-edge ever taken.
	UnwindBoundPerFunction  map[string]int `yaml:"unwind_bound_per_function"` // per-loop-head override, keyed "loop_head_<pc>".
	RecursionBound          int            `yaml:"recursion_bound"`         // negative = unbounded, 0 = no nested self-call ever taken.

	Threads int `yaml:"threads"` // sizes the output writer's channel buffer; exploration itself runs on one goroutine.
}

// Default returns the engine's default configuration: single-path mode,
// unlimited depth, unbounded unwinding/recursion, no unwinding assertions,
// simplification on.
func Default() Options {
	return Options{
		MaxDepth:       0,
		SimplifyOpt:    true,
		UnwindBound:    -1,
		RecursionBound: -1,
		Threads:        1,
	}
}

const maxThreads = 64
const appVersion = "symex 1.0"

// LoadFile reads a YAML options file and overlays it onto Default(),
// the way a compiler's config file supplements rather than replaces
// built-in defaults.
func LoadFile(path string) (Options, error) {
	opt := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return opt, fmt.Errorf("could not read options file: %w", err)
	}
	if err := yaml.Unmarshal(b, &opt); err != nil {
		return opt, fmt.Errorf("could not parse options file %s: %w", path, err)
	}
	return opt, nil
}

// ParseArgs parses command line arguments into an Options structure,
// starting from opt and applying flags left to right. -config replaces
// everything set so far with the file overlaid on Default(), so flags
// after it win over the file and flags before it are discarded.
func ParseArgs(opt Options, args []string) (Options, error) {
	for i1 := 0; i1 < len(args); i1++ {
		switch args[i1] {
		case "-h", "--h", "-help", "--help":
			printHelp()
			os.Exit(0)
		case "-config":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			loaded, err := LoadFile(args[i1+1])
			if err != nil {
				return opt, err
			}
			opt = loaded
			i1++
		case "-entry":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			opt.EntryPoint = args[i1+1]
			i1++
		case "-max-depth":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			n, err := strconv.Atoi(args[i1+1])
			if err != nil {
				return opt, fmt.Errorf("expected integer max depth, got: %s", args[i1+1])
			}
			opt.MaxDepth = n
			i1++
		case "-unwind":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			n, err := strconv.Atoi(args[i1+1])
			if err != nil {
				return opt, fmt.Errorf("expected integer unwind bound, got: %s", args[i1+1])
			}
			opt.UnwindBound = n
			i1++
		case "-t":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			t, err := strconv.Atoi(args[i1+1])
			if err != nil || t <= 0 || t > maxThreads {
				return opt, fmt.Errorf("thread count must be integer in range [1, %d]", maxThreads)
			}
			opt.Threads = t
			i1++
		case "-path-exploration":
			opt.DoingPathExploration = true
		case "-unwinding-assertions":
			opt.UnwindingAssertions = true
		case "-partial-loops":
			opt.PartialLoops = true
		case "-self-loops-to-assumptions":
			opt.SelfLoopsToAssumptions = true
		case "-allow-pointer-unsoundness":
			opt.AllowPointerUnsoundness = true
		case "-no-simplify":
			opt.SimplifyOpt = false
		case "-constant-propagation":
			opt.ConstantPropagation = true
		case "-validate":
			opt.RunValidationChecks = true
		case "-show-symex-steps":
			opt.ShowSymexSteps = true
		case "-debug":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			n, err := strconv.Atoi(args[i1+1])
			if err != nil {
				return opt, fmt.Errorf("expected integer debug level, got: %s", args[i1+1])
			}
			opt.DebugLevel = n
			i1++
		case "-v", "--v", "-version", "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		default:
			if strings.HasPrefix(args[i1], "-") {
				return opt, fmt.Errorf("unexpected flag: %s", args[i1])
			}
			opt.Src = args[i1]
		}
	}
	return opt, nil
}

// printHelp prints a helpful usage message to stdout, tabwriter-aligned.
func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrints this help message and exits.")
	_, _ = fmt.Fprintln(w, "-config <path>\tLoad options from a YAML file before applying further flags.")
	_, _ = fmt.Fprintln(w, "-entry <id>\tFunction id to begin symbolic execution from.")
	_, _ = fmt.Fprintln(w, "-max-depth <n>\tHard cap on steps per path; 0 = unlimited.")
	_, _ = fmt.Fprintln(w, "-unwind <n>\tDefault loop unwind bound; negative = unbounded.")
	_, _ = fmt.Fprintln(w, "-path-exploration\tEnable branch-pause mode.")
	_, _ = fmt.Fprintln(w, "-unwinding-assertions\tEmit assertion at unwind bound breach.")
	_, _ = fmt.Fprintln(w, "-partial-loops\tAllow continuation past unwind bound.")
	_, _ = fmt.Fprintln(w, "-self-loops-to-assumptions\tReplace back-edges with assume(false) at bound.")
	_, _ = fmt.Fprintln(w, "-allow-pointer-unsoundness\tSuppress dereference failure assertions.")
	_, _ = fmt.Fprintln(w, "-no-simplify\tDisable on-the-fly simplification.")
	_, _ = fmt.Fprintln(w, "-constant-propagation\tEnable L2-rewrite via constant-prop map.")
	_, _ = fmt.Fprintln(w, "-validate\tRun extra invariant checks over the finished equation.")
	_, _ = fmt.Fprintln(w, "-show-symex-steps\tPrint each equation step as it is emitted.")
	_, _ = fmt.Fprintln(w, "-debug <n>\tVerbosity level.")
	_, _ = fmt.Fprintln(w, "-t <n>\tOutput writer channel buffer size.")
	_, _ = fmt.Fprintln(w, "-v, -version\tPrints application version and exits.")
	_ = w.Flush()
}

// BoundFor returns the configured unwind bound for loop-head id,
// falling back to the global UnwindBound when no override for id is
// set.
func (o Options) BoundFor(id string) int {
	if o.UnwindBoundPerFunction != nil {
		if b, ok := o.UnwindBoundPerFunction[id]; ok {
			return b
		}
	}
	return o.UnwindBound
}
