package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/layout-bridge/engine"
	"github.com/wippyai/layout-bridge/jsbind"
	"github.com/wippyai/layout-bridge/style"
	"github.com/wippyai/layout-bridge/tree"
	"github.com/wippyai/layout-bridge/wasmmeasure"
)

type options struct {
	treeFile    string
	measureWasm string
	script      string
	width       float64
	height      float64
	jsonOut     bool
	printTree   bool
	unrounded   bool
	verbose     bool
	interactive bool
}

func main() {
	var opts options
	flag.StringVar(&opts.treeFile, "tree", "", "Path to a JSON tree description")
	flag.StringVar(&opts.measureWasm, "measure", "", "Wasm module exporting measure (optional)")
	flag.StringVar(&opts.script, "script", "", "JavaScript file defining a global measure function (optional)")
	flag.Float64Var(&opts.width, "width", 0, "Available width (default: terminal width)")
	flag.Float64Var(&opts.height, "height", 0, "Available height (default: terminal height)")
	flag.BoolVar(&opts.jsonOut, "json", false, "Print layouts as JSON")
	flag.BoolVar(&opts.printTree, "print", false, "Print the engine's tree dump")
	flag.BoolVar(&opts.unrounded, "unrounded", false, "Report fractional geometry")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.BoolVar(&opts.interactive, "i", false, "Interactive mode with TUI")
	flag.Parse()

	if opts.treeFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: layout -tree <tree.json> [-width N] [-height N] [-json] [-print]")
		fmt.Fprintln(os.Stderr, "       layout -tree <tree.json> -measure <measure.wasm>")
		fmt.Fprintln(os.Stderr, "       layout -tree <tree.json> -script <measure.js>")
		fmt.Fprintln(os.Stderr, "       layout -tree <tree.json> -i  (interactive mode)")
		os.Exit(1)
	}
	if opts.measureWasm != "" && opts.script != "" {
		fmt.Fprintln(os.Stderr, "Error: -measure and -script are mutually exclusive")
		os.Exit(1)
	}

	if opts.verbose {
		flush, err := setupLogging(zap.NewDevelopment)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer flush()
	}

	var err error
	if opts.interactive {
		err = runInteractive(opts)
	} else {
		err = run(opts, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging installs the logger built by newLogger on every package
// that logs. The returned func flushes it.
func setupLogging(newLogger func(...zap.Option) (*zap.Logger, error)) (func(), error) {
	log, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	tree.SetLogger(log)
	engine.SetLogger(log)
	wasmmeasure.SetLogger(log)
	return func() { _ = log.Sync() }, nil
}

// session is a loaded tree plus the measure function to lay it out with.
type session struct {
	st      *tree.State
	root    *box
	measure tree.MeasureFunc
	closers []func()
}

func openSession(opts options) (*session, error) {
	d, err := loadDescription(opts.treeFile)
	if err != nil {
		return nil, err
	}

	st := tree.Default()
	s := &session{st: st, measure: monoMeasure}
	s.closers = append(s.closers, func() { _ = tree.Teardown() })

	if opts.unrounded {
		if err := st.DisableRounding(); err != nil {
			s.close()
			return nil, err
		}
	}
	if err := s.loadMeasure(opts); err != nil {
		s.close()
		return nil, err
	}

	if s.root, err = build(st, d); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *session) loadMeasure(opts options) error {
	switch {
	case opts.measureWasm != "":
		ctx := context.Background()
		data, err := os.ReadFile(opts.measureWasm)
		if err != nil {
			return fmt.Errorf("read measure module: %w", err)
		}
		m, err := wasmmeasure.Load(ctx, data, nil)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func() { _ = m.Close(ctx) })
		s.measure = m.Func()

	case opts.script != "":
		src, err := os.ReadFile(opts.script)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		vm := goja.New()
		if err := jsbind.Bind(vm, s.st); err != nil {
			return err
		}
		if _, err := vm.RunScript(opts.script, string(src)); err != nil {
			return fmt.Errorf("run script: %w", err)
		}
		fn := vm.Get("measure")
		if _, ok := goja.AssertFunction(fn); !ok {
			return fmt.Errorf("script %s does not define a measure function", opts.script)
		}
		s.measure = jsbind.MeasureFunc(vm, fn)
	}
	return nil
}

func (s *session) compute(width, height float32) error {
	return s.root.node.ComputeLayout(style.AvailableSize(width, height), s.measure)
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func run(opts options, w io.Writer) error {
	s, err := openSession(opts)
	if err != nil {
		return err
	}
	defer s.close()

	width, height := availableSize(opts)
	if err := s.compute(width, height); err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}

	if opts.printTree {
		out, err := s.st.PrintTree(s.root.node.ID())
		if err != nil {
			return err
		}
		fmt.Fprint(w, out)
		return nil
	}

	nodes, err := place(s.root)
	if err != nil {
		return err
	}
	if opts.jsonOut {
		return writeJSON(w, nodes)
	}
	writeTable(w, nodes)

	if stats := s.st.Stats(); stats.MeasureFailures > 0 {
		fmt.Fprintf(w, "\n%d measure call(s) failed; run with -v for details\n", stats.MeasureFailures)
	}
	return nil
}

// availableSize falls back to the terminal size, then to 80x24.
func availableSize(opts options) (float32, float32) {
	width, height := float32(opts.width), float32(opts.height)
	if width > 0 && height > 0 {
		return width, height
	}
	tw, th, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || tw <= 0 || th <= 0 {
		tw, th = 80, 24
	}
	if width <= 0 {
		width = float32(tw)
	}
	if height <= 0 {
		height = float32(th)
	}
	return width, height
}

func writeTable(w io.Writer, nodes []placed) {
	nameWidth := len("NODE")
	for _, n := range nodes {
		nameWidth = max(nameWidth, 2*n.depth+len(n.name))
	}
	fmt.Fprintf(w, "%-*s %6s %8s %8s %8s %8s\n", nameWidth, "NODE", "ID", "X", "Y", "WIDTH", "HEIGHT")
	for _, n := range nodes {
		name := fmt.Sprintf("%*s%s", 2*n.depth, "", n.name)
		fmt.Fprintf(w, "%-*s %6d %8g %8g %8g %8g\n", nameWidth, name, n.id, n.x, n.y, n.width, n.height)
	}
}

type jsonNode struct {
	Name   string  `json:"name"`
	ID     uint64  `json:"id"`
	Depth  int     `json:"depth"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

func writeJSON(w io.Writer, nodes []placed) error {
	out := make([]jsonNode, len(nodes))
	for i, n := range nodes {
		out[i] = jsonNode{
			Name:   n.name,
			ID:     uint64(n.id),
			Depth:  n.depth,
			X:      n.x,
			Y:      n.y,
			Width:  n.width,
			Height: n.height,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
