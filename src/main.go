package main

import (
	"fmt"
	"os"
	"sync"

	"symex/src/collab"
	"symex/src/expr"
	"symex/src/fixture"
	"symex/src/interp"
	"symex/src/symex"
	"symex/src/util"
)

// run reads a fixture program per opt, symbolically executes it from
// opt.EntryPoint, and writes the resulting equation through w: one
// function threading a single Options value through the pipeline's
// stages, returning the first error.
func run(opt util.Options, w *util.Writer) error {
	src, err := util.ReadSource(opt)
	if err != nil {
		return fmt.Errorf("could not read source: %w", err)
	}

	prog, err := fixture.Parse(src)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	fns, err := fixture.Build(prog)
	if err != nil {
		return fmt.Errorf("could not lower fixture program: %w", err)
	}
	if _, ok := fns[opt.EntryPoint]; !ok {
		return fmt.Errorf("entry point %q not found", opt.EntryPoint)
	}

	symbols := collab.NewMapSymbolTable()
	for _, sym := range collectSymbols(fns) {
		if err := symbols.Insert(sym); err != nil {
			return fmt.Errorf("could not register symbol %q: %w", sym.ID, err)
		}
	}

	d := &symex.Driver{
		EntryPoint: opt.EntryPoint,
		Loader: func(id string) (*expr.Function, bool) {
			fn, ok := fns[id]
			return fn, ok
		},
		Symbols:  symbols,
		Simplify: simplifyFor(opt),
		Opt:      opt,
		Trace:    util.NewTrace(opt),
		Fkt:      interp.NewFktTable(),
		Storage:  collab.NewStackPathStorage(),
	}

	eq, err := symex.FromEntryPoint(d, collab.NewMapValueSet())
	if err != nil {
		return fmt.Errorf("symbolic execution error: %w", err)
	}

	for _, step := range eq.Steps() {
		w.WriteLine("%s", step.String())
	}
	stats := eq.Stats()
	w.WriteLine("--- %d VCCs, %d remaining ---", stats.TotalVCCs, stats.RemainingVCCs)
	return nil
}

// simplifyFor returns collab.DefaultSimplify when simplify_opt is
// enabled, or a no-op pass-through otherwise.
func simplifyFor(opt util.Options) collab.Simplify {
	if !opt.SimplifyOpt {
		return func(e *expr.Expr) *expr.Expr { return e }
	}
	return collab.DefaultSimplify
}

// collectSymbols walks every function's parameters and Decl statements,
// the only places a GOTO program fixes an identifier's type, and returns
// the symbol set the engine's SymbolTable collaborator needs: merge's
// phi-candidate heuristic consults it by id.
func collectSymbols(fns map[string]*expr.Function) []collab.Symbol {
	seen := map[string]bool{}
	var out []collab.Symbol
	add := func(id, typ string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, collab.Symbol{ID: id, Type: typ})
	}
	for _, fn := range fns {
		for _, p := range fn.Params {
			add(p.Name, p.Type)
		}
		for _, stmt := range fn.Body {
			if stmt.Kind == expr.Decl {
				add(stmt.Symbol, stmt.Type)
			}
		}
	}
	return out
}

func main() {
	opt, err := util.ParseArgs(util.Default(), os.Args[1:])
	if err != nil {
		fmt.Printf("command line argument error: %s\n", err)
		os.Exit(1)
	}

	wg := sync.WaitGroup{}
	util.ListenWrite(opt, nil, &wg)
	defer util.Close()

	w := util.NewWriter()
	if err := run(opt, &w); err != nil {
		fmt.Printf("error: %s\n", err)
	}
	w.Close()
	wg.Wait()
}
