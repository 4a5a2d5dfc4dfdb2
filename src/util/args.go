package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
)

// Options holds the parsed command line configuration (§6 CLI contract).
type Options struct {
	Sources     []string // One or more C source paths.
	Out         string   // Output file path. Empty means derive from last source; "-" means stdout.
	Comments    bool     // -c: add source-derived comments to emitted assembly.
	NoReduce    bool     // -n: disable the reducer.
	Debug       bool     // -d: include diagnostic stack traces.
	Verbose     bool     // -vb: print the resolved syntax tree before code generation.
	TokenStream bool     // -ts: output the token stream of the first source and exit.
}

const appVersion = "pigscc 1.0"

// ParseArgs parses command line arguments per §6's CLI contract.
func ParseArgs(args []string) (Options, error) {
	opt := Options{}
	for i1 := 0; i1 < len(args); i1++ {
		switch args[i1] {
		case "-h", "--h", "-help", "--help":
			printHelp()
			os.Exit(0)
		case "-c":
			opt.Comments = true
		case "-n":
			opt.NoReduce = true
		case "-d":
			opt.Debug = true
		case "-vb":
			opt.Verbose = true
		case "-ts":
			opt.TokenStream = true
		case "-v", "--v", "-version", "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case "-o":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			opt.Out = args[i1+1]
			i1++
		default:
			if strings.HasPrefix(args[i1], "-o-") {
				opt.Out = "-"
				continue
			}
			if strings.HasPrefix(args[i1], "-") && args[i1] != "-" {
				return opt, fmt.Errorf("unexpected flag: %s", args[i1])
			}
			opt.Sources = append(opt.Sources, args[i1])
		}
	}
	if len(opt.Sources) == 0 {
		return opt, fmt.Errorf("expected one or more source file paths")
	}
	if len(opt.Out) == 0 {
		last := opt.Sources[len(opt.Sources)-1]
		base := filepath.Base(last)
		ext := filepath.Ext(base)
		opt.Out = strings.TrimSuffix(base, ext) + ".s"
	}
	return opt, nil
}

// printHelp prints a helpful usage message to stdout.
func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrints this help message and exits the application.")
	_, _ = fmt.Fprintln(w, "-c\tAdd source-derived comments to the emitted assembly.")
	_, _ = fmt.Fprintln(w, "-n\tDisable the peephole reducer.")
	_, _ = fmt.Fprintln(w, "-d\tInclude diagnostic stack traces on compile errors.")
	_, _ = fmt.Fprintln(w, "-o\tPath and name of the output file. '-o-' writes to standard output.")
	_, _ = fmt.Fprintln(w, "-ts\tOutput the token stream of the source code and exit.")
	_, _ = fmt.Fprintln(w, "-vb\tVerbose mode: print the resolved syntax tree before code generation.")
	_, _ = fmt.Fprintln(w, "-v, -version\tPrints application version and exits the application.")
	_ = w.Flush()
}
