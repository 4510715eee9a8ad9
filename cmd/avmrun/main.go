// avmrun loads ABC bytecode containers and runs their script initializers,
// printing trace() output to stdout.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/noctilia/ruffle/config"
	"github.com/noctilia/ruffle/player"
)

func main() {
	configDir := flag.String("config", ".", "Directory containing ruffle.toml")
	lazy := flag.Bool("lazy", false, "Defer script initializers until first use")
	debug := flag.Bool("debug", false, "Log every executed instruction")
	verbosity := flag.Int("v", 0, "Log verbosity")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: avmrun [flags] file.abc ...")
		os.Exit(2)
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "avmrun: %v\n", err)
		os.Exit(1)
	}
	if *lazy {
		cfg.Player.LazyInit = true
	}
	if *debug {
		cfg.Player.DebugOutput = true
	}
	if *verbosity > cfg.Log.Verbosity {
		cfg.Log.Verbosity = *verbosity
	}
	commonlog.Configure(cfg.Log.Verbosity, nil)

	p, err := player.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "avmrun: %v\n", err)
		os.Exit(1)
	}
	defer p.Close()
	p.TraceOutput = func(s string) { fmt.Println(s) }

	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "avmrun: %v\n", err)
			os.Exit(1)
		}
		if _, err := p.LoadMovie(data, path); err != nil {
			fmt.Fprintf(os.Stderr, "avmrun: %v\n", err)
			os.Exit(1)
		}
	}
}
