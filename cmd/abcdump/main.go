// abcdump parses an ABC bytecode container and prints its constant pools
// and a disassembly of every method body.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	_ "github.com/tliron/commonlog/simple"

	"github.com/noctilia/ruffle/abc"
)

// summary is the machine-readable shape of a container for -cbor output.
type summary struct {
	MajorVersion uint16   `cbor:"major"`
	MinorVersion uint16   `cbor:"minor"`
	Ints         int      `cbor:"ints"`
	UInts        int      `cbor:"uints"`
	Doubles      int      `cbor:"doubles"`
	Strings      []string `cbor:"strings"`
	Methods      int      `cbor:"methods"`
	Scripts      int      `cbor:"scripts"`
	Bodies       int      `cbor:"bodies"`
}

func main() {
	cborOut := flag.Bool("cbor", false, "Emit a CBOR container summary instead of text")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: abcdump [-cbor] file.abc")
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "abcdump: %v\n", err)
		os.Exit(1)
	}
	file, err := abc.Parse(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "abcdump: %v\n", err)
		os.Exit(1)
	}

	if *cborOut {
		em, err := cbor.CanonicalEncOptions().EncMode()
		if err != nil {
			fmt.Fprintf(os.Stderr, "abcdump: %v\n", err)
			os.Exit(1)
		}
		out, err := em.Marshal(summary{
			MajorVersion: file.MajorVersion,
			MinorVersion: file.MinorVersion,
			Ints:         len(file.Ints) - 1,
			UInts:        len(file.UInts) - 1,
			Doubles:      len(file.Doubles) - 1,
			Strings:      file.Strings[1:],
			Methods:      len(file.Methods),
			Scripts:      len(file.Scripts),
			Bodies:       len(file.Bodies),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "abcdump: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}

	fmt.Printf("abc version %d.%d\n", file.MajorVersion, file.MinorVersion)
	fmt.Printf("pools: %d ints, %d uints, %d doubles, %d strings, %d multinames\n",
		len(file.Ints)-1, len(file.UInts)-1, len(file.Doubles)-1,
		len(file.Strings)-1, len(file.Multinames)-1)
	fmt.Printf("%d methods, %d scripts, %d bodies\n\n",
		len(file.Methods), len(file.Scripts), len(file.Bodies))
	fmt.Print(file.DisassembleAll())
}
