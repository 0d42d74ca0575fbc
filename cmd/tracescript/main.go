// Tracescript CLI - executes compiled script packets host-side.
package main

import (
	"flag"
	"fmt"
	"os"

	_ "github.com/tliron/commonlog/simple"

	"github.com/probelab/tracescript/engine"
	"github.com/probelab/tracescript/forwarding"
	"github.com/probelab/tracescript/pkg/bytecode"
	"github.com/probelab/tracescript/wire"
)

func main() {
	disasm := flag.Bool("d", false, "Disassemble the script instead of executing it")
	trace := flag.Bool("trace", false, "Print each instruction before executing it")
	fwdConfig := flag.String("c", "", "Forwarding configuration file (TOML)")
	raw := flag.Bool("raw", false, "Input is a bare TSBC buffer, not a CBOR packet")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tracescript [options] <script file>\n\n")
		fmt.Fprintf(os.Stderr, "Executes a compiled script packet against the host context.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tracescript script.pkt            # Execute, print to stdout\n")
		fmt.Fprintf(os.Stderr, "  tracescript -d script.pkt         # Show the instruction listing\n")
		fmt.Fprintf(os.Stderr, "  tracescript -c fwd.toml script.pkt  # Route prints per config\n")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var (
		buf       *bytecode.SymbolBuffer
		tag       uint64
		immediate bool
	)
	if *raw {
		buf, err = bytecode.Deserialize(data)
	} else {
		var pkt *wire.ScriptPacket
		pkt, err = wire.UnmarshalScriptPacket(data)
		if err == nil {
			buf = pkt.Buffer()
			tag = pkt.Tag
			immediate = pkt.Immediate
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *disasm {
		fmt.Print(buf.DisassembleWithName(flag.Arg(0)))
		return
	}

	manager := forwarding.NewManager()
	defer manager.CloseAll()
	if *fwdConfig != "" {
		cfg, err := forwarding.LoadConfig(*fwdConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := manager.Apply(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	eng := engine.NewEngine(engine.NewStore(), engine.NewHostContext(), manager)
	eng.Tag = tag
	eng.Immediate = immediate
	eng.ResultOut = os.Stdout
	eng.Trace = *trace

	if err := eng.Run(buf); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
