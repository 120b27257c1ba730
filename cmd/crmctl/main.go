// Command crmctl runs operator tasks against the CRM database: migrations,
// scoring runs, segmentation reports and CSV export/import.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"crm_backend/platform/config"
	"crm_backend/platform/logger"
)

const usage = `usage: crmctl <command> [flags]

commands:
  migrate                 apply pending schema migrations
  score [-top N]          run lead scoring and print the ranked leads
  segment                 print customer value segments
  export [-o file] <entity>
                          write customers, deals, tasks or communication_logs as CSV
  import <entity> <file>  import customers, deals or tasks from CSV
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "crmctl:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("missing command")
	}

	cfg := config.LoadForTools()
	log := logger.NewWithWriter(cfg.Env, stderr)

	name, rest := args[0], args[1:]
	switch name {
	case "migrate":
		return withEnv(ctx, cfg, log, func(e *env) error { return cmdMigrate(ctx, e, stdout) })
	case "score":
		fs := flag.NewFlagSet("score", flag.ContinueOnError)
		fs.SetOutput(stderr)
		top := fs.Int("top", 20, "number of leads to print, 0 for all")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return withEnv(ctx, cfg, log, func(e *env) error { return cmdScore(ctx, e, *top, stdout) })
	case "segment":
		return withEnv(ctx, cfg, log, func(e *env) error { return cmdSegment(ctx, e, stdout) })
	case "export":
		fs := flag.NewFlagSet("export", flag.ContinueOnError)
		fs.SetOutput(stderr)
		out := fs.String("o", "", "output file, stdout when empty")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("export needs exactly one entity")
		}
		return withEnv(ctx, cfg, log, func(e *env) error { return cmdExport(ctx, e, fs.Arg(0), *out, stdout, stderr) })
	case "import":
		if len(rest) != 2 {
			return fmt.Errorf("import needs an entity and a file")
		}
		return withEnv(ctx, cfg, log, func(e *env) error { return cmdImport(ctx, e, rest[0], rest[1], stdout) })
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", name)
	}
}
