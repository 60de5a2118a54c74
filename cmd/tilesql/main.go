// Command tilesql is a line-oriented terminal client for a remote SQL
// warehouse: it wires the query execution worker, the tile-paged result
// store, and the rope-backed editor buffer together behind a minimal
// read-eval-print loop. Full-screen TUI rendering, keybinding surfaces, and
// syntax highlighting are left to whatever front end embeds these packages.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/karu-codes/tilesql/config"
	"github.com/karu-codes/tilesql/errors"
	"github.com/karu-codes/tilesql/internal/rope"
	"github.com/karu-codes/tilesql/internal/sqldriver"
	"github.com/karu-codes/tilesql/internal/worker"
	"github.com/karu-codes/tilesql/klog"
)

const pageSize = 20

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, errors.ToCMDError(err))
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "tilesql.yaml", "path to connection config file")
	flag.Parse()

	var cfg ConnectionConfig
	if err := config.Load(*configPath, &cfg, config.WithEnvPrefix("TILESQL")); err != nil {
		return errors.Wrap(err, errors.CodeInvalidArgument, "load connection config")
	}

	zapLogger, err := klog.InitProvider(cfg.Debug)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "init logger")
	}
	defer zapLogger.Sync()
	logger := klog.NewSlogBuilder(zapLogger).
		WithContextValue(worker.ContextKey, "batch").
		Build()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := worker.Start(ctx, sqldriver.Config{
		Driver:         sqldriver.Driver(cfg.Driver),
		DSN:            cfg.DSN,
		AppName:        cfg.AppName,
		ConnectTimeout: cfg.ConnectTimeout,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
		CircuitBreak:   cfg.CircuitBreak,
		Metrics:        sqldriver.NewLoggingMetrics(logger),
	}, logger)

	return repl(ctx, w, logger)
}

// repl reads SQL from stdin, one statement (or blank-line-terminated block)
// at a time, into a rope-backed editor buffer, submits it to the worker,
// and prints paged results from the tile store as they arrive.
func repl(ctx context.Context, w *worker.Worker, logger *slog.Logger) error {
	editor := rope.NewEditor(120)
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("tilesql> (blank line submits, Ctrl-C cancels the running statement)")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			w.Requests() <- worker.Quit()
			return nil
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			sql := strings.TrimSpace(editor.GetCurrentQuery())
			editor.SelectAll()
			editor.DeleteSelection()
			if sql == "" {
				continue
			}
			if sql == "\\quit" {
				w.Requests() <- worker.Quit()
				return nil
			}
			runBatch(ctx, w, sql)
			continue
		}
		editor.InsertText(line + "\n")
	}
}

func runBatch(ctx context.Context, w *worker.Worker, sql string) {
	_, req := worker.Submit([]string{sql})
	w.Requests() <- req

	pending := 1
	for pending > 0 {
		select {
		case resp := <-w.Responses():
			switch {
			case resp.QueryStarted():
				fmt.Printf("[%d] started\n", resp.Idx)
			case resp.QueryFinished():
				printResult(resp)
				pending--
			case resp.QueryError():
				fmt.Printf("[%d] error: %s (%s)\n", resp.Idx, resp.Message, resp.Elapsed)
				pending--
			}
		case <-ctx.Done():
			w.Cancel()
			return
		}
	}
}

func printResult(resp worker.Response) {
	set := resp.Result
	switch {
	case set.Table != nil:
		fmt.Println(strings.Join(set.Table.Headers, " | "))
		total := set.Table.Store.NumRows()
		for start := 0; start < total; start += pageSize {
			rows, err := set.Table.Store.GetRows(start, pageSize)
			if err != nil {
				fmt.Println("error paging rows:", errors.ToCMDError(err))
				return
			}
			for _, row := range rows {
				fmt.Println(strings.Join(row, " | "))
			}
		}
		fmt.Printf("(%d rows, %s)\n", total, resp.Elapsed)
		set.Table.Store.Close()
	case set.Info != nil:
		fmt.Printf("%s (%s)\n", set.Info.Message, resp.Elapsed)
	}
}
