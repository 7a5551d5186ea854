// Command sitectl edits the practice site's content through the admin client layer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mindfulpath/practicesite/internal/app"
	"github.com/mindfulpath/practicesite/internal/client/admin"
	"github.com/mindfulpath/practicesite/internal/client/mutation"
	"github.com/mindfulpath/practicesite/pkg/logger"
)

const usage = `usage: sitectl [flags] <command> [args]

commands:
  config list                      print every config entry
  config get <key>                 print one config section with defaults applied
  config set <key> <json>          upsert a config section
  config delete <key>              remove an optional config section
  list <resource> [public]         print a collection (admin view, or public view)
  reorder <resource> id=order...   move entities and print the resulting order
  delete <resource> <id>           remove an entity

resources: testimonials, articles, faq, photos
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("sitectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fmt.Fprintln(stderr, "\nflags:")
		fs.PrintDefaults()
	}

	var (
		configPath string
		baseURL    string
		logLevel   string
	)
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")
	fs.StringVar(&baseURL, "base-url", "", "API base URL (overrides client.base_url)")
	fs.StringVar(&logLevel, "log-level", "warn", "Log level")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no command given")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(baseURL) != "" {
		cfg.Client.BaseURL = baseURL
	}

	if err := app.ConfigureLogging(logLevel, "console"); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	client, err := admin.FromConfig(cfg.Client, admin.WithNotifier(mutation.NotifierFunc(func(n mutation.Notice) {
		fmt.Fprintf(stderr, "%s: %s", n.Title, n.Message)
		if n.Detail != "" {
			fmt.Fprintf(stderr, " (%s)", n.Detail)
		}
		fmt.Fprintln(stderr)
	})))
	if err != nil {
		return err
	}

	cmd := &commands{client: client, out: stdout}
	return cmd.dispatch(ctx, fs.Args())
}

func loadConfig(path string) (*app.Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return app.LoadConfig()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config path %q: %w", path, err)
	}
	if info.IsDir() {
		return app.LoadConfig(path)
	}
	return app.LoadConfig(filepath.Dir(path))
}
