// Command cimectl is a terminal client for CIME-GPT. It keeps its session in a
// local bbolt file (or Redis) so consecutive invocations behave like one
// browser tab.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cime-gpt/internal/config"
	"cime-gpt/internal/db"
	"cime-gpt/internal/logging"
	"cime-gpt/internal/services"
	"cime-gpt/internal/session"
)

const usage = `usage: cimectl [flags] <command> [args]

Chat commands:
  login -email E -password P      log in and restore that user's history
  logout                          end the session
  signup -name N -email E -password P [-confirm P]
  ask [-html] <question>          ask a question
  questions                       list suggested questions
  history [-delete ID]            show or delete saved conversations
  history-clear                   delete every saved conversation
  feedback -rating N [-comment C] rate the assistant

Admin commands:
  docs                            list indexed documents
  upload <file.pdf>...            upload PDFs and rebuild the index
  delete <id>                     delete a document
  rebuild                         rebuild the index
  add-question <text>             add a sample question
  delete-question <id>            delete a sample question
  users [-page N]                 registered users with visits and ratings
  activities [-page N]            recorded user activity
  stats                           dashboard counters

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cimectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	backendURL := fs.String("backend", "", "backend base URL (overrides CIME_BACKEND_URL)")
	store := fs.String("store", "", "session store: memory, bolt or redis (overrides SESSION_STORE)")
	logLevel := fs.String("log-level", "ERROR", "log level written to stderr")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *backendURL != "" {
		cfg.BackendURL = *backendURL
	}
	if *store != "" {
		cfg.SessionStore = *store
	}

	logger := logging.NewWithSink(zapcore.AddSync(stderr), *logLevel, cfg.LogFile)
	defer logger.Sync()

	kv, closeKV, err := openKV(cfg)
	if err != nil {
		logger.Error("Failed to open session store", zap.String("store", cfg.SessionStore), zap.Error(err))
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer closeKV()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend := services.NewBackendClientWithTimeout(cfg.BackendURL, cfg.BackendTimeout)
	a := newApp(cfg, backend, session.NewStore(kv, logger), logger, stdout)
	if err := a.run(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		fmt.Fprintln(stderr, a.styles.err.Render(err.Error()))
		return 1
	}
	return 0
}

// openKV selects the session backend named by cfg.SessionStore
func openKV(cfg config.Config) (session.KV, func(), error) {
	switch cfg.SessionStore {
	case "memory":
		return session.NewMemoryKV(), func() {}, nil
	case "redis":
		client, err := db.NewRedisClient(db.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(context.Background()); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis unreachable: %w", err)
		}
		return client, func() { client.Close() }, nil
	case "bolt", "":
		kv, err := db.OpenBolt(cfg.SessionPath)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { kv.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}
