package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/apptrack/apptrack/app/config"
	"github.com/apptrack/apptrack/app/notify"
	"github.com/apptrack/apptrack/app/service"
	"github.com/apptrack/apptrack/app/store"
	"github.com/apptrack/apptrack/app/store/persistence"
	"github.com/apptrack/apptrack/app/web"
)

var opts struct {
	DBFile     string        `short:"f" long:"db" env:"APPTRACK_DB" default:"apptrack.db" description:"database file"`
	Listen     string        `short:"l" long:"listen" env:"APPTRACK_LISTEN" default:"localhost:8080" description:"listen address"`
	ConfigFile string        `short:"c" long:"config" env:"APPTRACK_CONFIG" description:"config file for sweep and notifications"`
	UndoWindow time.Duration `long:"undo-window" env:"APPTRACK_UNDO_WINDOW" default:"5s" description:"how long a deleted application stays recoverable"`
	StoreLimit int           `long:"store-limit" env:"APPTRACK_STORE_LIMIT" default:"0" description:"max size of a stored value in bytes, 0 for unlimited"`
	AuthHash   string        `long:"auth-hash" env:"APPTRACK_AUTH_HASH" description:"bcrypt hash of the api password, empty disables auth"`

	Repeater struct {
		Attempts int           `long:"attempts" env:"ATTEMPTS" default:"1" description:"how many times to repeat a failed save"`
		Duration time.Duration `long:"duration" env:"DURATION" default:"1s" description:"initial retry delay"`
		Factor   float64       `long:"factor" env:"FACTOR" default:"3" description:"backoff factor"`
		Jitter   bool          `long:"jitter" env:"JITTER" description:"jitter"`
	} `group:"repeater" namespace:"repeater" env-namespace:"APPTRACK_REPEATER"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"file" env:"FILE" default:"apptrack.log" description:"log file name"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max size of log file in MB"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of rotated log files"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max age of rotated log files in days"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"enable compression of rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"APPTRACK_LOG"`

	Dbg bool `long:"dbg" env:"APPTRACK_DEBUG" description:"debug mode"`
}

var revision = "unknown"

func main() {
	fmt.Printf("apptrack %s\n", revision)

	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	setupLogs()

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel) // handle SIGQUIT and SIGTERM

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] apptrack failed, %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	kv, err := persistence.NewKVStore(opts.DBFile, opts.StoreLimit)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", opts.DBFile, err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Printf("[WARN] failed to close database: %v", err)
		}
	}()

	cfg := &config.Config{}
	if opts.ConfigFile != "" {
		if cfg, err = config.Load(opts.ConfigFile); err != nil {
			return err
		}
	}

	rptr := repeater.New(&strategy.Backoff{Repeats: opts.Repeater.Attempts, Duration: opts.Repeater.Duration,
		Factor: opts.Repeater.Factor, Jitter: opts.Repeater.Jitter})

	tracker := &service.Tracker{
		Store:         store.New(kv, rptr),
		Undo:          service.NewUndoController(opts.UndoWindow),
		KV:            kv,
		SweepSchedule: cfg.Sweep.Schedule,
		StaleDays:     cfg.Sweep.StaleDays,
	}
	if notifier := makeNotifier(cfg); notifier != nil {
		tracker.Notifier = notifier
	}

	srv, err := web.New(web.Config{Tracker: tracker, Version: revision, DBPath: opts.DBFile, PasswordHash: opts.AuthHash})
	if err != nil {
		return err
	}

	go func() {
		if err := tracker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[ERROR] tracker stopped, %v", err)
		}
	}()

	return srv.Run(ctx, opts.Listen)
}

func makeNotifier(cfg *config.Config) *notify.Service {
	if len(cfg.Notify.Destinations) == 0 {
		return nil
	}
	return notify.NewService(notify.Params{
		Destinations: cfg.Notify.Destinations,
		SMTPHost:     cfg.Notify.SMTP.Host,
		SMTPPort:     cfg.Notify.SMTP.Port,
		SMTPUsername: cfg.Notify.SMTP.Username,
		SMTPPassword: cfg.Notify.SMTP.Password,
		SMTPTLS:      cfg.Notify.SMTP.TLS,
		SlackToken:   cfg.Notify.SlackToken,
		FromEmail:    cfg.Notify.FromEmail,
	})
}

func setupLogs() io.Writer {
	logOpts := []log.Option{log.Msec, log.LevelBraces, log.StackTraceOnError}
	if opts.Dbg {
		logOpts = []log.Option{log.Debug, log.CallerFile, log.CallerFunc, log.Msec, log.LevelBraces, log.StackTraceOnError}
	}

	if opts.Log.Enabled && opts.Log.Filename != "" {
		fileLogger := &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.EnabledCompress,
			LocalTime:  true,
		}
		logOpts = append(logOpts, log.Out(io.MultiWriter(os.Stdout, fileLogger)))
		log.Setup(logOpts...)
		return fileLogger
	}

	log.Setup(logOpts...)
	return os.Stdout
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			cancel() // terminate on SIGTERM or SIGINT
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
