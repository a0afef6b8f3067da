package main

import (
	"flag"
	"fmt"
	"sort"
	"strings"
	"time"

	"sharpchess/internal/engine"
)

// config is the server configuration. Flags win over the environment.
type config struct {
	Addr          string
	EnginePath    string
	EngineType    string
	EngineOptions map[string]string
	DSN           string
	RedisURL      string
	CacheDir      string
	Origin        string
	Bot           string
	BotDepth      int
	Retention     time.Duration
	Debug         bool
}

// stockfishOptions are applied when no -option overrides them.
var stockfishOptions = map[string]string{"Threads": "10", "Hash": "4096"}

// optionFlag collects repeated -option Name=Value flags.
type optionFlag map[string]string

func (o optionFlag) String() string {
	parts := make([]string, 0, len(o))
	for k, v := range o {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (o optionFlag) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("expected Name=Value, got %q", s)
	}
	o[name] = strings.TrimSpace(value)
	return nil
}

func parseConfig(fs *flag.FlagSet, args []string, getenv func(string) string) config {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}
	var cfg config
	opts := optionFlag{}
	fs.StringVar(&cfg.Addr, "addr", env("LISTEN_ADDR", ":5000"), "listen address")
	fs.StringVar(&cfg.EnginePath, "engine", env("STOCKFISH_PATH", "stockfish"), "path to the UCI engine binary")
	fs.StringVar(&cfg.EngineType, "engine-type", env("ENGINE_TYPE", engine.TypeStockfish), "engine flavour: stockfish or leela")
	fs.Var(opts, "option", "engine option Name=Value (repeatable)")
	fs.StringVar(&cfg.DSN, "dsn", env("DATABASE_URL", ""), "postgres DSN for the analysis archive")
	fs.StringVar(&cfg.RedisURL, "redis", env("REDIS_URL", ""), "redis URL for the result cache")
	fs.StringVar(&cfg.CacheDir, "cache-dir", env("CACHE_DIR", ""), "local result cache directory, used when redis is not configured")
	fs.StringVar(&cfg.Origin, "origin", env("CORS_ORIGIN", "http://localhost:3000"), "allowed browser origin")
	fs.StringVar(&cfg.Bot, "bot", env("BOT", "random"), "opponent for played games: random or engine")
	fs.IntVar(&cfg.BotDepth, "bot-depth", 8, "search depth of the engine bot")
	fs.DurationVar(&cfg.Retention, "retention", 30*24*time.Hour, "delete archived analyses older than this (0 keeps them)")
	fs.BoolVar(&cfg.Debug, "debug", false, "enable debug logging")
	_ = fs.Parse(args)

	if cfg.EngineType == engine.TypeStockfish {
		for k, v := range stockfishOptions {
			if _, ok := opts[k]; !ok {
				opts[k] = v
			}
		}
	}
	cfg.EngineOptions = opts
	return cfg
}
