package main

import (
	"flag"
	"os"

	"github.com/kanjimatch/kanjimatch/config"
	"github.com/kanjimatch/kanjimatch/log"
	"github.com/kanjimatch/kanjimatch/matcher"
	"github.com/kanjimatch/kanjimatch/refdb"
	"github.com/kanjimatch/kanjimatch/shell"
	"github.com/kanjimatch/kanjimatch/version"
)

func main() {
	configPath := flag.String("config", "kanjimatch.yaml", "config file")
	dbPath := flag.String("db", "", "reference database blob (overrides config)")
	serve := flag.Bool("serve", false, "run the HTTP API instead of the interactive shell")
	port := flag.Int("port", 0, "HTTP listen port (overrides config)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	log.InitLog()

	if *showVersion {
		log.Info.Println(version.Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error.Fatalln("failed to load config:", err)
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *port != 0 {
		cfg.Port = *port
	}

	if *serve {
		runServerMode(cfg)
		return
	}

	db, err := refdb.Load(cfg.DatabasePath)
	if err != nil {
		log.Error.Fatalln("failed to load database:", err)
	}

	m, err := matcher.New(db)
	if err != nil {
		log.Error.Fatalln("failed to initialize matcher:", err)
	}

	ctx := &shell.ShellCtxt{
		Db:      db,
		Matcher: m,
		TopN:    cfg.TopN,
	}

	if err := shell.RunShell(ctx); err != nil {
		log.Error.Println("shell exited with error", err)
		os.Exit(1)
	}
}
