package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/jhoicas/taller-stock/internal/infrastructure/postgres"
	"github.com/jhoicas/taller-stock/pkg/config"
	"github.com/jhoicas/taller-stock/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		databaseURL string
		logLevel    string
	)
	flag.StringVar(&databaseURL, "database-url", "", "URL de PostgreSQL (por defecto DATABASE_URL o DB_*)")
	flag.StringVar(&logLevel, "log-level", "info", "Nivel de log (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		return 2
	}
	command := args[0]

	log := logger.New(logger.Config{Env: "development", Level: logLevel})

	if databaseURL == "" {
		databaseURL = config.Read().DB.ConnectionString()
	}

	m, err := postgres.NewMigrator(databaseURL, log)
	if err != nil {
		log.Error().Err(err).Msg("crear migrador")
		return 1
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar migrador")
		}
	}()

	log.Info().Str("command", command).Msg("migrate")

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		var n int
		if n, err = intArg(args, "steps"); err == nil {
			err = m.Steps(n)
		}
	case "force":
		var v int
		if v, err = intArg(args, "force"); err == nil {
			err = m.Force(v)
		}
	case "version":
		var (
			v     uint
			dirty bool
		)
		if v, dirty, err = m.Version(); err == nil {
			fmt.Printf("version=%d dirty=%t\n", v, dirty)
		}
	default:
		printUsage()
		return 2
	}
	if err != nil {
		log.Error().Err(err).Str("command", command).Msg("migración fallida")
		return 1
	}
	return 0
}

func intArg(args []string, command string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("uso: migrate %s <n>", command)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: número inválido %q", command, args[1])
	}
	return n, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Uso: migrate [flags] <comando> [args]

Comandos:
  up            aplica todas las migraciones pendientes
  down          revierte todas las migraciones
  steps <n>     aplica n migraciones (negativo revierte)
  version       muestra la versión actual
  force <v>     fija la versión sin ejecutar SQL (recuperar estado dirty)

Flags:
`)
	flag.PrintDefaults()
}
