// Command minilayout prints the block layout computed for message types.
//
// Usage:
//
//	minilayout -schema shop.toml [-message shop.Order]
//	minilayout -proto api/item.proto [-import api] [-message bridge.test.Item]
//
// Without -message every message type of the input is printed.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

func main() {
	var (
		schemaPath = flag.String("schema", "", "TOML schema file")
		protoPath  = flag.String("proto", "", ".proto source file")
		importPath = flag.String("import", "", "import path for -proto (defaults to the file's directory)")
		name       = flag.String("message", "", "full name of a single message type to print")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Str("app", "minilayout").Logger()

	var (
		tables []*table
		err    error
	)
	switch {
	case *schemaPath != "" && *protoPath != "":
		logger.Fatal().Msg("-schema and -proto are mutually exclusive")
	case *schemaPath != "":
		tables, err = fromSchemaFile(*schemaPath)
	case *protoPath != "":
		dir := *importPath
		if dir == "" {
			dir = filepath.Dir(*protoPath)
		}
		tables, err = fromProtoFile(logger, dir, *protoPath)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("load schema")
	}

	if *name != "" {
		tables, err = selectTable(tables, *name)
		if err != nil {
			logger.Fatal().Err(err).Msg("select message")
		}
	}

	logger.Debug().Int("tables", len(tables)).Msg("layout computed")
	if err := render(os.Stdout, tables); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
