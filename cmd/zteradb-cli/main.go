// Command zteradb-cli is a runnable example front-end over the zteradb
// façade, built with github.com/jessevdk/go-flags: one annotated option
// struct parsed by flags.NewParser, with the secret resolved from an
// environment variable before falling back to the flag, and an optional
// password-style prompt via golang.org/x/term.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/zteradb/zteradb-go"
	"github.com/zteradb/zteradb-go/config"
	"github.com/zteradb/zteradb-go/internal/logging"
	"github.com/zteradb/zteradb-go/query"
)

type options struct {
	Host       string `long:"host" description:"ZTeraDB server host" value-name:"host_name" default:"127.0.0.1"`
	Port       uint   `short:"P" long:"port" description:"ZTeraDB server port" value-name:"port_num" default:"9100"`
	ClientKey  string `long:"client-key" description:"Client key" value-name:"client_key"`
	AccessKey  string `long:"access-key" description:"Access key" value-name:"access_key"`
	SecretKey  string `long:"secret-key" description:"Secret key, overridden by $ZTERADB_SECRET_KEY" value-name:"secret_key"`
	SecretPrompt bool `long:"secret-prompt" description:"Force a secret key prompt"`
	DatabaseID string `long:"database-id" description:"Database id" value-name:"database_id"`
	Env        string `long:"env" description:"Deployment environment (dev,staging,qa,prod)" value-name:"env" default:"dev"`
	Config     string `long:"config" description:"YAML config file; when given, replaces the key, secret, database-id and env flags (host and port still apply)" value-name:"config_file"`
	Schema     string `long:"schema" description:"Schema name to query" value-name:"schema_name"`
	Operation  string `long:"operation" description:"INSERT, SELECT, UPDATE, or DELETE" value-name:"op" default:"SELECT"`
	QueryTimeoutSec uint `long:"query-timeout" description:"Per-frame read timeout in seconds" value-name:"seconds"`
	DebugPrintResponse bool `long:"debug-print-response" description:"Pretty-print each returned row or result with k0kubun/pp"`
	Help       bool   `long:"help" description:"Show this help"`
}

func parseOptions(args []string) (*options, config.Config) {
	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options]"
	args, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}

	if opts.Config != "" {
		cfg, err := config.LoadFile(opts.Config)
		if err != nil {
			log.Fatal(err)
		}
		return &opts, *cfg
	}

	secret, ok := os.LookupEnv("ZTERADB_SECRET_KEY")
	if !ok {
		secret = opts.SecretKey
	}
	if opts.SecretPrompt {
		fmt.Print("Enter secret key: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println()
		secret = string(pass)
	}

	cfg := config.Config{
		ClientKey:        opts.ClientKey,
		AccessKey:        opts.AccessKey,
		SecretKey:        secret,
		DatabaseID:       opts.DatabaseID,
		Env:              config.Env(opts.Env),
		ResponseDataType: config.ResponseDataTypeJSON,
		QueryTimeoutMS:   int(opts.QueryTimeoutSec) * 1000,
	}
	return &opts, cfg
}

func buildQuery(opts *options) (*query.Query, error) {
	kind, ok := query.KindFromString(opts.Operation)
	if !ok {
		return nil, fmt.Errorf("%q is not a valid operation (expected INSERT, SELECT, UPDATE, or DELETE)", opts.Operation)
	}
	q := query.New(opts.Schema, "")
	switch kind {
	case query.KindInsert:
		q.Insert()
	case query.KindSelect:
		q.Select()
	case query.KindUpdate:
		q.Update()
	case query.KindDelete:
		q.Delete()
	}
	return q, nil
}

func main() {
	logging.Init()
	opts, cfg := parseOptions(os.Args[1:])

	if opts.Schema == "" {
		fmt.Fprintln(os.Stderr, "no schema is specified! pass --schema")
		os.Exit(1)
	}

	q, err := buildQuery(opts)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	conn, err := zteradb.Connect(ctx, addr, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	result, rows, err := conn.Run(ctx, q, time.Duration(opts.QueryTimeoutSec)*time.Second)
	if err != nil {
		log.Fatal(err)
	}

	printer := pp.New()
	if rows != nil {
		for {
			row, done, err := rows.Next()
			if err != nil {
				log.Fatal(err)
			}
			if done {
				break
			}
			if opts.DebugPrintResponse {
				printer.Println(row)
			} else {
				fmt.Println(row)
			}
		}
		return
	}

	if opts.DebugPrintResponse {
		printer.Println(result.Raw())
	} else {
		fmt.Println(result.Raw())
	}
}
