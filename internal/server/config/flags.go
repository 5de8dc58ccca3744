package config

import (
	"flag"

	"github.com/dmitrijs2005/memberservice/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string   HTTP bind address (e.g. ":3001")
//	-d string   PostgreSQL DSN
//	-s string   service token secret
//	-l string   legacy password secret
//	-b int      bcrypt cost
//	-e string   environment (local, dev, prod)
//
// Unknown flags are filtered out first so other layers can share the command line.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-l", "-b", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token secret key")
	fs.StringVar(&config.LegacyPasswordSecret, "l", config.LegacyPasswordSecret, "legacy password secret")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.Env, "e", config.Env, "environment: local, dev or prod")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
