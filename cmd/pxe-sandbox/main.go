package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	. "github.com/alexdcox/aztec-go"
	"github.com/alexdcox/aztec-go/pxetest"
)

type _config struct {
	Listen        string `json:"listen"`
	AddressesFile string `json:"addresses"`
	DatabasePath  string `json:"databasepath"`
	LogLevel      string `json:"loglevel"`
	Accounts      int    `json:"accounts"`
}

func (c *_config) Load() (err error) {
	flag.StringVar(&c.Listen, "listen", "localhost:8080", "Set host:port for the json-rpc listener")
	flag.StringVar(&c.AddressesFile, "addresses", DefaultAddressesFile, "Path to write the deployed contract addresses to")
	flag.StringVar(&c.DatabasePath, "databasepath", "", "Path to a sqlite database for blocks, receipts and logs (default: in memory)")
	flag.StringVar(&c.LogLevel, "loglevel", "", "Set the log level (trace|debug|info|warn|error|fatal) Can also be set via the PXE_SANDBOX_LOG_LEVEL environment variable")
	flag.IntVar(&c.Accounts, "accounts", pxetest.DefaultAccounts, "Number of registered test accounts")
	flag.Parse()

	if c.LogLevel == "" {
		c.LogLevel = os.Getenv("PXE_SANDBOX_LOG_LEVEL")
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	return
}

var log = Log()

var config *_config

func main() {
	config = &_config{}

	if err := config.Load(); err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	if err := SetLogLevel(config.LogLevel); err != nil {
		log.Fatal().Msgf("%+v", err)
	}
	log.Info().Msgf("setting log level to: '%s'", config.LogLevel)

	var db pxetest.Database = pxetest.NewInMemoryDatabase()
	if config.DatabasePath != "" {
		sqlite, err := pxetest.NewSqlLiteDatabase(config.DatabasePath)
		if err != nil {
			log.Fatal().Msgf("%+v", err)
		}
		db = sqlite
	}

	server, err := pxetest.NewServer(&pxetest.Options{
		Database: db,
		Accounts: config.Accounts,
	})
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	err = WriteAddressFile(config.AddressesFile, map[string]Address{
		TokenContractName: server.TokenAddress(),
	})
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}
	log.Info().Msgf("token deployed at %s, written to %s", server.TokenAddress(), config.AddressesFile)

	for i, account := range server.Accounts() {
		log.Info().Msgf("account %d: %s", i, account.Address)
	}

	go func() {
		if err := server.Start(config.Listen); err != nil {
			log.Fatal().Msgf("%+v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c

	log.Info().Msg("caught interrupt/terminate signal, attempting graceful shutdown...")

	if err = server.Stop(); err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	log.Info().Msg("graceful shutdown complete")
}
