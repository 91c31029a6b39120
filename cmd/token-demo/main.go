package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	. "github.com/alexdcox/aztec-go"
	"github.com/alexdcox/aztec-go/demo"
	"github.com/alexdcox/aztec-go/rpcclient"
)

var log = Log()

func run(ctx context.Context) (err error) {
	config, err := LoadConfig()
	if err != nil {
		return
	}

	if err = SetLogLevel(config.LogLevel); err != nil {
		return
	}

	log.Debug().Msgf("pxe %s, addresses from %s", config.PxeUrl, config.AddressesFile)

	client, err := rpcclient.NewRpcClient(config.PxeUrl)
	if err != nil {
		return
	}

	locator, err := NewTokenLocator(NewFileAddressBook(config.AddressesFile))
	if err != nil {
		return
	}

	runner, err := demo.NewRunner(client, &demo.Options{
		Out:     os.Stdout,
		Locator: locator,
		Wait:    config.WaitOpts(),
	})
	if err != nil {
		return
	}

	return runner.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error().Msgf("Error in app: %v", err)
		log.Debug().Msgf("stack:\n%s", StackTracerMessage(err))
		stop()
		os.Exit(1)
	}
}
