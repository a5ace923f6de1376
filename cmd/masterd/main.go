// The masterd command is the entrypoint for running the master server: it
// parses its CLI flags, loads configuration, wires the session registry,
// channel directory, upstream client, and packet dispatcher together, and
// runs the TCP/UDP server instance until asked to shut down.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pellius-net/masterd/internal/core"
	"github.com/pellius-net/masterd/internal/dump"
	"github.com/pellius-net/masterd/internal/handler"
	"github.com/pellius-net/masterd/internal/masterserver"
	"github.com/pellius-net/masterd/internal/model"
	"github.com/pellius-net/masterd/internal/registry"
	"github.com/pellius-net/masterd/internal/upstream"
)

var configPath = "./"

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	hostname, exitCode := resolveHostname(opts, bufio.NewReader(os.Stdin), os.Stdout)
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	config, err := core.LoadConfig(configPath)
	if err != nil {
		fmt.Println("error loading configuration:", err)
		os.Exit(1)
	}
	if hostname != "" {
		config.Hostname = hostname
	}
	config.MasterPort = opts.masterPort
	config.HolepunchPort = opts.holepunch
	config.Debugging.LogPackets = opts.logPackets

	logger, err := core.NewLogger(config)
	if err != nil {
		fmt.Println("error initializing logger:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("masterd: shutdown signal received, draining connections")
		cancel()
	}()

	upstreamClient := upstream.New(
		config.UpstreamAddress(),
		time.Duration(config.Upstream.TimeoutSeconds)*time.Second,
		logger,
	)
	go upstreamClient.Probe().Run(ctx)

	var dumper *dump.Dumper
	if config.Debugging.LogPackets && config.Debugging.PacketDumpDir != "" {
		dumper, err = dump.New(config.Debugging.PacketDumpDir, logger)
		if err != nil {
			logger.Errorf("masterd: error initializing packet dumper: %s", err)
			os.Exit(1)
		}
		defer dumper.Close()
	}

	reg := registry.New()
	directory := model.NewDirectory(
		config.Channels.ServerCount,
		config.Channels.ChannelsPerServer,
		config.Room.Capacity,
	)

	dispatcher := &handler.Dispatcher{
		Logger:        logger,
		Registry:      reg,
		Directory:     directory,
		Upstream:      upstreamClient,
		HolepunchPort: uint16(config.HolepunchPort),
	}

	srv := &masterserver.Server{
		Address:       config.MasterAddress(),
		HolepunchAddr: config.HolepunchAddress(),
		Dispatcher:    dispatcher,
		Registry:      reg,
		Dumper:        dumper,
		Logger:        logger,
	}

	if err := srv.Start(ctx); err != nil {
		logger.Errorf("masterd: %s", err)
		os.Exit(1)
	}

	logger.Info("masterd: shut down")
}
