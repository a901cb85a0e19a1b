package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/krakend/dex-mcp-server/internal/config"
	"github.com/krakend/dex-mcp-server/internal/logging"
	"github.com/krakend/dex-mcp-server/tools"
)

const (
	version    = "0.1.0"
	serverName = "dex-mcp-server"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("%s version %s\n", serverName, version)
		os.Exit(0)
	}

	// DEX_CONFIG names the config file; unset means ./dex.yaml or
	// $HOME/.dex-mcp/dex.yaml when present, defaults otherwise.
	cfg, err := config.Load(os.Getenv("DEX_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serverName, err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol, so logs go to stderr
	log := logging.Stderr(cfg.Log.Level, serverName)
	log.Info().Str("version", version).Msg("Starting")

	server := createMCPServer(log)

	dex := tools.New(cfg, log)
	if err := dex.Load(); err != nil {
		log.Warn().Err(err).Msg("Creature index failed to load, will retry on first use")
	}
	dex.RegisterTools(server)
	defer func() {
		if err := dex.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing creature index")
		}
	}()

	log.Info().Msg("✓ Server ready and waiting for connections")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("Server error")
	}
}

func createMCPServer(log zerolog.Logger) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil,
	)
	log.Info().Str("server", serverName).Msg("Server initialized")
	return server
}
