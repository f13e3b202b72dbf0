//	@title			Screenpair API
//	@version		1.0
//	@description	Digital signage screen activation and device binding
//	@BasePath		/

//	@securityDefinitions.apikey	SessionAuth
//	@in							cookie
//	@name						screenpair_session
//	@description				Session cookie for logged-in owners

//	@securityDefinitions.apikey	DeviceToken
//	@in							header
//	@name						X-Device-Token
//	@description				Token issued to a bound player device

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-authgate/screenpair/internal/bootstrap"
	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/logger"
	"github.com/go-authgate/screenpair/internal/version"

	"github.com/rs/zerolog/log"
)

func main() {
	// Define flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		version.Fprint(os.Stdout)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "server":
		runServer()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [OPTIONS] COMMAND\n\n", os.Args[0])
	fmt.Println("Device activation and binding service for digital signage screens")
	fmt.Println("\nCommands:")
	fmt.Println("  server    Start the pairing server")
	fmt.Println("\nOptions:")
	fmt.Println("  -v, --version    Show version information")
	fmt.Println("  -h, --help       Show this help message")
}

func runServer() {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogPretty)

	log.Info().Str("version", version.String()).Msg("starting")
	if err := bootstrap.Run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
