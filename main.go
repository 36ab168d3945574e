package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"boerenbridge.com/server/apiserver"
	"boerenbridge.com/server/history"
	"boerenbridge.com/server/internal"
	"boerenbridge.com/server/logging"
	"boerenbridge.com/server/manager"
	"boerenbridge.com/server/nats"
	"boerenbridge.com/server/persist"
	"boerenbridge.com/server/rest"
	"boerenbridge.com/server/test"
	"boerenbridge.com/server/util"
)

var runServer *bool
var runGameScriptTests *bool
var gameScriptsFileOrDir *string
var serverConfigFile *string
var testName *string
var mainLogger = logging.GetZeroLogger("main::main", nil)

func init() {
	runServer = flag.Bool("server", true, "runs score server")
	runGameScriptTests = flag.Bool("script-tests", false, "runs script tests")
	gameScriptsFileOrDir = flag.String("game-script", "test/game-scripts", "runs tests with game script files")
	serverConfigFile = flag.String("config", "server.yaml", "YAML file containing server limits and timeouts")
	testName = flag.String("testname", "", "runs a specific test")
}

func main() {
	err := run()
	if err != nil {
		mainLogger.Error().Msg(err.Error())
		os.Exit(1)
	}
}

func run() error {
	logLevel := util.Env.GetZeroLogLevel()
	fmt.Printf("Setting log level to %s\n", logLevel)
	zerolog.SetGlobalLevel(logLevel)
	flag.Parse()

	if *runGameScriptTests {
		return testScripts()
	}
	if !*runServer {
		return nil
	}

	config, err := util.ParseServerConfig(*serverConfigFile)
	if err != nil {
		return errors.Wrap(err, "Error while parsing server config")
	}
	return runScoreServer(config)
}

func runScoreServer(config util.ServerConfig) error {
	persistState, err := newPersist()
	if err != nil {
		return err
	}

	var recorder history.Recorder
	var lister rest.GameLister
	switch util.Env.GetRecorder() {
	case util.RecorderAPI:
		apiServerURL := util.Env.GetApiServerUrl()
		mainLogger.Info().Msgf("Recording games through the API server at %s", apiServerURL)
		recorder = apiserver.NewClient(apiServerURL)
	case util.RecorderPostgres:
		pg, err := history.NewPostgresRecorder(internal.GetHistoryConnStr())
		if err != nil {
			return errors.Wrap(err, "Error while connecting to the history database")
		}
		defer pg.Close()
		if err := pg.Migrate(context.Background()); err != nil {
			return errors.Wrap(err, "Error while creating the history tables")
		}
		mainLogger.Info().Msg("Recording games in PostgreSQL")
		recorder = pg
		lister = pg
	default:
		mainLogger.Warn().Msg("No recorder configured. Games are not kept after they end.")
	}

	var notifier manager.Notifier
	if natsURL := util.Env.GetNatsURL(); natsURL != "" {
		mainLogger.Info().Msgf("NATS URL: %s", natsURL)
		publisher, err := nats.NewPublisher(natsURL)
		if err != nil {
			return errors.Wrap(err, "Error while connecting to NATS")
		}
		defer publisher.Close()
		notifier = publisher
	}

	gameManager, err := manager.NewManager(config, recorder, persistState, notifier)
	if err != nil {
		return errors.Wrap(err, "Error while creating game manager")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go gameManager.RunEviction(ctx, config.EvictionInterval(), config.IdleGameTimeout())

	server := rest.NewServer(gameManager, lister)
	return server.Run(strconv.Itoa(util.Env.GetRestPort()))
}

func newPersist() (persist.PersistGameState, error) {
	switch util.Env.GetPersistMethod() {
	case util.PersistRedis:
		redisURL := fmt.Sprintf("%s:%d", util.Env.GetRedisHost(), util.Env.GetRedisPort())
		mainLogger.Info().Msgf("Keeping game snapshots in redis at %s", redisURL)
		return persist.NewRedisGameStateTracker(redisURL, util.Env.GetRedisPW(), util.Env.GetRedisDB()), nil
	case util.PersistMemory:
		return persist.NewMemoryGameStateTracker(), nil
	}
	return nil, fmt.Errorf("Unknown persist method %s", util.Env.GetPersistMethod())
}

func testScripts() error {
	if *gameScriptsFileOrDir != "" {
		err := test.RunGameScriptTests(*gameScriptsFileOrDir, *testName)
		if err != nil {
			return err
		}
	}
	return nil
}
