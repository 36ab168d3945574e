package util

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"boerenbridge.com/server/logging"
)

var environmentLogger = log.With().Str("logger_name", "util::environment").Logger()

const (
	PersistMemory = "memory"
	PersistRedis  = "redis"

	RecorderNone     = "none"
	RecorderAPI      = "api"
	RecorderPostgres = "postgres"
)

type scoreServerEnvironment struct {
	PersistMethod   string
	RedisHost       string
	RedisPort       string
	RedisPW         string
	RedisDB         string
	Recorder        string
	APIServerUrl    string
	PostgresHost    string
	PostgresPort    string
	PostgresDB      string
	PostgresUser    string
	PostgresPW      string
	PostgresSSLMode string
	NatsURL         string
	RestPort        string
	LogLevel        string
}

// Env is a helper object for accessing environment variables.
var Env = &scoreServerEnvironment{
	PersistMethod:   "PERSIST_METHOD",
	RedisHost:       "REDIS_HOST",
	RedisPort:       "REDIS_PORT",
	RedisPW:         "REDIS_PW",
	RedisDB:         "REDIS_DB",
	Recorder:        "RECORDER",
	APIServerUrl:    "API_SERVER_URL",
	PostgresHost:    "POSTGRES_HOST",
	PostgresPort:    "POSTGRES_PORT",
	PostgresDB:      "POSTGRES_DB",
	PostgresUser:    "POSTGRES_USER",
	PostgresPW:      "POSTGRES_PASSWORD",
	PostgresSSLMode: "POSTGRES_SSL_MODE",
	NatsURL:         "NATS_URL",
	RestPort:        "REST_PORT",
	LogLevel:        "LOG_LEVEL",
}

func (e *scoreServerEnvironment) required(name string) string {
	v := os.Getenv(name)
	if v == "" {
		msg := fmt.Sprintf("%s is not defined", name)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return v
}

func (e *scoreServerEnvironment) requiredInt(name string) int {
	v := e.required(name)
	n, err := strconv.Atoi(v)
	if err != nil {
		msg := fmt.Sprintf("Invalid %s %s", name, v)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return n
}

func (e *scoreServerEnvironment) GetPersistMethod() string {
	method := os.Getenv(e.PersistMethod)
	if method == "" {
		return PersistMemory
	}
	if method != PersistMemory && method != PersistRedis {
		msg := fmt.Sprintf("Invalid %s %s", e.PersistMethod, method)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return method
}

func (e *scoreServerEnvironment) GetRedisHost() string {
	return e.required(e.RedisHost)
}

func (e *scoreServerEnvironment) GetRedisPort() int {
	return e.requiredInt(e.RedisPort)
}

func (e *scoreServerEnvironment) GetRedisPW() string {
	return os.Getenv(e.RedisPW)
}

func (e *scoreServerEnvironment) GetRedisDB() int {
	if os.Getenv(e.RedisDB) == "" {
		return 0
	}
	return e.requiredInt(e.RedisDB)
}

func (e *scoreServerEnvironment) GetRecorder() string {
	recorder := os.Getenv(e.Recorder)
	switch recorder {
	case "":
		return RecorderNone
	case RecorderNone, RecorderAPI, RecorderPostgres:
		return recorder
	}
	msg := fmt.Sprintf("Invalid %s %s", e.Recorder, recorder)
	environmentLogger.Error().Msg(msg)
	panic(msg)
}

func (e *scoreServerEnvironment) GetApiServerUrl() string {
	return e.required(e.APIServerUrl)
}

func (e *scoreServerEnvironment) GetPostgresHost() string {
	return e.required(e.PostgresHost)
}

func (e *scoreServerEnvironment) GetPostgresPort() int {
	if os.Getenv(e.PostgresPort) == "" {
		return 5432
	}
	return e.requiredInt(e.PostgresPort)
}

func (e *scoreServerEnvironment) GetPostgresUser() string {
	return e.required(e.PostgresUser)
}

func (e *scoreServerEnvironment) GetPostgresPW() string {
	return e.required(e.PostgresPW)
}

func (e *scoreServerEnvironment) GetPostgresDB() string {
	db := os.Getenv(e.PostgresDB)
	if db == "" {
		return "scores"
	}
	return db
}

func (e *scoreServerEnvironment) GetPostgresSSLMode() string {
	mode := os.Getenv(e.PostgresSSLMode)
	if mode == "" {
		return "disable"
	}
	return mode
}

// GetNatsURL returns an empty string when game updates are not published.
func (e *scoreServerEnvironment) GetNatsURL() string {
	return os.Getenv(e.NatsURL)
}

func (e *scoreServerEnvironment) GetRestPort() int {
	if os.Getenv(e.RestPort) == "" {
		return 8080
	}
	return e.requiredInt(e.RestPort)
}

func (e *scoreServerEnvironment) GetZeroLogLevel() zerolog.Level {
	return logging.ParseLevel(os.Getenv(e.LogLevel))
}
