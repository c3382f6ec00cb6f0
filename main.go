package main

import (
	"database/sql"
	"log"
	"net/http"
	"sync"

	"github.com/Unleash/unleash-client-go/v3"
	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	_ "github.com/lib/pq"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bakerhealth/baker-api/links"
	"github.com/bakerhealth/baker-api/scoring"
	"github.com/bakerhealth/baker-api/storage"
	"github.com/bakerhealth/baker-api/tokens"
)

var db *sql.DB
var store storage.Store
var registry *scoring.Registry
var linksSvc *links.Service

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}
	setDefaults()
	viper.AutomaticEnv()

	if logFile := viper.GetString("log_file"); logFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50,
			MaxBackups: 10,
			MaxAge:     28,
		})
	}

	err := unleash.Initialize(
		unleash.WithListener(BasicListener{}),
		unleash.WithAppName(viper.GetString("service_name")),
		unleash.WithUrl(viper.GetString("unleash_path")))
	if err != nil {
		log.Println("Error initialising Unleash:", err.Error())
	}

	db, err = sql.Open("postgres", viper.GetString("database_url"))
	if err != nil {
		log.Fatal("Error opening a DB connection: ", err.Error())
	}
	store = storage.NewPostgres(db)

	registry = scoring.NewRegistry()
	if err := scoring.RegisterSeed(registry); err != nil {
		log.Fatal("Error registering scoring frameworks: ", err.Error())
	}

	linksSvc = links.NewService(store, newCodecFromConfig(), viper.GetDuration("token_ttl"))
	resetLimiters()

	router := httprouter.New()
	addRoutes(router)

	var wg sync.WaitGroup
	wg.Add(1)
	startServer(router, &wg)
	wg.Wait()
}

// newCodecFromConfig builds the token codec with a key resolver over the
// configured secret map, so versions in their rotation grace window stay
// resolvable alongside the current one.
func newCodecFromConfig() *tokens.Codec {
	secrets := viper.GetStringMapString("token_secrets")
	return &tokens.Codec{
		CurrentVersion: viper.GetString("token_current_kid"),
		Resolve: func(version string) ([]byte, error) {
			secret, ok := secrets[version]
			if !ok {
				return nil, tokens.ErrUnknownSecretVersion
			}
			return []byte(secret), nil
		},
	}
}

func startServer(router *httprouter.Router, wg *sync.WaitGroup) *http.Server {
	srv := &http.Server{
		Addr:    ":" + viper.GetString("port"),
		Handler: router,
	}
	go func() {
		defer wg.Done()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Println("Error starting the HTTP server:", err.Error())
		}
	}()
	return srv
}
