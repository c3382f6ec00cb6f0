package main

import (
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/bakerhealth/baker-api/links"
	"github.com/bakerhealth/baker-api/scoring"
	"github.com/bakerhealth/baker-api/storage"
)

var router *httprouter.Router
var resp *httptest.ResponseRecorder

var testWg sync.WaitGroup

var allFeatures = []string{
	"baker.api.post.links",
	"baker.api.get.links",
	"baker.api.put.links.revoke",
	"baker.api.get.frameworks",
	"baker.api.post.respondent.resolve",
	"baker.api.post.respondent.redeem",
	"baker.api.post.respondent.responses",
}

func setup() {
	viper.Reset()
	setDefaults()
	// Generous ceiling so only the rate limit tests can trip it
	viper.Set("respondent_rate_limit", 1000.0)
	viper.Set("respondent_rate_burst", 1000)
	// Notification delivery is opted into per test
	viper.Set("notify_svc", "")

	store = storage.NewMemory()
	registry = scoring.NewRegistry()
	if err := scoring.RegisterSeed(registry); err != nil {
		panic(err)
	}
	linksSvc = links.NewService(store, newCodecFromConfig(), viper.GetDuration("token_ttl"))
	resetLimiters()

	featureOverrides = map[string]bool{}
	for _, name := range allFeatures {
		featureOverrides[name] = true
	}

	router = httprouter.New()
	resp = httptest.NewRecorder()
	addRoutes(router)
}

func toggleFeature(name string, enabled bool) {
	featureOverrides[name] = enabled
}

func TestStartServer(t *testing.T) {
	setup()
	testWg.Add(1)
	srv := startServer(router, &testWg)
	assert.Equal(t, ":"+viper.GetString("port"), srv.Addr)
	srv.Close()
}
