package main

import (
	"net"
	"net/http"
	"sync"

	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

// Respondent endpoints are reachable without an account, so they get a
// per-client token bucket to slow down link guessing.
var limiterMu sync.Mutex
var limiters map[string]*rate.Limiter

func resetLimiters() {
	limiterMu.Lock()
	limiters = map[string]*rate.Limiter{}
	limiterMu.Unlock()
}

func allowRespondent(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	limiterMu.Lock()
	limiter, ok := limiters[host]
	if !ok {
		limiter = rate.NewLimiter(
			rate.Limit(viper.GetFloat64("respondent_rate_limit")),
			viper.GetInt("respondent_rate_burst"))
		limiters[host] = limiter
	}
	limiterMu.Unlock()
	return limiter.Allow()
}
