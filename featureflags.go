package main

import "github.com/Unleash/unleash-client-go/v3"

// featureOverrides short-circuits Unleash in tests; nil in production.
var featureOverrides map[string]bool

func featureEnabled(name string) bool {
	if featureOverrides != nil {
		return featureOverrides[name]
	}
	return unleash.IsEnabled(name, unleash.WithFallback(false))
}
