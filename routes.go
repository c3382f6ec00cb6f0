package main

import "github.com/julienschmidt/httprouter"

func addRoutes(router *httprouter.Router) {
	router.GET("/v2/info/", info)

	// Clinician API, basic auth
	router.POST("/v2/links", postLinks)
	router.GET("/v2/links/:id", getLink)
	router.PUT("/v2/links/:id/revoke", putLinkRevoke)
	router.GET("/v2/frameworks", getFrameworks)
	router.GET("/v2/frameworks/:code/:version", getFramework)

	// Respondent API, token is the only credential
	router.POST("/v2/respondent/resolve", postResolve)
	router.POST("/v2/respondent/redeem", postRedeem)
	router.POST("/v2/respondent/responses", postResponses)
}
