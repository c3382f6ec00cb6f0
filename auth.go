package main

import (
	"net/http"

	"github.com/spf13/viper"
)

// authorised checks basic auth on the clinician API. Respondent endpoints
// never use this - a valid link token is their only credential.
func authorised(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	return ok &&
		user == viper.GetString("security_user_name") &&
		pass == viper.GetString("security_user_password")
}
