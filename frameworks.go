package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/bakerhealth/baker-api/models"
	"github.com/bakerhealth/baker-api/scoring"
)

func getFrameworks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !featureEnabled("baker.api.get.frameworks") {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !authorised(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	defs := registry.List()
	frameworks := models.Frameworks{Data: make([]models.FrameworkInfo, 0, len(defs))}
	for _, def := range defs {
		frameworks.Data = append(frameworks.Data, models.FrameworkInfo{
			Code:         def.Code,
			Version:      def.Version,
			Name:         def.Name,
			AssessmentID: def.AssessmentID,
		})
	}
	json.NewEncoder(w).Encode(frameworks)
}

func getFramework(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if !featureEnabled("baker.api.get.frameworks") {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !authorised(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	version, err := strconv.Atoi(p.ByName("version"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.Error{Error: "Invalid framework version " + p.ByName("version")})
		return
	}

	def, err := registry.Get(p.ByName("code"), version)
	if errors.Is(err, scoring.ErrUnknownFramework) || errors.Is(err, scoring.ErrUnknownVersion) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(models.Error{Error: err.Error()})
		return
	}
	json.NewEncoder(w).Encode(models.FrameworkResponse{Data: *def})
}
