package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/bakerhealth/baker-api/models"
	"github.com/bakerhealth/baker-api/scoring"
)

// postResponses takes a completed answer set from a respondent, scores it
// against the assessment's framework and stores the result. Answers are
// validated before the link use is consumed, so a correctable mistake never
// costs the respondent their only use.
func postResponses(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !featureEnabled("baker.api.post.respondent.responses") {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !allowRespondent(r) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(models.Error{Error: "Too many requests"})
		return
	}

	var req models.PostResponses
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.Error{Error: "No token provided"})
		return
	}

	ref, err := linksSvc.Resolve(r.Context(), req.Token)
	if err != nil {
		respondentFailure(w, "submission", err)
		return
	}

	def, err := registry.GetByAssessment(ref.AssessmentID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.Println("No framework registered for assessment "+ref.AssessmentID+":", err.Error())
		json.NewEncoder(w).Encode(models.Error{Error: "Assessment cannot be scored"})
		return
	}

	result, err := scoring.Score(def, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, scoring.ErrIncompleteAnswers),
			errors.Is(err, scoring.ErrInvalidAnswer),
			errors.Is(err, scoring.ErrUnknownItem):
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(models.Error{Error: err.Error()})
		default:
			// Definition integrity bug. Report to operators, never to respondents.
			w.WriteHeader(http.StatusInternalServerError)
			log.Println("Scoring definition integrity failure for "+def.Code+":", err.Error())
			json.NewEncoder(w).Encode(models.Error{Error: "Assessment cannot be scored"})
		}
		return
	}

	if _, err := linksSvc.Redeem(r.Context(), req.Token); err != nil {
		respondentFailure(w, "submission", err)
		return
	}

	result.AssessmentInstanceID = uuid.New().String()
	result.TenantID = ref.TenantID
	result.LinkID = ref.LinkID
	result.ComputedAt = time.Now().UTC()

	if err := store.InsertScoreResult(r.Context(), result); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.Println("Error storing score result:", err.Error())
		json.NewEncoder(w).Encode(models.Error{Error: "Error storing score result: " + err.Error()})
		return
	}

	notifyScored(result)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.ScoreResultResponse{Data: *result})
}
