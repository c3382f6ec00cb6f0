package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/bakerhealth/baker-api/links"
	"github.com/bakerhealth/baker-api/models"
)

// linkUnavailable is the uniform respondent-facing message for every link or
// token failure, so callers can't probe which links exist or their state.
const linkUnavailable = "Link unavailable"

func postLinks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !featureEnabled("baker.api.post.links") {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !authorised(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req models.PostLink
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.Error{Error: "Invalid JSON in request body"})
		return
	}

	var ttl time.Duration
	if req.TTL != "" {
		var err error
		ttl, err = time.ParseDuration(req.TTL)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(models.Error{Error: "Invalid TTL " + req.TTL})
			return
		}
	}

	link, token, err := linksSvc.Issue(r.Context(), req.TenantID, req.AssessmentID, links.Policy{
		MaxUses:   req.MaxUses,
		Unlimited: req.Unlimited,
		TTL:       ttl,
	})
	if errors.Is(err, links.ErrInvalidPolicy) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.Error{Error: err.Error()})
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.Println("Error issuing link:", err.Error())
		json.NewEncoder(w).Encode(models.Error{Error: "Error issuing link: " + err.Error()})
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.LinkResponse{Data: *link, Token: token})
}

func getLink(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if !featureEnabled("baker.api.get.links") {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !authorised(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	tenantID := r.URL.Query().Get("tenantId")
	if tenantID == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.Error{Error: "No tenantId provided"})
		return
	}

	link, err := linksSvc.Get(r.Context(), tenantID, p.ByName("id"))
	if errors.Is(err, links.ErrLinkNotFound) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(models.Error{Error: "Link not found"})
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.Println("Error fetching link:", err.Error())
		json.NewEncoder(w).Encode(models.Error{Error: "Error fetching link: " + err.Error()})
		return
	}

	json.NewEncoder(w).Encode(models.LinkResponse{Data: *link})
}

func putLinkRevoke(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if !featureEnabled("baker.api.put.links.revoke") {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !authorised(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	tenantID := r.URL.Query().Get("tenantId")
	if tenantID == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.Error{Error: "No tenantId provided"})
		return
	}

	linkID := p.ByName("id")
	err := linksSvc.Revoke(r.Context(), tenantID, linkID)
	if errors.Is(err, links.ErrLinkNotFound) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(models.Error{Error: "Link not found"})
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.Println("Error revoking link:", err.Error())
		json.NewEncoder(w).Encode(models.Error{Error: "Error revoking link: " + err.Error()})
		return
	}

	link, err := linksSvc.Get(r.Context(), tenantID, linkID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.Println("Error fetching link after revoke:", err.Error())
		json.NewEncoder(w).Encode(models.Error{Error: "Error fetching link: " + err.Error()})
		return
	}
	json.NewEncoder(w).Encode(models.LinkResponse{Data: *link})
}

func postResolve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !featureEnabled("baker.api.post.respondent.resolve") {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	respondentTokenCheck(w, r, "resolve", linksSvc.Resolve)
}

func postRedeem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !featureEnabled("baker.api.post.respondent.redeem") {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	respondentTokenCheck(w, r, "redeem", linksSvc.Redeem)
}

func respondentTokenCheck(w http.ResponseWriter, r *http.Request, op string,
	check func(ctx context.Context, token string) (*models.AssessmentRef, error)) {
	if !allowRespondent(r) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(models.Error{Error: "Too many requests"})
		return
	}

	var req models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.Error{Error: "No token provided"})
		return
	}

	ref, err := check(r.Context(), req.Token)
	if err != nil {
		respondentFailure(w, op, err)
		return
	}
	json.NewEncoder(w).Encode(models.AssessmentRefResponse{Data: *ref})
}

// respondentFailure logs the real reason and answers with the uniform
// message. The status detail must never reach the respondent.
func respondentFailure(w http.ResponseWriter, op string, err error) {
	log.Println("Rejected respondent "+op+":", err.Error())
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(models.Error{Error: linkUnavailable})
}
