package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/viper"

	"github.com/bakerhealth/baker-api/models"
)

// notifyScored tells the notification service a submission has been scored.
// Delivery problems are logged and swallowed - the respondent's submission
// already succeeded and must not fail on housekeeping.
func notifyScored(result *models.ScoreResult) {
	base := viper.GetString("notify_svc")
	if base == "" {
		return
	}

	notification := models.Notification{
		Event:                "assessment.scored",
		TenantID:             result.TenantID,
		LinkID:               result.LinkID,
		AssessmentInstanceID: result.AssessmentInstanceID,
	}
	body, err := json.Marshal(notification)
	if err != nil {
		log.Println("Error encoding notification for link "+result.LinkID+":", err.Error())
		return
	}

	resp, err := http.Post(base+"/notifications", "application/json", bytes.NewBuffer(body))
	if err != nil {
		log.Println("Error notifying scored submission for link "+result.LinkID+":", err.Error())
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Println("Error notifying scored submission for link " + result.LinkID + ": " +
			fmt.Sprintf("Received status code %d from notify service", resp.StatusCode))
	}
}
