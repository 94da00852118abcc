package webapi

import (
	"time"

	"github.com/eomgitae/care-console/internal/history"
	"github.com/eomgitae/care-console/internal/models"
)

// ConsultationSummary is the API response for a consultation in the list.
type ConsultationSummary struct {
	No           int64            `json:"no"`
	SessionID    string           `json:"sessionId"`
	Script       string           `json:"script,omitempty"`
	AgentName    string           `json:"agentName"`
	CustomerName string           `json:"customerName"`
	Breakdown    models.Breakdown `json:"breakdown"`
	StartedAt    time.Time        `json:"startedAt"`
	EndedAt      time.Time        `json:"endedAt"`
	Duration     float64          `json:"duration"`
}

// ConsultationDetail adds participants and the transcript.
type ConsultationDetail struct {
	ConsultationSummary
	Agent      models.Agent        `json:"agent"`
	Customer   models.Customer     `json:"customer"`
	Messages   []models.Message    `json:"messages"`
	FactChecks []history.FactCheck `json:"factChecks"`
}

// ReportResponse is the severity breakdown of one consultation.
type ReportResponse struct {
	No              int64            `json:"no"`
	Breakdown       models.Breakdown `json:"breakdown"`
	HighestSeverity string           `json:"highestSeverity,omitempty"`
	Verdict         string           `json:"verdict"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func toSummary(c history.Consultation) ConsultationSummary {
	return ConsultationSummary{
		No:           c.No,
		SessionID:    c.SessionID,
		Script:       c.ScriptName,
		AgentName:    c.Agent.Name,
		CustomerName: c.Customer.Name,
		Breakdown:    c.Breakdown,
		StartedAt:    c.StartedAt,
		EndedAt:      c.EndedAt,
		Duration:     c.EndedAt.Sub(c.StartedAt).Seconds(),
	}
}

func toDetail(c history.Consultation) ConsultationDetail {
	d := ConsultationDetail{
		ConsultationSummary: toSummary(c),
		Agent:               c.Agent,
		Customer:            c.Customer,
		Messages:            c.Messages,
		FactChecks:          c.FactChecks,
	}
	if d.Messages == nil {
		d.Messages = []models.Message{}
	}
	if d.FactChecks == nil {
		d.FactChecks = []history.FactCheck{}
	}
	return d
}
