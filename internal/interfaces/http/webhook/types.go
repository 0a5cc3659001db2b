package webhook

import (
	intakeapp "github.com/ps1339880-hash/webhook-visitor/internal/intake/application"
	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

type decodeErrorResponse struct {
	Error   string `json:"error"`
	Snippet string `json:"snippet"`
}

type destinationErrorResponse struct {
	Destination string `json:"destination"`
	Table       string `json:"table"`
	Rows        int    `json:"rows"`
	Error       string `json:"error"`
}

type sinkErrorResponse struct {
	intakeapp.Summary
	Errors []destinationErrorResponse `json:"errors"`
}

func newSinkErrorResponse(summary intakeapp.Summary, sinkErr *domain.SinkError) sinkErrorResponse {
	resp := sinkErrorResponse{
		Summary: summary,
		Errors:  make([]destinationErrorResponse, 0, len(sinkErr.Failures)),
	}
	for _, failure := range sinkErr.Failures {
		resp.Errors = append(resp.Errors, destinationErrorResponse{
			Destination: failure.Destination,
			Table:       failure.Table,
			Rows:        failure.Rows,
			Error:       failure.Err.Error(),
		})
	}
	return resp
}
