package handler

import (
	"strings"
	"time"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/service"
	"taxfile/internal/filing/wizard"
	id "taxfile/pkg/domain"
	dErrors "taxfile/pkg/domain-errors"
)

type startRequest struct {
	FilingID string `json:"filing_id,omitempty"`

	filingID *id.FilingID
}

func (r *startRequest) Validate() error {
	raw := strings.TrimSpace(r.FilingID)
	if raw == "" {
		return nil
	}
	fid, err := id.ParseFilingID(raw)
	if err != nil || fid.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "filing_id must be a UUID")
	}
	r.filingID = &fid
	return nil
}

type setFieldRequest struct {
	Value any `json:"value"`
}

func (r *setFieldRequest) Validate() error { return nil }

type toggleRequest struct {
	ID       string `json:"id"`
	Included *bool  `json:"included"`
}

func (r *toggleRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	if r.Included == nil {
		return dErrors.New(dErrors.CodeBadRequest, "included is required")
	}
	return nil
}

type gotoRequest struct {
	Index *int `json:"index"`
}

func (r *gotoRequest) Validate() error {
	if r.Index == nil {
		return dErrors.New(dErrors.CodeBadRequest, "index is required")
	}
	return nil
}

type stepResponse struct {
	Index  int            `json:"index"`
	Label  string         `json:"label"`
	Reads  []models.Field `json:"reads"`
	Writes []models.Field `json:"writes"`
}

func toStepsResponse(steps []wizard.StepDefinition) []stepResponse {
	out := make([]stepResponse, 0, len(steps))
	for _, s := range steps {
		out = append(out, stepResponse{
			Index:  int(s.ID),
			Label:  s.Label,
			Reads:  s.Reads,
			Writes: s.Writes,
		})
	}
	return out
}

type snapshotResponse struct {
	SessionID   string               `json:"session_id"`
	FilingID    string               `json:"filing_id"`
	CurrentStep int                  `json:"current_step"`
	Label       string               `json:"label"`
	IsLast      bool                 `json:"is_last"`
	Submitting  bool                 `json:"submitting"`
	Validated   []int                `json:"validated"`
	Values      map[models.Field]any `json:"values"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func toSnapshotResponse(snap *service.Snapshot) snapshotResponse {
	validated := make([]int, 0, len(snap.Validated))
	for _, step := range snap.Validated {
		validated = append(validated, int(step))
	}
	return snapshotResponse{
		SessionID:   snap.SessionID.String(),
		FilingID:    snap.FilingID.String(),
		CurrentStep: int(snap.Current),
		Label:       snap.Label,
		IsLast:      snap.IsLast,
		Submitting:  snap.Submitting,
		Validated:   validated,
		Values:      snap.Values,
		CreatedAt:   snap.CreatedAt,
		UpdatedAt:   snap.UpdatedAt,
	}
}
