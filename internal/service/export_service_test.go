package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schoolgate/pickup-api/internal/models"
	appErrors "github.com/schoolgate/pickup-api/pkg/errors"
)

func TestExportGenerateCSV(t *testing.T) {
	events := &fakeEventRepo{events: map[string]models.PickupEventDetail{
		"e1": {
			PickupEvent: models.PickupEvent{ID: "e1", ChildID: "c1", OccurredAt: time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC), PhotoURL: "/uploads/pickups/p.jpg"},
			ChildName:   "Mia",
			StaffName:   "Mr. Lee",
		},
	}}
	svc := NewExportService(events, nil, nil, zap.NewNop())

	result, err := svc.Generate(context.Background(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Payload)
	assert.Contains(t, body, "Time,Child,Staff,Notes,Photo")
	assert.Contains(t, body, "Mia")
	assert.Contains(t, body, "Mr. Lee")
}

func TestExportGeneratePDF(t *testing.T) {
	events := &fakeEventRepo{events: map[string]models.PickupEventDetail{}}
	svc := NewExportService(events, nil, nil, zap.NewNop())

	result, err := svc.Generate(context.Background(), FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Payload), "%PDF"))
}

func TestExportGenerateRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(&fakeEventRepo{}, nil, nil, zap.NewNop())

	_, err := svc.Generate(context.Background(), ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
