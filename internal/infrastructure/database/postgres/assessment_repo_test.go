package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-feature-engine/internal/domain/fraud"
	"fraud-feature-engine/internal/domain/transaction"
)

func TestAssessmentModelConversion(t *testing.T) {
	record := transaction.Record{
		ID:        uuid.New(),
		EntityID:  "U1",
		Timestamp: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		Amount:    123.45,
		Location:  "Delhi",
		Category:  "Travel",
	}
	a := fraud.NewAssessment(record, []fraud.Flag{
		{Type: fraud.FlagFastLocation, Reason: "Geospatial anomaly: travel too fast (ratio 6.90)."},
		{Type: fraud.FlagVelocity, Reason: "last gap 5s between consecutive transactions."},
	})
	a.SetRiskScore(decimal.NewFromFloat(64.2), "v1")

	m, err := assessmentToModel(a)
	require.NoError(t, err)
	assert.Equal(t, "flagged", m.Status)
	assert.Contains(t, m.Flags, `"Fast Location"`)

	back, err := modelToAssessment(&m)
	require.NoError(t, err)
	assert.Equal(t, a.Flags, back.Flags)
	assert.Equal(t, a.Status, back.Status)
	assert.Equal(t, a.Amount, back.Amount)
	assert.Equal(t, fraud.RiskLevelHigh, back.RiskLevel)
	assert.True(t, a.RiskScore.Equal(*back.RiskScore))
}

func TestDecodeFlags(t *testing.T) {
	flags, err := decodeFlags("")
	require.NoError(t, err)
	assert.Empty(t, flags)

	flags, err = decodeFlags("Velocity")
	require.NoError(t, err)
	assert.Equal(t, []fraud.Flag{{Type: fraud.FlagVelocity}}, flags)

	_, err = decodeFlags("[{broken")
	assert.Error(t, err)
}

func TestRecordModelConversion(t *testing.T) {
	label := 2
	r := transaction.Record{
		ID:        uuid.New(),
		EntityID:  "U1",
		Timestamp: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		Amount:    0.1,
		Location:  "Pune",
		Category:  "Food",
		Label:     &label,
	}

	m := recordToModel(r)
	assert.Equal(t, r, modelToRecord(&m))
}
