package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairReport_Counts(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := &RepairReport{
		StartedAt:         start,
		CompletedAt:       start.Add(1500 * time.Millisecond),
		AnomaliesFound:    5,
		AnomaliesRepaired: 3,
	}

	assert.Equal(t, 2, r.Unrepaired())
	assert.Equal(t, 1500*time.Millisecond, r.Duration())
}

func TestAnomalyRecord_OmitsEmptyRepairFields(t *testing.T) {
	rec := AnomalyRecord{
		Line:     6,
		FaceLine: 10,
		Slot:     1,
		Status:   StatusSkipped,
		Original: "vt #QNAN #QNAN",
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	assert.Equal(t, "skipped", fields["status"])
	assert.NotContains(t, fields, "replacement")
	assert.NotContains(t, fields, "source_line")
	assert.NotContains(t, fields, "threshold")
	assert.NotContains(t, fields, "error")
	assert.Contains(t, fields, "cycles")
}
