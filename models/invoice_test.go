package models

import (
	"encoding/json"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoicePatchDueDateNull(t *testing.T) {
	due := civil.Date{Year: 2024, Month: 6, Day: 24}
	inv := Invoice{PartyName: "Acme Traders", DueDate: &due}

	var patch InvoicePatch
	require.NoError(t, json.Unmarshal([]byte(`{"notes": "late"}`), &patch))
	assert.False(t, patch.ClearDueDate)
	require.NotNil(t, patch.Notes)
	assert.Equal(t, &due, patch.Apply(inv).DueDate)

	patch = InvoicePatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"due_date": null, "party_name": "Acme"}`), &patch))
	assert.True(t, patch.ClearDueDate)
	assert.Nil(t, patch.DueDate)
	next := patch.Apply(inv)
	assert.Nil(t, next.DueDate)
	assert.Equal(t, "Acme", next.PartyName)
	assert.NotNil(t, inv.DueDate)

	patch = InvoicePatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"due_date": "2024-07-01"}`), &patch))
	assert.False(t, patch.ClearDueDate)
	assert.Equal(t, civil.Date{Year: 2024, Month: 7, Day: 1}, *patch.Apply(inv).DueDate)

	assert.Error(t, json.Unmarshal([]byte(`{"due_date": "soon"}`), &patch))
}
