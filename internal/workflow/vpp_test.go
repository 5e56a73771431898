package workflow_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoghku/marketplace-pim/internal/models"
	"github.com/amoghku/marketplace-pim/internal/workflow"
)

func currency(code string) *models.Currency {
	return &models.Currency{BaseModel: models.BaseModel{ID: uuid.New()}, Code: code}
}

func channel(id string, name string) *models.SalesChannel {
	return &models.SalesChannel{BaseModel: models.BaseModel{ID: uuid.MustParse(id)}, Name: name}
}

func TestNormalizeValuePerPoints_LastEntryWinsPerKey(t *testing.T) {
	inr := currency("inr")
	web := channel("00000000-0000-0000-0000-000000000001", "Web")

	normalized := workflow.NormalizeValuePerPoints([]workflow.VPPEntry{
		{Currency: inr, SalesChannel: web, Value: 1.5},
		{Currency: &models.Currency{BaseModel: inr.BaseModel, Code: "INR"}, SalesChannel: web, Value: "2.25"},
	})

	require.Len(t, normalized, 1)
	assert.Equal(t, "INR", normalized[0].CurrencyCode)
	assert.Equal(t, 2.25, normalized[0].Value)
	assert.Equal(t, web.ID, normalized[0].SalesChannelID)
	require.NotNil(t, normalized[0].SalesChannelName)
	assert.Equal(t, "Web", *normalized[0].SalesChannelName)
	assert.Nil(t, normalized[0].CurrencyName)
}

func TestNormalizeValuePerPoints_SortsByCurrencyThenChannel(t *testing.T) {
	first := channel("00000000-0000-0000-0000-000000000001", "")
	second := channel("00000000-0000-0000-0000-000000000002", "")

	normalized := workflow.NormalizeValuePerPoints([]workflow.VPPEntry{
		{Currency: currency("USD"), SalesChannel: first, Value: 1},
		{Currency: currency("INR"), SalesChannel: second, Value: 2},
		{Currency: currency("INR"), SalesChannel: first, Value: 3},
	})

	require.Len(t, normalized, 3)
	assert.Equal(t, []string{"INR", "INR", "USD"}, []string{normalized[0].CurrencyCode, normalized[1].CurrencyCode, normalized[2].CurrencyCode})
	assert.Equal(t, first.ID, normalized[0].SalesChannelID)
	assert.Equal(t, second.ID, normalized[1].SalesChannelID)
}

func TestNormalizeValuePerPoints_DropsInvalidEntries(t *testing.T) {
	web := channel("00000000-0000-0000-0000-000000000001", "Web")

	normalized := workflow.NormalizeValuePerPoints([]workflow.VPPEntry{
		{Currency: nil, SalesChannel: web, Value: 1},
		{Currency: currency("  "), SalesChannel: web, Value: 1},
		{Currency: currency("INR"), SalesChannel: nil, Value: 1},
		{Currency: currency("INR"), SalesChannel: &models.SalesChannel{}, Value: 1},
		{Currency: currency("INR"), SalesChannel: web, Value: "abc"},
		{Currency: currency("INR"), SalesChannel: web, Value: math.NaN()},
		{Currency: currency("INR"), SalesChannel: web, Value: nil},
	})

	require.NotNil(t, normalized)
	assert.Empty(t, normalized)
}

func TestNormalizeValuePerPoints_IsDeterministic(t *testing.T) {
	web := channel("00000000-0000-0000-0000-000000000001", "Web")
	app := channel("00000000-0000-0000-0000-000000000002", "App")
	inr, usd := currency("INR"), currency("USD")

	a := workflow.NormalizeValuePerPoints([]workflow.VPPEntry{
		{Currency: usd, SalesChannel: app, Value: 1},
		{Currency: inr, SalesChannel: web, Value: 2},
	})
	b := workflow.NormalizeValuePerPoints([]workflow.VPPEntry{
		{Currency: inr, SalesChannel: web, Value: 2},
		{Currency: usd, SalesChannel: app, Value: 1},
	})

	left, err := json.Marshal(a)
	require.NoError(t, err)
	right, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(left), string(right))
}

func TestEntriesFromModels_StubsMissingSalesChannel(t *testing.T) {
	channelID := uuid.New()
	entries := workflow.EntriesFromModels([]models.ValuePerPoint{{
		Currency:       currency("INR"),
		SalesChannelID: &channelID,
		VPP:            decimal.RequireFromString("0.75"),
	}})

	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].SalesChannel)
	assert.Equal(t, channelID, entries[0].SalesChannel.ID)

	normalized := workflow.NormalizeValuePerPoints(entries)
	require.Len(t, normalized, 1)
	assert.Equal(t, 0.75, normalized[0].Value)
}

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  float64
		ok    bool
	}{
		{"float", 1.25, 1.25, true},
		{"int", 3, 3, true},
		{"numeric string", " 4.5 ", 4.5, true},
		{"decimal", decimal.RequireFromString("2.5"), 2.5, true},
		{"json number", json.Number("7"), 7, true},
		{"blank string", "   ", 0, false},
		{"garbage string", "abc", 0, false},
		{"infinity", math.Inf(1), 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := workflow.CoerceValue(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
