package workflow

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amoghku/marketplace-pim/internal/models"
)

// VPPEntry is one raw value-per-point override, as read from storage or a request.
// Value may be any number kind, a numeric string, or a decimal.
type VPPEntry struct {
	Currency     *models.Currency
	SalesChannel *models.SalesChannel
	Value        interface{}
}

// NormalizedVPP is the canonical form shared by approval diffs and sync payloads.
type NormalizedVPP struct {
	CurrencyID       *uuid.UUID `json:"currency_id"`
	CurrencyCode     string     `json:"currency_code"`
	CurrencyName     *string    `json:"currency_name"`
	CurrencySymbol   *string    `json:"currency_symbol"`
	SalesChannelID   uuid.UUID  `json:"sales_channel_id"`
	SalesChannelName *string    `json:"sales_channel_name"`
	Value            float64    `json:"value"`
}

// EntriesFromModels adapts stored overrides. Relations that were not preloaded
// fall back to a stub carrying only the foreign key.
func EntriesFromModels(rows []models.ValuePerPoint) []VPPEntry {
	entries := make([]VPPEntry, 0, len(rows))
	for _, row := range rows {
		entry := VPPEntry{
			Currency:     row.Currency,
			SalesChannel: row.SalesChannel,
			Value:        row.VPP,
		}
		if entry.SalesChannel == nil && row.SalesChannelID != nil {
			entry.SalesChannel = &models.SalesChannel{BaseModel: models.BaseModel{ID: *row.SalesChannelID}}
		}
		entries = append(entries, entry)
	}
	return entries
}

// NormalizeValuePerPoints validates, deduplicates and sorts overrides.
//
// Entries without a currency code, a sales channel id or a finite value are
// dropped. The key is the uppercased currency code plus the sales channel id and
// the last entry for a key wins. Output is ordered by currency code, then by the
// string form of the sales channel id, and is never nil.
func NormalizeValuePerPoints(entries []VPPEntry) []NormalizedVPP {
	deduped := make(map[string]NormalizedVPP, len(entries))

	for _, entry := range entries {
		if entry.Currency == nil || entry.SalesChannel == nil {
			continue
		}

		code := strings.ToUpper(strings.TrimSpace(entry.Currency.Code))
		channelID := entry.SalesChannel.ID
		value, ok := CoerceValue(entry.Value)
		if code == "" || channelID == uuid.Nil || !ok {
			continue
		}

		deduped[code+"::"+channelID.String()] = NormalizedVPP{
			CurrencyID:       optionalID(entry.Currency.ID),
			CurrencyCode:     code,
			CurrencyName:     optionalString(entry.Currency.Name),
			CurrencySymbol:   optionalString(entry.Currency.Symbol),
			SalesChannelID:   channelID,
			SalesChannelName: optionalString(entry.SalesChannel.Name),
			Value:            value,
		}
	}

	normalized := make([]NormalizedVPP, 0, len(deduped))
	for _, item := range deduped {
		normalized = append(normalized, item)
	}

	sort.Slice(normalized, func(i, j int) bool {
		if normalized[i].CurrencyCode != normalized[j].CurrencyCode {
			return normalized[i].CurrencyCode < normalized[j].CurrencyCode
		}
		return normalized[i].SalesChannelID.String() < normalized[j].SalesChannelID.String()
	})

	return normalized
}

// CoerceValue accepts finite numbers and strings that trim to a finite number.
func CoerceValue(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case decimal.Decimal:
		return v.InexactFloat64(), true
	case *decimal.Decimal:
		if v == nil {
			return 0, false
		}
		return v.InexactFloat64(), true
	case decimal.NullDecimal:
		if !v.Valid {
			return 0, false
		}
		return v.Decimal.InexactFloat64(), true
	case json.Number:
		return parseNumeric(v.String())
	case string:
		return parseNumeric(v)
	default:
		return 0, false
	}
}

func parseNumeric(s string) (float64, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, false
	}
	return finite(d.InexactFloat64())
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
