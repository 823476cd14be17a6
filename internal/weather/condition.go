package weather

import (
	"strings"

	"github.com/mizukake/tenki/internal/models"
)

// synonymEntry pairs a provider description with its normalized condition.
// The table lives in a slice, not a map: substring matching walks it in
// order and the first hit wins, so entry order is part of the contract.
type synonymEntry struct {
	raw       string
	condition models.Condition
}

var synonymTable = []synonymEntry{
	// 晴れ系
	{"晴れ", models.ConditionClear},
	{"晴天", models.ConditionClear},
	{"快晴", models.ConditionClear},
	// 曇り系
	{"曇り", models.ConditionCloudy},
	{"薄い雲", models.ConditionCloudy},
	{"厚い雲", models.ConditionCloudy},
	{"雲", models.ConditionCloudy},
	// 雨系
	{"雨", models.ConditionRain},
	{"小雨", models.ConditionRain},
	{"大雨", models.ConditionRain},
	{"にわか雨", models.ConditionRain},
	{"霧雨", models.ConditionRain},
	{"雷雨", models.ConditionStorm},
	{"雷", models.ConditionStorm},
	// 雪系
	{"雪", models.ConditionSnow},
	{"小雪", models.ConditionSnow},
	{"大雪", models.ConditionSnow},
	{"みぞれ", models.ConditionSnow},
	// 霧・もや系
	{"霧", models.ConditionFog},
	{"もや", models.ConditionFog},
	// その他
	{"不明", models.ConditionUnknown},
}

// NormalizeDescription maps an arbitrary provider description onto the
// closed condition vocabulary. Exact matches win over substring matches;
// anything the table misses entirely falls back to clear. Every input
// maps to exactly one condition, so raw provider text never leaks to
// callers.
func NormalizeDescription(description string) models.Condition {
	for _, entry := range synonymTable {
		if entry.raw == description {
			return entry.condition
		}
	}

	for _, entry := range synonymTable {
		if strings.Contains(description, entry.raw) {
			return entry.condition
		}
	}

	return models.ConditionClear
}
