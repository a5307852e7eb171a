package detector

import "github.com/telhawk-systems/telhawk-fim/internal/models"

// Fixed enrichment lookups. The MITRE mapping follows the categories the
// collector's rules expect: dropped files point at script execution, content
// drift at data manipulation, removals at indicator removal.
var techniqueMap = map[models.EventType]string{
	models.EventCreate: "T1059",
	models.EventModify: "T1565",
	models.EventDelete: "T1070",
}

var riskMap = map[models.EventType]int{
	models.EventCreate: 40,
	models.EventModify: 60,
	models.EventDelete: 70,
}

var reasonMap = map[models.EventType]string{
	models.EventCreate: "New file observed; validate change control.",
	models.EventModify: "Hash drift detected; confirm authorized change.",
	models.EventDelete: "File removed; check for indicator removal or cleanup.",
}

// Technique returns the MITRE ATT&CK technique label for an event type.
func Technique(t models.EventType) string {
	if label, ok := techniqueMap[t]; ok {
		return label
	}
	return "T0000"
}

// RiskScore returns the fixed risk score for an event type.
func RiskScore(t models.EventType) int {
	if score, ok := riskMap[t]; ok {
		return score
	}
	return 30
}

func reason(t models.EventType) string {
	return reasonMap[t]
}
