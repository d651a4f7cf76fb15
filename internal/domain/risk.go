package domain

// RiskLevel is the self-harm risk tier assigned to a user message.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskImminent RiskLevel = "imminent"
)

// RiskLevels lists every level from least to most severe.
var RiskLevels = []RiskLevel{RiskNone, RiskLow, RiskModerate, RiskHigh, RiskImminent}

// Rank orders levels by severity. Unknown levels rank as none.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLow:
		return 1
	case RiskModerate:
		return 2
	case RiskHigh:
		return 3
	case RiskImminent:
		return 4
	default:
		return 0
	}
}

// Valid reports whether l is one of the known levels.
func (l RiskLevel) Valid() bool {
	for _, v := range RiskLevels {
		if v == l {
			return true
		}
	}
	return false
}

// RequiresImmediate reports whether l triggers the crisis short-circuit.
func (l RiskLevel) RequiresImmediate() bool {
	return l == RiskHigh || l == RiskImminent
}

// RiskAssessment is the classifier output. It is never persisted on its own;
// it is embedded into the triggering user message's metadata.
type RiskAssessment struct {
	RiskLevel         RiskLevel `json:"riskLevel"`
	Indicators        []string  `json:"indicators"`
	RequiresImmediate bool      `json:"requiresImmediate"`
	CulturalContext   string    `json:"culturalContext,omitempty"`
}

// Metadata projects the assessment onto user-message metadata.
func (a RiskAssessment) Metadata() MessageMetadata {
	return MessageMetadata{
		RiskLevel:       a.RiskLevel,
		Indicators:      a.Indicators,
		CulturalContext: a.CulturalContext,
	}
}
