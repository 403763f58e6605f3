package transport

// Minimal FHIR R4 shapes for a heart-rate Observation.

const (
	LOINCSystem       = "http://loinc.org"
	LOINCHeartRate    = "8867-4"
	UCUMSystem        = "http://unitsofmeasure.org"
	CategorySystem    = "http://terminology.hl7.org/CodeSystem/observation-category"
	HeartRateUnit     = "beats/minute"
	HeartRateUnitCode = "/min"
)

type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type Quantity struct {
	Value  *float64 `json:"value"`
	Unit   string   `json:"unit,omitempty"`
	System string   `json:"system,omitempty"`
	Code   string   `json:"code,omitempty"`
}

type Component struct {
	Code          CodeableConcept `json:"code"`
	ValueQuantity Quantity        `json:"valueQuantity"`
}

type Period struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationSeconds int    `json:"duration_seconds"`
}

type Extension struct {
	URL         string `json:"url"`
	ValueString string `json:"valueString"`
}

type Observation struct {
	ResourceType      string            `json:"resourceType,omitempty"`
	Status            string            `json:"status,omitempty"`
	Category          []CodeableConcept `json:"category,omitempty"`
	Code              *CodeableConcept  `json:"code,omitempty"`
	ValueQuantity     *Quantity         `json:"valueQuantity,omitempty"`
	Value             *float64          `json:"value,omitempty"`
	EffectiveDateTime string            `json:"effectiveDateTime,omitempty"`
	EffectivePeriod   *Period           `json:"effectivePeriod,omitempty"`
	Component         []Component       `json:"component,omitempty"`
	Extension         []Extension       `json:"extension,omitempty"`
}

// HeartRateCode is the LOINC code for heart rate.
func HeartRateCode() *CodeableConcept {
	return &CodeableConcept{
		Coding: []Coding{{System: LOINCSystem, Code: LOINCHeartRate, Display: "Heart rate"}},
		Text:   "Heart rate",
	}
}

// BPM builds a beats/minute quantity.
func BPM(v float64) *Quantity {
	return &Quantity{Value: &v, Unit: HeartRateUnit, System: UCUMSystem, Code: HeartRateUnitCode}
}
