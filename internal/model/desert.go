package model

// PopulationDensity buckets a region's population density.
type PopulationDensity string

const (
	DensityHigh   PopulationDensity = "High"
	DensityMedium PopulationDensity = "Medium"
	DensityLow    PopulationDensity = "Low"
)

// MedicalDesert is a geographic cluster flagged as under-resourced.
// Reference overlay data, read-only from the orchestration core.
type MedicalDesert struct {
	ID                string            `json:"id" yaml:"id"`
	Region            string            `json:"region" yaml:"region"`
	PopulationDensity PopulationDensity `json:"population_density" yaml:"population_density"`
	PrimaryGaps       []string          `json:"primary_gaps" yaml:"primary_gaps"`
	Severity          int               `json:"severity" yaml:"severity"`
	Coordinates       Coordinates       `json:"coordinates" yaml:"coordinates,flow"`
	PredictedRisk     float64           `json:"predicted_risk" yaml:"predicted_risk"`
	PredictiveGaps    []string          `json:"predictive_gaps" yaml:"predictive_gaps"`
}
