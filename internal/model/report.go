package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VerificationThreshold is the extraction confidence below which a report is
// surfaced as unverified in downstream views.
const VerificationThreshold = 0.9

// EquipmentStatus describes the operational state of a piece of equipment.
type EquipmentStatus string

const (
	EquipmentOperational EquipmentStatus = "Operational"
	EquipmentLimited     EquipmentStatus = "Limited"
	EquipmentOffline     EquipmentStatus = "Offline"
)

// AnomalyType classifies a data-integrity finding on a report.
type AnomalyType string

const (
	AnomalyConflictingData AnomalyType = "conflicting_data"
	AnomalyUnverifiedClaim AnomalyType = "unverified_claim"
	AnomalyOutdatedMetrics AnomalyType = "outdated_metrics"
)

// Severity grades an anomaly.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Coordinates is a [latitude, longitude] pair.
type Coordinates [2]float64

// Lat returns the latitude component.
func (c Coordinates) Lat() float64 { return c[0] }

// Lng returns the longitude component.
func (c Coordinates) Lng() float64 { return c[1] }

// EquipmentItem is one piece of equipment with its reported status.
type EquipmentItem struct {
	Name   string          `json:"name"`
	Status EquipmentStatus `json:"status"`
}

// Anomaly is a data-integrity finding attached to a report.
type Anomaly struct {
	Type        AnomalyType `json:"type"`
	Description string      `json:"description"`
	Severity    Severity    `json:"severity"`
}

// ExtractedData holds the structured capabilities the parser agent pulled
// out of a report's unstructured text.
type ExtractedData struct {
	FacilityName  string          `json:"facility_name,omitempty"`
	Beds          int             `json:"beds"`
	Specialties   []string        `json:"specialties"`
	Equipment     []string        `json:"equipment,omitempty"`
	EquipmentList []EquipmentItem `json:"equipment_list"`
	Gaps          []string        `json:"gaps"`
	Verified      bool            `json:"verified"`
	Confidence    float64         `json:"confidence"`
	Coordinates   *Coordinates    `json:"coordinates,omitempty"`
	Region        string          `json:"region,omitempty"`
}

// NeedsVerification reports whether the extraction confidence falls below
// the verification threshold.
func (d *ExtractedData) NeedsVerification() bool {
	return d == nil || d.Confidence < VerificationThreshold
}

// HospitalReport is one facility's structured and unstructured data, either
// manually ingested or discovered via external search.
type HospitalReport struct {
	ID               string         `json:"id"`
	FacilityName     string         `json:"facility_name"`
	Region           string         `json:"region"`
	ReportDate       string         `json:"report_date"`
	UnstructuredText string         `json:"unstructured_text"`
	Coordinates      *Coordinates   `json:"coordinates,omitempty"`
	ExtractedData    *ExtractedData `json:"extracted_data,omitempty"`
	Anomalies        []Anomaly      `json:"anomalies,omitempty"`
}

// Discovered reports whether the report came from the discovery agent
// rather than manual ingestion.
func (r HospitalReport) Discovered() bool {
	return strings.HasPrefix(r.ID, "web-")
}

// MainReportID builds the id for the primary report of a new project.
func MainReportID(now time.Time) string {
	return fmt.Sprintf("main-%d", now.UnixMilli())
}

// ManualReportID builds the id for a manually ingested report.
func ManualReportID(now time.Time) string {
	return fmt.Sprintf("manual-%d", now.UnixMilli())
}

// DiscoveredReportID builds the id for a web-discovered report. The agent
// does not guarantee ids, so one is generated client-side.
func DiscoveredReportID() string {
	return "web-" + uuid.New().String()
}
