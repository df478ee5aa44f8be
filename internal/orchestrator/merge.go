package orchestrator

import (
	"strings"
	"time"

	"github.com/beemnet-bee/viplayer/internal/geo"
	"github.com/beemnet-bee/viplayer/internal/model"
)

// excerptLimit caps the raw text carried on the main report.
const excerptLimit = 1000

// buildReports assembles the report set for a new project: the manual main
// report first (only when the parser produced a facility name), then the
// discovered facilities. A discovered facility whose name contains the
// parsed name donates its coordinates and region to the main report instead
// of appearing as a duplicate.
func buildReports(parsed *model.ExtractedData, combined string, discovered []model.HospitalReport, now time.Time) []model.HospitalReport {
	prepared := prepareDiscovered(discovered)

	if parsed == nil || parsed.FacilityName == "" {
		return prepared
	}

	if i := findDonor(prepared, parsed.FacilityName); i >= 0 {
		// Enrich a copy: the caller's extraction is already on the trace and
		// stays as the parser produced it.
		donor := prepared[i]
		enriched := *parsed
		enriched.Coordinates = donor.Coordinates
		enriched.Region = donor.Region
		parsed = &enriched
		prepared = append(prepared[:i], prepared[i+1:]...)
	}

	region := parsed.Region
	if region == "" {
		region = "Unknown"
	}
	coords := parsed.Coordinates
	if coords == nil {
		c := geo.FallbackCoordinates(region, parsed.FacilityName)
		coords = &c
	}

	main := model.HospitalReport{
		ID:               model.MainReportID(now),
		FacilityName:     parsed.FacilityName,
		Region:           region,
		ReportDate:       now.Format("2006-01-02"),
		UnstructuredText: excerpt(combined),
		Coordinates:      coords,
		ExtractedData:    parsed,
	}
	return append([]model.HospitalReport{main}, prepared...)
}

// buildManualReport shapes one manually entered report. Coordinates are
// never left nil: parser output wins, otherwise the fallback generator
// places the facility.
func buildManualReport(parsed *model.ExtractedData, facilityName, region, text string, now time.Time) model.HospitalReport {
	name := facilityName
	if parsed != nil && parsed.FacilityName != "" {
		name = parsed.FacilityName
	}

	var coords *model.Coordinates
	if parsed != nil && parsed.Coordinates != nil {
		coords = parsed.Coordinates
	} else {
		c := geo.FallbackCoordinates(region, name)
		coords = &c
	}

	return model.HospitalReport{
		ID:               model.ManualReportID(now),
		FacilityName:     name,
		Region:           region,
		ReportDate:       now.Format("2006-01-02"),
		UnstructuredText: text,
		Coordinates:      coords,
		ExtractedData:    parsed,
	}
}

// mergeDiscovered returns the discovered reports that are genuinely new:
// a discovered facility whose name overlaps an existing report's name
// (case-insensitive substring, either direction) is dropped as a duplicate.
func mergeDiscovered(existing, discovered []model.HospitalReport) []model.HospitalReport {
	prepared := prepareDiscovered(discovered)

	var added []model.HospitalReport
	for _, d := range prepared {
		if nameOverlaps(existing, d.FacilityName) {
			continue
		}
		added = append(added, d)
	}
	return added
}

// prepareDiscovered assigns the client-generated id and guarantees
// coordinates on every discovered report.
func prepareDiscovered(discovered []model.HospitalReport) []model.HospitalReport {
	out := make([]model.HospitalReport, len(discovered))
	for i, d := range discovered {
		d.ID = model.DiscoveredReportID()
		if d.Coordinates == nil && d.ExtractedData != nil && d.ExtractedData.Coordinates != nil {
			d.Coordinates = d.ExtractedData.Coordinates
		}
		if d.Coordinates == nil {
			c := geo.FallbackCoordinates(d.Region, d.FacilityName)
			d.Coordinates = &c
		}
		out[i] = d
	}
	return out
}

// findDonor locates a discovered facility whose name contains the parsed
// name, case-insensitive.
func findDonor(reports []model.HospitalReport, parsedName string) int {
	needle := strings.ToLower(parsedName)
	for i, r := range reports {
		if strings.Contains(strings.ToLower(r.FacilityName), needle) {
			return i
		}
	}
	return -1
}

// excerpt caps the stored raw text, marking the truncation.
func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= excerptLimit {
		return s
	}
	return string(runes[:excerptLimit]) + "..."
}

func nameOverlaps(existing []model.HospitalReport, name string) bool {
	lower := strings.ToLower(name)
	if lower == "" {
		return false
	}
	for _, r := range existing {
		other := strings.ToLower(r.FacilityName)
		if other == "" {
			continue
		}
		if strings.Contains(other, lower) || strings.Contains(lower, other) {
			return true
		}
	}
	return false
}
