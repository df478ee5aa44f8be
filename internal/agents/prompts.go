package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/beemnet-bee/viplayer/internal/model"
)

const parserSystem = `You are a medical infrastructure document parser. You turn raw hospital reports into structured capability data. Respond with a single JSON object and nothing else.`

func parserPrompt(rawText string) string {
	return fmt.Sprintf(`Parse this hospital report into structured medical capabilities. Extract the specific equipment list with operational status where mentioned.

Respond with exactly this JSON shape:
{
  "facility_name": string,
  "beds": number,
  "specialties": [string],
  "equipment": [string],
  "equipment_list": [{"name": string, "status": "Operational" | "Limited" | "Offline"}],
  "gaps": [string],
  "confidence": number between 0 and 1
}

Report:
%s`, rawText)
}

func discoveryPrompt(regionOrQuery string, minFacilities int) string {
	return fmt.Sprintf(`Search for real, recent reports (2024-2025) on health facility capabilities, equipment status (oxygen plants, dialysis, MRI, etc.), and staffing shortages relating to %s. List at least %d real hospitals or health centers with specific, currently reported challenges.

Format the output as a JSON array. Each element MUST strictly follow this schema:
[{
  "facility_name": string,
  "region": string,
  "report_date": string,
  "unstructured_text": string (detailed summary),
  "coordinates": [latitude, longitude],
  "extracted_data": {
    "beds": number,
    "specialties": [string],
    "equipment_list": [{"name": string, "status": "Operational" | "Limited" | "Offline"}],
    "gaps": [string],
    "verified": boolean,
    "confidence": number
  }
}]`, regionOrQuery, minFacilities)
}

func strategistPrompt(reports []model.HospitalReport) string {
	names := make([]string, len(reports))
	for i, r := range reports {
		names[i] = r.FacilityName
	}
	return fmt.Sprintf(`Analyze regional medical deserts in Ghana.
Find actual distances to the nearest hubs for these facilities: %s.
Synthesize a 12-month resource allocation plan based on infrastructure gaps and distances.
Present your findings with Markdown tables and clear headings.`, strings.Join(names, ", "))
}

const matcherSystem = `You are a medical staffing matcher. You assign professionals to facilities based on reported capability gaps. Respond with a single JSON object and nothing else.`

func matcherPrompt(reports []model.HospitalReport) string {
	encoded, _ := json.Marshal(reports)
	return fmt.Sprintf(`Based on these hospital reports and their extracted gaps, suggest optimal placements for medical professionals (Doctors, Nurses, Specialists). Identify which hospital needs which specialty most urgently.

Respond with exactly this JSON shape:
{"recommendations": [{"facility": string, "role": string, "reason": string, "priority": "Critical" | "High" | "Routine"}]}

Reports:
%s`, encoded)
}

const predictorSystem = `You are a healthcare infrastructure forecaster. You project how capability gaps evolve. Respond with a single JSON object and nothing else.`

func predictorPrompt(reports []model.HospitalReport) string {
	encoded, _ := json.Marshal(reports)
	return fmt.Sprintf(`Forecast future infrastructure needs and how medical deserts will evolve based on these hospital reports and current trends.

Respond with exactly this JSON shape:
{"forecasts": [{"region": string, "future_gap": string, "probability": number between 0 and 1, "timeframe": string}]}

Reports:
%s`, encoded)
}
