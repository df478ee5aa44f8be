package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"beds": 120}`,
			want: `{"beds": 120}`,
		},
		{
			name: "fenced object",
			in:   "```json\n{\"beds\": 120}\n```",
			want: `{"beds": 120}`,
		},
		{
			name: "prose around object",
			in:   `Here is the extraction you asked for: {"beds": 120, "gaps": ["ICU"]} — let me know if you need more.`,
			want: `{"beds": 120, "gaps": ["ICU"]}`,
		},
		{
			name: "nested objects",
			in:   `{"a": {"b": {"c": 1}}} trailing`,
			want: `{"a": {"b": {"c": 1}}}`,
		},
		{
			name: "braces inside strings",
			in:   `{"note": "uses { and } freely", "n": 1}`,
			want: `{"note": "uses { and } freely", "n": 1}`,
		},
		{
			name: "escaped quote inside string",
			in:   `{"note": "a \" quote }", "n": 2}`,
			want: `{"note": "a \" quote }", "n": 2}`,
		},
		{
			name: "unbalanced",
			in:   `{"beds": 120`,
			want: "",
		},
		{
			name: "no object",
			in:   "no structured data was found",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractObject(tt.in))
		})
	}
}

func TestExtractArray(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare array",
			in:   `[{"name": "Korle Bu"}]`,
			want: `[{"name": "Korle Bu"}]`,
		},
		{
			name: "prose then array",
			in:   "I found the following facilities:\n\n[{\"name\": \"Korle Bu\"}, {\"name\": \"Tamale Teaching\"}]\n\nThese are the top matches.",
			want: `[{"name": "Korle Bu"}, {"name": "Tamale Teaching"}]`,
		},
		{
			name: "fenced array",
			in:   "```\n[1, 2, 3]\n```",
			want: `[1, 2, 3]`,
		},
		{
			name: "inner arrays",
			in:   `[[5.55, -0.22], [9.40, -0.83]] done`,
			want: `[[5.55, -0.22], [9.40, -0.83]]`,
		},
		{
			name: "brackets inside strings",
			in:   `[{"note": "unit [A]"}]`,
			want: `[{"note": "unit [A]"}]`,
		},
		{
			name: "unbalanced",
			in:   `[{"name": "Korle Bu"`,
			want: "",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractArray(tt.in))
		})
	}
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences(`{"a":1}`))
}
