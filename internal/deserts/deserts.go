// Package deserts carries the reference overlay of under-resourced regions.
// The dataset is embedded and read-only; nothing in the application mutates
// it.
package deserts

import (
	_ "embed"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/beemnet-bee/viplayer/internal/model"
)

//go:embed deserts.yaml
var rawDeserts []byte

var (
	once    sync.Once
	cached  []model.MedicalDesert
	loadErr error
)

// Load parses the embedded dataset once and returns a copy per call.
func Load() ([]model.MedicalDesert, error) {
	once.Do(func() {
		loadErr = yaml.Unmarshal(rawDeserts, &cached)
		if loadErr != nil {
			loadErr = eris.Wrap(loadErr, "deserts: parse embedded dataset")
		}
	})
	if loadErr != nil {
		return nil, loadErr
	}
	out := make([]model.MedicalDesert, len(cached))
	copy(out, cached)
	return out, nil
}
