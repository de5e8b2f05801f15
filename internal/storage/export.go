package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/heatsim/internal/metrics"
)

type ExportData struct {
	Run      RunMetadata          `json:"run"`
	History  []metrics.Sample     `json:"history"`
	Tag      string               `json:"tag,omitempty"`
	X        []float64            `json:"x,omitempty"`
	Snapshot map[string][]float64 `json:"snapshot,omitempty"`
}

// Export gathers a run's summary, history and latest snapshot into one
// document. Missing history or snapshots are left empty.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	data := &ExportData{Run: *meta}

	if history, err := s.LoadHistory(runID); err == nil {
		data.History = history
	}

	tag, err := s.ResolveTag(runID, "")
	if err != nil {
		return data, nil
	}
	data.Tag = tag
	data.Snapshot = make(map[string][]float64)
	for _, q := range []string{QuantityT, QuantityEta, QuantityP, QuantityGas, QuantitySolid} {
		x, v, err := s.LoadSnapshot(runID, q, tag)
		if err != nil {
			continue
		}
		data.X = x
		data.Snapshot[q] = v
	}
	return data, nil
}

func ExportJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
