package pipeline

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
)

// SampleFailure identifies one failed sample and its captured error.
type SampleFailure struct {
	SampleId string `json:"sample_id"`
	Error    string `json:"error"`
}

// RunSummary is the aggregate accounting of one batch run. Failed entries
// appear in discovery order.
type RunSummary struct {
	RunId     uuid.UUID       `json:"run_id"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    []SampleFailure `json:"failed"`
}

// Write persists the summary as JSON. A failure here is the one write error
// allowed to abort the whole batch.
func (s *RunSummary) Write(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
