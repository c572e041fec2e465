package pipeline

// Per-sample pipeline states. A sample either walks pending → segmented →
// annotated, or drops to failed from any stage. Failed and annotated are
// terminal; there are no automatic retries.
const (
	SamplePending   string = "PENDING"
	SampleSegmented string = "SEGMENTED"
	SampleAnnotated string = "ANNOTATED"
	SampleFailed    string = "FAILED"
)

// SampleRecord tracks one sample through the two-stage pipeline. It is owned
// exclusively by the goroutine processing that sample.
type SampleRecord struct {
	SampleId  string
	InputDir  string
	OutputDir string
	Status    string
	Error     string
}

func newSampleRecord(sampleId, inputDir, outputDir string) *SampleRecord {
	return &SampleRecord{
		SampleId:  sampleId,
		InputDir:  inputDir,
		OutputDir: outputDir,
		Status:    SamplePending,
	}
}

// fail moves the record to its terminal failed state, capturing the error
// message. Files already written for the sample stay on disk but must not be
// trusted as complete.
func (r *SampleRecord) fail(err error) {
	r.Status = SampleFailed
	r.Error = err.Error()
}

func (r *SampleRecord) Succeeded() bool {
	return r.Status == SampleAnnotated
}
