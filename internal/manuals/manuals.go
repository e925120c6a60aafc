// Package manuals retrieves repair guidance from the vector store.
//
// Retrieval is strictly best-effort: any backend or embedding failure
// degrades to an empty candidate list so the troubleshooting flow can fall
// back to generic guidance instead of surfacing infrastructure errors.
package manuals

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repaird/internal/logging"
	"github.com/fyrsmithlabs/repaird/internal/vectorstore"
)

const tracerName = "github.com/fyrsmithlabs/repaird/internal/manuals"

// Metadata keys under which manual fields are stored alongside each document.
const (
	metaDeviceModel = "device_model"
	metaDeviceName  = "device_name"
	metaSymptoms    = "symptoms"
	metaSteps       = "steps"
	metaResolution  = "resolution"
)

// Manual is a repair manual entry to be indexed.
type Manual struct {
	DeviceModel string   `json:"device_model"`
	DeviceName  string   `json:"device_name"`
	Symptoms    string   `json:"symptoms"`
	Steps       []string `json:"steps"`
	Resolution  string   `json:"resolution"`
}

// Validate checks that a manual carries enough content to be indexed.
func (m Manual) Validate() error {
	if strings.TrimSpace(m.DeviceName) == "" {
		return fmt.Errorf("device_name required")
	}
	if strings.TrimSpace(m.Symptoms) == "" {
		return fmt.Errorf("symptoms required")
	}
	return nil
}

// Candidate is a retrieved repair manual with its similarity score.
type Candidate struct {
	Score       float32  `json:"score"`
	DeviceModel string   `json:"device_model"`
	DeviceName  string   `json:"device_name"`
	Symptoms    string   `json:"symptoms"`
	Steps       []string `json:"steps"`
	Resolution  string   `json:"resolution"`
}

// Service searches and indexes repair manuals.
type Service struct {
	store  vectorstore.Store
	logger *logging.Logger
	topK   int
}

// NewService creates a manuals service over the given store.
func NewService(store vectorstore.Store, topK int, logger *logging.Logger) *Service {
	if topK <= 0 {
		topK = 3
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:  store,
		logger: logger.Named("manuals"),
		topK:   topK,
	}
}

// SearchSolutions retrieves repair candidates for a device and symptom
// summary, ranked by similarity. Failures degrade to an empty result.
func (s *Service) SearchSolutions(ctx context.Context, deviceModel, symptomsSummary string) []Candidate {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "manuals.SearchSolutions")
	defer span.End()

	query := fmt.Sprintf("Device: %s Symptoms: %s", deviceModel, symptomsSummary)

	results, err := s.store.Search(ctx, query, s.topK)
	if err != nil {
		RetrievalFallbacks.Inc()
		s.logger.Warn(ctx, "manual retrieval failed, degrading to generic guidance",
			zap.String("device_model", deviceModel),
			zap.Error(err))
		return nil
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, candidateFromResult(r))
	}

	s.logger.Debug(ctx, "manual retrieval complete",
		zap.String("device_model", deviceModel),
		zap.Int("candidates", len(candidates)))
	return candidates
}

// AddManual indexes a new repair manual. It is best-effort and reports
// success as a boolean rather than an error.
func (s *Service) AddManual(ctx context.Context, m Manual) bool {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "manuals.AddManual")
	defer span.End()

	if err := m.Validate(); err != nil {
		s.logger.Warn(ctx, "rejecting invalid manual", zap.Error(err))
		return false
	}

	doc := vectorstore.Document{
		Content:  fmt.Sprintf("%s %s", m.DeviceName, m.Symptoms),
		Metadata: manualMetadata(m),
	}

	if _, err := s.store.AddDocuments(ctx, []vectorstore.Document{doc}); err != nil {
		s.logger.Warn(ctx, "failed to index manual",
			zap.String("device_model", m.DeviceModel),
			zap.Error(err))
		return false
	}

	ManualsIndexed.Inc()
	s.logger.Info(ctx, "manual indexed", zap.String("device_model", m.DeviceModel))
	return true
}

// manualMetadata flattens a manual into string metadata. Steps are
// JSON-encoded since metadata values are flat strings.
func manualMetadata(m Manual) map[string]string {
	meta := map[string]string{
		metaDeviceModel: m.DeviceModel,
		metaDeviceName:  m.DeviceName,
		metaSymptoms:    m.Symptoms,
		metaResolution:  m.Resolution,
	}
	if len(m.Steps) > 0 {
		if encoded, err := json.Marshal(m.Steps); err == nil {
			meta[metaSteps] = string(encoded)
		}
	}
	return meta
}

func candidateFromResult(r vectorstore.SearchResult) Candidate {
	c := Candidate{
		Score:       r.Score,
		DeviceModel: r.Metadata[metaDeviceModel],
		DeviceName:  r.Metadata[metaDeviceName],
		Symptoms:    r.Metadata[metaSymptoms],
		Resolution:  r.Metadata[metaResolution],
	}
	if raw, ok := r.Metadata[metaSteps]; ok {
		// Malformed metadata leaves steps empty rather than failing the search.
		_ = json.Unmarshal([]byte(raw), &c.Steps)
	}
	return c
}
