// Package session owns the three-stage troubleshooting flow: device
// discovery, a fixed seven-question symptom interview, and bounded
// iterative repair guidance ending in success or escalation.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repaird/internal/devices"
	"github.com/fyrsmithlabs/repaird/internal/logging"
	"github.com/fyrsmithlabs/repaird/internal/manuals"
)

const tracerName = "github.com/fyrsmithlabs/repaird/internal/session"

// ErrSessionComplete is returned by Advance once a session reached a
// terminal state. The session is left unchanged.
var ErrSessionComplete = errors.New("session already complete")

// Retriever searches repair manuals for a device and symptom summary.
// Implementations degrade to an empty result on backend failure.
type Retriever interface {
	SearchSolutions(ctx context.Context, deviceModel, symptomsSummary string) []manuals.Candidate
}

// affirmative are the inputs accepted as "issue resolved", matched
// case-insensitively and exactly. Broader phrasing counts as negative.
var affirmative = map[string]bool{
	"yes":      true,
	"y":        true,
	"solved":   true,
	"fixed":    true,
	"resolved": true,
}

// Session is a single troubleshooting conversation. All mutation goes
// through Advance, which processes exactly one user turn at a time.
type Session struct {
	ID string

	mu        sync.Mutex
	registry  *devices.Registry
	retriever Retriever
	logger    *logging.Logger

	stage      Stage
	stageIndex int
	device     *devices.Match
	symptoms   map[int]string
	// nextOrdinal is the ordinal the next accepted answer is stored under.
	// Kept explicit rather than derived from len(symptoms) so empty or
	// retried inputs cannot shift the numbering.
	nextOrdinal int
	attempts    []RepairAttempt
	history     []turn
	complete    bool
	resolution  Resolution
}

// New creates a session in the device discovery stage.
func New(id string, registry *devices.Registry, retriever Retriever, logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{
		ID:          id,
		registry:    registry,
		retriever:   retriever,
		logger:      logger.Named("session"),
		stage:       StageDeviceDiscovery,
		symptoms:    make(map[int]string),
		nextOrdinal: 1,
	}
}

// Complete reports whether the session reached a terminal state.
func (s *Session) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete
}

// Stage returns the current stage.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Advance processes one user turn for the current stage and returns the
// structured stage response. Once the session is complete it returns
// ErrSessionComplete without mutating state.
func (s *Session) Advance(ctx context.Context, input string) (*StageResponse, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "session.Advance")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.complete {
		return nil, ErrSessionComplete
	}

	switch s.stage {
	case StageDeviceDiscovery:
		return s.handleDeviceDiscovery(ctx, input), nil
	case StageSymptomDiscovery:
		return s.handleSymptomDiscovery(ctx, input), nil
	case StageProblemSolver:
		return s.handleProblemSolver(ctx, input), nil
	default:
		return nil, fmt.Errorf("unknown stage %q", s.stage)
	}
}

// handleDeviceDiscovery resolves the input against the device catalog.
// The stage repeats until a match is found.
func (s *Session) handleDeviceDiscovery(ctx context.Context, input string) *StageResponse {
	match := s.registry.Find(input)
	s.device = &match

	resp := &StageResponse{
		Stage:      StageDeviceDiscovery,
		StageIndex: 0,
		Complete:   match.Known,
	}

	if match.Known {
		resp.Device = &DeviceData{
			Model:      match.Record.Model,
			Name:       match.Record.FullName,
			Known:      true,
			Confidence: match.Confidence,
		}
		resp.AgentResponse = fmt.Sprintf(`Great! I found your device: %s

I'm ready to help you repair this %s.
Let me start by asking you some questions to understand the issue better.`,
			match.Record.FullName, match.Record.Type)

		s.stageIndex = 1
		s.stage = StageSymptomDiscovery
		s.logger.Info(ctx, "device identified",
			zap.String("device_model", match.Record.Model))
	} else {
		known := s.registry.DeviceList()
		resp.Device = &DeviceData{
			Known:        false,
			Input:        match.Input,
			KnownDevices: known,
		}
		resp.AgentResponse = deviceNotFoundResponse(known)
		s.logger.Debug(ctx, "device not recognized",
			zap.String("input", input))
	}

	s.history = append(s.history, turn{Stage: StageDeviceDiscovery, Input: input})
	return resp
}

func deviceNotFoundResponse(known []string) string {
	var b strings.Builder
	b.WriteString("I don't recognize that device model in my database.\n\nHere are the supported devices:\n")
	for _, d := range known {
		b.WriteString("- " + d + "\n")
	}
	b.WriteString(`
Could you provide your device information in one of these formats?
- Model number (e.g., SMS6EDI06E)
- Full model name (e.g., Bosch Dishwasher Serie 6 SMS6EDI06E)
- Manufacturer and type (e.g., Bosch Dishwasher)

Or contact support for guidance on unlisted devices.`)
	return b.String()
}

// handleSymptomDiscovery records one answer per non-empty input and asks
// the next question. An empty input re-fetches the current question, which
// is how the first "ask question 1" turn is produced.
func (s *Session) handleSymptomDiscovery(ctx context.Context, input string) *StageResponse {
	if input != "" {
		s.symptoms[s.nextOrdinal] = input
		s.nextOrdinal++
	}

	resp := &StageResponse{
		Stage:      StageSymptomDiscovery,
		StageIndex: 1,
	}

	if len(s.symptoms) >= totalQuestions {
		summary := symptomSummary(s.symptoms)
		resp.Complete = true
		resp.Symptoms = &SymptomData{
			QuestionNumber: s.nextOrdinal,
			TotalQuestions: totalQuestions,
			Answers:        copyAnswers(s.symptoms),
			Summary:        summary,
		}
		resp.AgentResponse = fmt.Sprintf(`Excellent! I've gathered all the information I need.

Summary of what you reported:
%s

Now let me search our repair database for solutions that match your device and these symptoms.`, summary)

		s.stageIndex = 2
		s.stage = StageProblemSolver
		s.logger.Info(ctx, "symptom interview complete",
			zap.Int("answers", len(s.symptoms)))
	} else {
		question := symptomQuestions[s.nextOrdinal-1]
		resp.Symptoms = &SymptomData{
			QuestionNumber:  s.nextOrdinal,
			TotalQuestions:  totalQuestions,
			CurrentQuestion: question,
		}
		resp.AgentResponse = question
		resp.Progress = fmt.Sprintf("Question %d of %d", s.nextOrdinal, totalQuestions)
	}

	s.history = append(s.history, turn{Stage: StageSymptomDiscovery, Input: input})
	return resp
}

// handleProblemSolver evaluates the previous attempt's outcome, then either
// terminates the session or issues the next repair step. At most five
// attempts are recorded.
func (s *Session) handleProblemSolver(ctx context.Context, input string) *StageResponse {
	attemptNumber := len(s.attempts) + 1

	resp := &StageResponse{
		Stage:      StageProblemSolver,
		StageIndex: 2,
	}

	// The first attempt has no previous step to confirm, so the affirmative
	// check only fires from the second call onward.
	if attemptNumber > 1 && affirmative[strings.ToLower(input)] {
		s.complete = true
		s.resolution = ResolutionSuccess

		var b strings.Builder
		b.WriteString("Excellent! I'm glad I could help you resolve the issue.\n\nHere's a summary of what we did:\n")
		for _, a := range s.attempts {
			b.WriteString("- " + a.Step + "\n")
		}

		resp.Complete = true
		resp.Repair = &RepairData{
			Attempt:     attemptNumber,
			MaxAttempts: maxRepairAttempts,
			Resolved:    true,
		}
		resp.AgentResponse = b.String()
		resp.Final = s.finalOutputLocked()

		s.logger.Info(ctx, "session resolved",
			zap.Int("attempts", len(s.attempts)))
		return resp
	}

	if attemptNumber > maxRepairAttempts {
		s.complete = true
		s.resolution = ResolutionEscalated

		resp.Complete = true
		resp.Repair = &RepairData{
			Attempt:     attemptNumber,
			MaxAttempts: maxRepairAttempts,
			Resolved:    false,
			Escalated:   true,
		}
		resp.AgentResponse = escalationResponse
		resp.Final = s.finalOutputLocked()

		s.logger.Info(ctx, "session escalated",
			zap.Int("attempts", len(s.attempts)))
		return resp
	}

	deviceModel := ""
	if s.device != nil && s.device.Record != nil {
		deviceModel = s.device.Record.Model
	}
	candidates := s.retriever.SearchSolutions(ctx, deviceModel, symptomSummary(s.symptoms))

	step := SelectStep(attemptNumber, candidates, s.attempts)

	attempt := RepairAttempt{
		Attempt: attemptNumber,
		Step:    step,
		Sources: []string{},
	}
	if len(candidates) > 0 {
		attempt.Sources = append(attempt.Sources, candidates[0].Resolution)
	}
	s.attempts = append(s.attempts, attempt)

	resp.Repair = &RepairData{
		Attempt:     attemptNumber,
		MaxAttempts: maxRepairAttempts,
		Step:        step,
		Resolved:    false,
	}
	resp.AgentResponse = fmt.Sprintf(`%s

After completing this step:
Did this resolve your issue? (yes/no)`, step)
	resp.Progress = fmt.Sprintf("Attempt %d of %d", attemptNumber, maxRepairAttempts)

	s.history = append(s.history, turn{Stage: StageProblemSolver, Input: input})
	return resp
}

const escalationResponse = `I've worked through 5 troubleshooting steps without resolving the issue.

This suggests the device may need professional service for:
- Internal component failure (motor, pump, compressor, etc.)
- Electrical board damage
- Gas/refrigerant system issues

Recommended next steps:
1. Contact the manufacturer's service center
2. Schedule a professional technician visit
3. Check warranty coverage
4. Request service parts if available

Thank you for working through this with me. Professional service will provide the best outcome.`
