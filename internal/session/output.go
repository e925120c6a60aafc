package session

import "encoding/json"

// RepairAttempt records one instruction given during the problem solver
// stage. Attempt numbers are contiguous from 1 and never reordered.
type RepairAttempt struct {
	Attempt int      `json:"attempt"`
	Step    string   `json:"step"`
	Sources []string `json:"rag_sources"`
}

// turn is one recorded conversation exchange.
type turn struct {
	Stage Stage  `json:"stage"`
	Input string `json:"user_input"`
}

// FinalDevice is the device section of the final snapshot.
type FinalDevice struct {
	Model   *string `json:"model"`
	Name    *string `json:"name"`
	IsKnown bool    `json:"is_known"`
}

// FinalStatus is the outcome section of the final snapshot.
type FinalStatus struct {
	Resolved     bool `json:"resolved"`
	Escalated    bool `json:"escalated"`
	AttemptsMade int  `json:"attempts_made"`
}

// FinalOutput is the exportable session snapshot. Its field names and
// nesting are a stable contract consumed by ticketing and export
// integrations; do not rename keys.
type FinalOutput struct {
	SessionComplete   bool            `json:"session_complete"`
	Resolution        *string         `json:"resolution"`
	Device            FinalDevice     `json:"device"`
	Symptoms          map[int]string  `json:"symptoms"`
	RepairLog         []RepairAttempt `json:"repair_log"`
	ConversationTurns int             `json:"conversation_turns"`
	FinalStatus       FinalStatus     `json:"final_status"`
}

// FinalOutput builds the snapshot from current session state. It is valid
// at any point in the session, not only after completion.
func (s *Session) FinalOutput() *FinalOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalOutputLocked()
}

func (s *Session) finalOutputLocked() *FinalOutput {
	out := &FinalOutput{
		SessionComplete:   s.complete,
		Device:            FinalDevice{},
		Symptoms:          copyAnswers(s.symptoms),
		RepairLog:         append([]RepairAttempt(nil), s.attempts...),
		ConversationTurns: len(s.history),
		FinalStatus: FinalStatus{
			Resolved:     s.resolution == ResolutionSuccess,
			Escalated:    s.resolution == ResolutionEscalated,
			AttemptsMade: len(s.attempts),
		},
	}
	if s.resolution != ResolutionUnresolved {
		resolution := string(s.resolution)
		out.Resolution = &resolution
	}
	if s.device != nil {
		out.Device.IsKnown = s.device.Known
		if s.device.Known && s.device.Record != nil {
			model := s.device.Record.Model
			name := s.device.Record.FullName
			out.Device.Model = &model
			out.Device.Name = &name
		}
	}
	return out
}

// StateJSON exports the full session state, a superset of the final
// snapshot, for backup purposes.
func (s *Session) StateJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := struct {
		Stage          Stage           `json:"stage"`
		DeviceInfo     interface{}     `json:"device_info"`
		Symptoms       map[int]string  `json:"symptoms"`
		RepairAttempts []RepairAttempt `json:"repair_attempts"`
		FinalOutput    *FinalOutput    `json:"final_output"`
	}{
		Stage:          s.stage,
		Symptoms:       copyAnswers(s.symptoms),
		RepairAttempts: append([]RepairAttempt(nil), s.attempts...),
		FinalOutput:    s.finalOutputLocked(),
	}
	if s.device != nil {
		state.DeviceInfo = s.device
	}
	return json.MarshalIndent(state, "", "  ")
}

func copyAnswers(answers map[int]string) map[int]string {
	out := make(map[int]string, len(answers))
	for k, v := range answers {
		out[k] = v
	}
	return out
}
