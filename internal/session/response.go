package session

// Stage identifies one of the three sequential session phases.
type Stage string

const (
	StageDeviceDiscovery  Stage = "device_discovery"
	StageSymptomDiscovery Stage = "symptom_discovery"
	StageProblemSolver    Stage = "problem_solver"
)

// Resolution is the terminal outcome of a session.
type Resolution string

const (
	ResolutionUnresolved Resolution = ""
	ResolutionSuccess    Resolution = "success"
	ResolutionEscalated  Resolution = "escalated"
)

// StageResponse is the structured result of advancing a session one turn.
// Exactly one of Device, Symptoms, or Repair is set, matching Stage.
type StageResponse struct {
	Stage         Stage  `json:"stage"`
	StageIndex    int    `json:"stage_index"`
	Complete      bool   `json:"is_complete"`
	AgentResponse string `json:"agent_response"`
	Progress      string `json:"progress_text,omitempty"`

	Device   *DeviceData  `json:"device,omitempty"`
	Symptoms *SymptomData `json:"symptoms,omitempty"`
	Repair   *RepairData  `json:"repair,omitempty"`

	// Final is set on the turn that completes the session.
	Final *FinalOutput `json:"final_output,omitempty"`
}

// DeviceData is the device discovery stage payload.
type DeviceData struct {
	Model        string   `json:"device_model,omitempty"`
	Name         string   `json:"device_name,omitempty"`
	Known        bool     `json:"is_known"`
	Confidence   string   `json:"match_confidence,omitempty"`
	Input        string   `json:"user_input,omitempty"`
	KnownDevices []string `json:"known_devices,omitempty"`
}

// SymptomData is the symptom discovery stage payload.
type SymptomData struct {
	QuestionNumber  int            `json:"question_number"`
	TotalQuestions  int            `json:"total_questions"`
	CurrentQuestion string         `json:"current_question,omitempty"`
	Answers         map[int]string `json:"answers,omitempty"`
	Summary         string         `json:"symptom_summary,omitempty"`
}

// RepairData is the problem solver stage payload.
type RepairData struct {
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
	Step        string `json:"repair_step,omitempty"`
	Resolved    bool   `json:"resolved"`
	Escalated   bool   `json:"escalated,omitempty"`
}
