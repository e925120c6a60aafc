package session

import (
	"fmt"

	"github.com/fyrsmithlabs/repaird/internal/manuals"
)

// maxRepairAttempts bounds the problem solver stage.
const maxRepairAttempts = 5

// genericSteps is the fallback repair ladder used when no retrieved manual
// covers the current attempt.
var genericSteps = []string{
	"Step 1: Reset the device - turn off power for 30 seconds, then turn back on and run a test cycle",
	"Step 2: Check all visible connections - ensure power cord is firm, water/gas lines are connected",
	"Step 3: Clean filters and strainers - remove any debris that could block normal operation",
	"Step 4: Verify water/power supply - check that water inlet and electrical supply are working properly",
	"Step 5: Test individual components - if you're comfortable, use a multimeter to check electrical components",
}

// SelectStep picks the repair instruction for an attempt. The top candidate's
// step at the attempt position wins; otherwise the generic ladder applies; an
// attempt past both yields an escalation sentinel. Pure and deterministic.
func SelectStep(attemptNumber int, candidates []manuals.Candidate, previousAttempts []RepairAttempt) string {
	if len(candidates) > 0 {
		steps := candidates[0].Steps
		if attemptNumber >= 1 && attemptNumber <= len(steps) {
			return steps[attemptNumber-1]
		}
	}

	if attemptNumber >= 1 && attemptNumber <= len(genericSteps) {
		return genericSteps[attemptNumber-1]
	}

	return fmt.Sprintf("Step %d: Unable to generate further steps - escalation recommended", attemptNumber)
}
