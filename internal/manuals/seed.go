package manuals

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repaird/internal/vectorstore"
)

// sampleManuals are the built-in repair manuals indexed into an empty store
// so the assistant gives useful guidance out of the box.
var sampleManuals = []Manual{
	{
		DeviceModel: "SMS6EDI06E",
		DeviceName:  "Bosch Dishwasher Serie 6 SMS6EDI06E",
		Symptoms:    "no water entry, error code E:15",
		Steps: []string{
			"Step 1: Check water inlet valve - listen for buzzing sound",
			"Step 2: Inspect inlet hose for kinks or blockages",
			"Step 3: Test water pressure at inlet - should be 0.3-1 MPa",
			"Step 4: Replace inlet valve if water doesn't flow",
			"Step 5: Reset error code and run test cycle",
		},
		Resolution: "Replace water inlet valve - common failure",
	},
	{
		DeviceModel: "SMS6EDI06E",
		DeviceName:  "Bosch Dishwasher Serie 6 SMS6EDI06E",
		Symptoms:    "error code E:25, excessive noise during pump",
		Steps: []string{
			"Step 1: Inspect drain filter for foreign objects",
			"Step 2: Check pump impeller rotation",
			"Step 3: Verify pump seal condition",
			"Step 4: Replace drain pump if damaged",
			"Step 5: Run diagnostic cycle to verify",
		},
		Resolution: "Replace drain pump assembly",
	},
	{
		DeviceModel: "WAX28E91",
		DeviceName:  "Bosch Washing Machine WAX28E91",
		Symptoms:    "not spinning, clothes still wet",
		Steps: []string{
			"Step 1: Check door lock mechanism",
			"Step 2: Inspect belt for wear or breaks",
			"Step 3: Test motor operation with continuity tester",
			"Step 4: Replace belt if worn",
			"Step 5: Verify spin cycle functionality",
		},
		Resolution: "Replace drive belt - normal wear item",
	},
	{
		DeviceModel: "RF32CG5100",
		DeviceName:  "Samsung French Door Refrigerator RF32CG5100",
		Symptoms:    "not cooling, ice buildup in freezer",
		Steps: []string{
			"Step 1: Defrost evaporator coils",
			"Step 2: Check refrigerant lines for blockage",
			"Step 3: Test compressor start relay",
			"Step 4: Verify thermostat sensor function",
			"Step 5: Replace air damper if stuck",
		},
		Resolution: "Defrost cycle + component testing required",
	},
	{
		DeviceModel: "LCRM1650",
		DeviceName:  "LG Microwave Oven LCRM1650",
		Symptoms:    "no heating, fan works",
		Steps: []string{
			"Step 1: Test magnetron continuity",
			"Step 2: Check high-voltage transformer",
			"Step 3: Inspect power supply board",
			"Step 4: Replace magnetron if failed",
			"Step 5: Run heating test cycle",
		},
		Resolution: "Replace magnetron tube - common failure",
	},
}

// Seed indexes the built-in sample manuals when the store is empty.
// A pre-populated or unavailable store is left untouched.
func (s *Service) Seed(ctx context.Context) error {
	count, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn(ctx, "skipping seed, store count unavailable", zap.Error(err))
		return nil
	}
	if count > 0 {
		s.logger.Debug(ctx, "skipping seed, store already populated", zap.Int("count", count))
		return nil
	}

	docs := make([]vectorstore.Document, 0, len(sampleManuals))
	for _, m := range sampleManuals {
		docs = append(docs, vectorstore.Document{
			Content:  fmt.Sprintf("%s %s %s", m.DeviceName, m.Symptoms, strings.Join(m.Steps, " ")),
			Metadata: manualMetadata(m),
		})
	}

	if _, err := s.store.AddDocuments(ctx, docs); err != nil {
		return fmt.Errorf("seeding sample manuals: %w", err)
	}

	s.logger.Info(ctx, "seeded sample manuals", zap.Int("count", len(docs)))
	return nil
}
