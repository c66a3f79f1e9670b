package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/mlindgren/hwsched/internal/snapshot"
)

// RunWithGolden executes a scenario, verifies its expect clause and
// compares the canonical schedule document against a golden file stored
// in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if err := Verify(result); err != nil {
		return err
	}

	doc := snapshot.Object{
		"scenario": snapshot.String(scenario.Name),
		"schedule": snapshot.ScheduleDocument(result.Schedule),
	}
	data, err := snapshot.MarshalCanonical(doc)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
