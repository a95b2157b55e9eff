package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/basket/internal/ir"
)

// GoldenDir is where RunWithGolden keeps its fixtures, relative to the
// test's package directory.
const GoldenDir = "testdata/golden"

// GoldenBytes renders the canonical form of a scenario result: the run
// snapshot for a successful run, the error code for a failed one.
func GoldenBytes(scenarioName string, result *Result) ([]byte, error) {
	obj := ir.Object{"scenario": ir.String(scenarioName)}
	if result.ErrorCode != "" {
		obj["error"] = ir.String(string(result.ErrorCode))
	} else {
		obj["snapshot"] = result.Snapshot.Object()
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return nil, fmt.Errorf("golden %s: %w", scenarioName, err)
	}
	return data, nil
}

// RunWithGolden executes a scenario and compares its canonical result
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// It returns an error if the scenario cannot run or fails its own checks;
// a golden mismatch fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if !result.Pass {
		return fmt.Errorf("scenario %s failed:\n%s", scenario.Name, strings.Join(result.Errors, "\n"))
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result, opts ...goldie.Option) error {
	t.Helper()

	data, err := GoldenBytes(scenarioName, result)
	if err != nil {
		return err
	}

	opts = append([]goldie.Option{
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	}, opts...)
	g := goldie.New(t, opts...)
	g.Assert(t, scenarioName, data)
	return nil
}
