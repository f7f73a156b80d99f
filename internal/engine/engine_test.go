package engine

import (
	"context"
	"testing"

	"github.com/starford/gebo/internal/catalog"
	"github.com/starford/gebo/internal/oracle"
	"github.com/starford/gebo/internal/testutil"
	"github.com/starford/gebo/internal/urls"
)

// fakeOracle is a scripted Oracle for pipeline tests.
type fakeOracle struct {
	evals       []oracle.Evaluation
	verdicts    []bool
	scoreErr    error
	validateErr error

	scoreCalls    int
	validateCalls int
}

func (f *fakeOracle) ScoreCandidates(_ context.Context, _, _ string, titles []string) ([]oracle.Evaluation, error) {
	f.scoreCalls++
	if f.scoreErr != nil {
		return nil, f.scoreErr
	}
	if len(f.evals) != len(titles) {
		// Scripted evals must match; fall back to uniform high scores.
		out := make([]oracle.Evaluation, len(titles))
		for i := range out {
			out[i] = oracle.Evaluation{Score: 9}
		}
		return out, nil
	}
	return f.evals, nil
}

func (f *fakeOracle) ValidateContexts(_ context.Context, checks []oracle.ContextCheck) ([]bool, error) {
	f.validateCalls++
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	if len(f.verdicts) != len(checks) {
		out := make([]bool, len(checks))
		for i := range out {
			out[i] = true
		}
		return out, nil
	}
	return f.verdicts, nil
}

var _ oracle.Oracle = (*fakeOracle)(nil)

func newTestEngine(t *testing.T, orc oracle.Oracle) (*Engine, *catalog.DB) {
	t.Helper()
	db := testutil.TestCatalog(t)
	builder, err := urls.NewBuilder("/blog/{slug}")
	if err != nil {
		t.Fatal(err)
	}
	return New(db, orc, builder, DefaultLimits()), db
}
