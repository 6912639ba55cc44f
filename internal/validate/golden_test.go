package validate

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/fenwick-labs/raciforge/internal/matrix"
)

// TestValidateReportGolden pins the full report shape: issue order,
// rule texts, and summary tallies. Run with -update after a deliberate
// rule change.
func TestValidateReportGolden(t *testing.T) {
	snap := Snapshot{
		Workshop: "workshop-golden",
		Activities: []matrix.Activity{
			testActivity("act-1", "app:CIO", "app:CISO"),
			testActivity("act-2", "app:CIO", "app:CISO"),
		},
	}
	src := MapSource{
		Assignments: map[string][]matrix.Assignment{
			"act-1": assigns("act-1",
				"app:CIO", matrix.ValueAccountable,
				"app:CISO", matrix.ValueResponsible,
			),
			"act-2": assigns("act-2", "app:CISO", matrix.ValueResponsible),
		},
	}

	report, err := New().Validate(snap, src)
	require.NoError(t, err)

	data, err := json.MarshalIndent(report, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "report", data)
}
