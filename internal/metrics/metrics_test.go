package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEntries_CountsByResult(t *testing.T) {
	before := testutil.ToFloat64(get().entries.WithLabelValues("imported"))

	Entries("imported", 3)
	Entries("imported", 0)

	assert.Equal(t, before+3, testutil.ToFloat64(get().entries.WithLabelValues("imported")))
}

func TestImportRun_CountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(get().importRuns.WithLabelValues("conflicts"))

	ImportRun("conflicts")

	assert.Equal(t, before+1, testutil.ToFloat64(get().importRuns.WithLabelValues("conflicts")))
}

func TestObserveStage_SeparatesResults(t *testing.T) {
	ObserveStage("parsing", 10*time.Millisecond, true)
	ObserveStage("parsing", 10*time.Millisecond, false)

	assert.Equal(t, 2, testutil.CollectAndCount(get().stageDuration))
}

func TestUseCase_LabelsByResult(t *testing.T) {
	UseCase("delete-habit", time.Millisecond, true)
	UseCase("delete-habit", time.Millisecond, false)

	assert.GreaterOrEqual(t, testutil.CollectAndCount(get().useCases), 2)
}
