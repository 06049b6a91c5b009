package importer

type Stage string

const (
	StageValidation         Stage = "validation"
	StageParsing            Stage = "parsing"
	StageConflictResolution Stage = "conflict_resolution"
	StageImporting          Stage = "importing"
	StageCalculatingStreaks Stage = "calculating_streaks"
	StageComplete           Stage = "complete"
)

// Percent is the progress reported on entering each stage.
func (s Stage) Percent() int {
	switch s {
	case StageValidation:
		return 10
	case StageParsing:
		return 25
	case StageConflictResolution:
		return 40
	case StageImporting:
		return 60
	case StageCalculatingStreaks:
		return 85
	case StageComplete:
		return 100
	default:
		return 0
	}
}

type Progress struct {
	Stage   Stage          `json:"stage"`
	Percent int            `json:"percent"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ProgressSink receives progress events in order from a single goroutine.
type ProgressSink func(Progress)

// reporter forwards events to a sink and never lets the percentage go down.
type reporter struct {
	sink ProgressSink
	last int
}

func newReporter(sink ProgressSink) *reporter {
	if sink == nil {
		sink = func(Progress) {}
	}
	return &reporter{sink: sink}
}

func (r *reporter) enter(s Stage, msg string) {
	r.emit(Progress{Stage: s, Percent: s.Percent(), Message: msg})
}

func (r *reporter) emit(p Progress) {
	if p.Percent < r.last {
		p.Percent = r.last
	}
	if p.Percent > 100 {
		p.Percent = 100
	}
	r.last = p.Percent
	r.sink(p)
}

// importingPercent interpolates the importing stage across [60, 85).
func importingPercent(done, total int) int {
	lo, hi := StageImporting.Percent(), StageCalculatingStreaks.Percent()
	if total <= 0 {
		return lo
	}
	return lo + (hi-lo-1)*done/total
}
