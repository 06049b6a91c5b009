package domain

type HabitType string

const (
	HabitBuild HabitType = "build"
	HabitBreak HabitType = "break"
)

// Polarity decides how raw tracker codes map to success or failure. It is
// chosen once when a habit is created and stored with it.
type Polarity string

const (
	PolarityPositive  Polarity = "positive"
	PolarityNegative  Polarity = "negative"
	PolarityCessation Polarity = "cessation"
)

// ValidPolarities is the canonical set of accepted polarity strings.
var ValidPolarities = map[string]bool{
	"positive": true, "negative": true, "cessation": true,
}

type Category string

const (
	CategoryHealth       Category = "health"
	CategoryFitness      Category = "fitness"
	CategoryMindfulness  Category = "mindfulness"
	CategoryLearning     Category = "learning"
	CategoryProductivity Category = "productivity"
	CategorySocial       Category = "social"
	CategoryFinance      Category = "finance"
	CategoryRecovery     Category = "recovery"
	CategoryOther        Category = "other"
)

// EntryValue is the normalized 0/1/2/3 success coding of one tracked day.
type EntryValue int

const (
	EntryFail        EntryValue = 0
	EntrySuccess     EntryValue = 1
	EntrySuccessSkip EntryValue = 2
	EntrySkip        EntryValue = 3
)

// Succeeded reports whether the day counts as a completion.
func (v EntryValue) Succeeded() bool {
	return v == EntrySuccess || v == EntrySuccessSkip
}

// KeepsStreak reports whether the day extends or preserves a running streak.
func (v EntryValue) KeepsStreak() bool {
	return v.Succeeded() || v == EntrySkip
}

func (v EntryValue) String() string {
	switch v {
	case EntryFail:
		return "fail"
	case EntrySuccess:
		return "success"
	case EntrySuccessSkip:
		return "success_skip"
	case EntrySkip:
		return "skip"
	default:
		return "unknown"
	}
}

type EntrySource string

const (
	SourceManual EntrySource = "manual"
	SourceImport EntrySource = "import"
)
