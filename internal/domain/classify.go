package domain

import "strings"

var cessationKeywords = []string{"smok", "cigar", "nicotine", "vape", "vaping", "tobacco", "juul"}

var negationPrefixes = []string{"no ", "don't ", "dont ", "stop ", "quit ", "avoid ", "never "}

var negationKeywords = []string{"quit", "without", "less ", "abstain"}

// ClassifyPolarity derives a polarity from a habit name. Substance-cessation
// names are checked before the generic negation words, so "No Smoking" is
// cessation rather than negative.
func ClassifyPolarity(name string) Polarity {
	key := string(NewEntityKey(name))
	for _, kw := range cessationKeywords {
		if strings.Contains(key, kw) {
			return PolarityCessation
		}
	}
	for _, p := range negationPrefixes {
		if strings.HasPrefix(key, p) {
			return PolarityNegative
		}
	}
	for _, kw := range negationKeywords {
		if strings.Contains(key, kw) {
			return PolarityNegative
		}
	}
	return PolarityPositive
}

// TypeFor returns the habit type implied by a polarity.
func TypeFor(p Polarity) HabitType {
	if p == PolarityPositive {
		return HabitBuild
	}
	return HabitBreak
}

// NormalizeValue maps a raw tracker code onto the 0/1/2/3 coding. Codes 0, 2
// and 3 mean the same for every polarity; the classes only disagree on 1, the
// tracker's implicit completion. ok is false for unknown (negative) codes.
func NormalizeValue(p Polarity, raw int) (EntryValue, bool) {
	switch {
	case raw < 0:
		return 0, false
	case raw == 0:
		return EntryFail, true
	case raw == 1:
		switch p {
		case PolarityNegative:
			return EntrySuccess, true
		case PolarityCessation:
			return EntryFail, true
		default:
			return EntrySuccessSkip, true
		}
	case raw == 2:
		return EntrySuccess, true
	case raw == 3:
		return EntrySkip, true
	default:
		// Numeric habits export quantities; any positive amount is a completion.
		return EntrySuccess, true
	}
}

type categoryRule struct {
	category Category
	keywords []string
}

// Order matters: the first matching rule wins.
var categoryRules = []categoryRule{
	{CategoryRecovery, []string{"smok", "cigar", "nicotine", "vape", "alcohol", "beer", "wine", "porn", "gambl", "sugar", "junk", "quit"}},
	{CategoryFitness, []string{"exercise", "workout", "gym", "run", "jog", "walk", "yoga", "stretch", "push", "pull-up", "squat", "swim", "bike", "cycl", "steps"}},
	{CategoryHealth, []string{"water", "sleep", "vitamin", "medic", "floss", "teeth", "diet", "eat", "fruit", "vegetable", "weigh", "bed"}},
	{CategoryMindfulness, []string{"meditat", "journal", "gratitude", "breath", "pray", "mindful", "reflect"}},
	{CategoryLearning, []string{"read", "study", "learn", "course", "language", "duolingo", "practice", "code", "book", "write"}},
	{CategoryProductivity, []string{"plan", "email", "inbox", "clean", "focus", "todo", "work", "organize", "tidy"}},
	{CategorySocial, []string{"call", "friend", "family", "text", "social", "date night"}},
	{CategoryFinance, []string{"save", "budget", "spend", "invest", "expense", "money"}},
}

// Categorize assigns a category by keyword-matching the habit name against a
// fixed taxonomy.
func Categorize(name string) Category {
	key := string(NewEntityKey(name))
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(key, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}
