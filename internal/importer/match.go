package importer

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/alexanderramin/lifelog/internal/domain"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

type MatchKind string

const (
	MatchAuto          MatchKind = "auto"
	MatchLowConfidence MatchKind = "low_confidence"
	MatchNew           MatchKind = "new"
)

const (
	// AutoMatchScore is the lowest score accepted without confirmation.
	AutoMatchScore = 90
	// subsequenceScore is assigned when names share no token but one is a
	// fuzzy subsequence of the other.
	subsequenceScore = 50
)

// FolderMatch is the best candidate habit for one per-habit export folder.
type FolderMatch struct {
	Folder    string    `json:"folder"`
	Name      string    `json:"name"`
	Candidate string    `json:"candidate,omitempty"`
	Score     int       `json:"score"`
	Kind      MatchKind `json:"kind"`
}

func tokenSet(s string) map[string]bool {
	words := strings.FieldsFunc(domain.NewEntityKey(s).String(), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// ScoreNames rates how alike two habit names are on a 0-100 scale using the
// Dice coefficient over their word tokens. Names with equal keys score 100.
func ScoreNames(a, b string) int {
	ka, kb := domain.NewEntityKey(a), domain.NewEntityKey(b)
	if !ka.IsZero() && ka == kb {
		return 100
	}
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	common := 0
	for w := range ta {
		if tb[w] {
			common++
		}
	}
	return int(math.Round(200 * float64(common) / float64(len(ta)+len(tb))))
}

// MatchFolders finds the best candidate name for each folder. Ties keep the
// earlier candidate.
func MatchFolders(folders, candidates []string) []FolderMatch {
	out := make([]FolderMatch, 0, len(folders))
	for _, folder := range folders {
		m := FolderMatch{Folder: folder, Name: FolderHabitName(folder), Kind: MatchNew}
		for _, c := range candidates {
			if s := ScoreNames(m.Name, c); s > m.Score {
				m.Score, m.Candidate = s, c
			}
		}
		if m.Score == 0 {
			for _, c := range candidates {
				if fuzzy.MatchNormalizedFold(m.Name, c) || fuzzy.MatchNormalizedFold(c, m.Name) {
					m.Score, m.Candidate = subsequenceScore, c
					break
				}
			}
		}
		switch {
		case m.Score >= AutoMatchScore:
			m.Kind = MatchAuto
		case m.Score > 0:
			m.Kind = MatchLowConfidence
		}
		out = append(out, m)
	}
	return out
}

// MergeHabitFiles adds per-habit checkmark files to ds. Each folder is matched
// against the habits already in ds and the user's stored habits. Auto matches
// join the matched habit; low-confidence matches are imported only when
// mappings (folder -> habit name) confirms them; unmatched folders become new
// habits named after the folder. A mapping always overrides the matcher.
func MergeHabitFiles(ds *Dataset, files []HabitFile, mappings map[string]string, existing []*domain.Habit) []FolderMatch {
	var candidates []string
	polarities := make(map[domain.EntityKey]domain.Polarity)
	seen := make(map[domain.EntityKey]bool)
	for _, h := range ds.Habits {
		candidates = append(candidates, h.Name)
		polarities[h.Key()] = h.Polarity
		seen[h.Key()] = true
	}
	storedNames := make(map[domain.EntityKey]string, len(existing))
	for _, h := range existing {
		storedNames[h.Key] = h.Name
		if seen[h.Key] {
			continue
		}
		seen[h.Key] = true
		candidates = append(candidates, h.Name)
		polarities[h.Key] = h.Polarity
	}

	folders := make([]string, len(files))
	for i, f := range files {
		folders[i] = f.Folder
	}
	matches := MatchFolders(folders, candidates)

	for i, hf := range files {
		m := matches[i]
		var name string
		if mapped := sanitize(mappings[hf.Folder]); mapped != "" {
			name = mapped
		} else {
			switch m.Kind {
			case MatchAuto:
				name = m.Candidate
			case MatchLowConfidence:
				ds.Issues = append(ds.Issues, issue(KindConflict, SeverityWarning,
					fmt.Sprintf("folder %q resembles habit %q (score %d); add a folder mapping to import it", hf.Folder, m.Candidate, m.Score)).
					forEntity(m.Name))
				continue
			default:
				name = m.Name
			}
		}

		key := domain.NewEntityKey(name)
		if key.IsZero() {
			ds.Issues = append(ds.Issues, issue(KindParsing, SeverityWarning,
				fmt.Sprintf("folder %q does not name a habit, skipped", hf.Folder)))
			continue
		}
		if stored, ok := storedNames[key]; ok {
			name = stored
		}
		pol, ok := polarities[key]
		if !ok {
			pol = domain.ClassifyPolarity(name)
			polarities[key] = pol
		}
		if ds.indexOf(key) < 0 {
			ds.Habits = append(ds.Habits, NormalizedHabit{
				Name:             name,
				Position:         len(ds.Habits) + 1,
				RepetitionTarget: 1,
				IntervalDays:     1,
				Color:            domain.DefaultColor,
				Polarity:         pol,
				Type:             domain.TypeFor(pol),
			})
		}

		entries, issues := ParseHabitFile(hf, name, pol)
		ds.Issues = append(ds.Issues, issues...)

		acc := make(entryCollector)
		for _, e := range ds.Entries[key] {
			acc.put(key, e)
		}
		for _, e := range entries {
			acc.put(key, e)
		}
		ds.Entries[key] = acc.sorted()[key]
	}
	return matches
}
