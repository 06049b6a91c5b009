package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntityKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want EntityKey
	}{
		{"case folded", "Meditate", "meditate"},
		{"whitespace collapsed", "  Read \t a   Book ", "read a book"},
		{"width normalized", "Ｒｕｎ", "run"},
		{"german sharp s folds", "Straße", "strasse"},
		{"blank", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewEntityKey(tt.in))
		})
	}
	assert.True(t, NewEntityKey(" ").IsZero())
	assert.Equal(t, NewEntityKey("NO smoking"), NewEntityKey("No Smoking"))
}

func TestClassifyPolarity(t *testing.T) {
	tests := []struct {
		name string
		want Polarity
	}{
		{"Meditate", PolarityPositive},
		{"Read 20 pages", PolarityPositive},
		{"No Smoking", PolarityCessation},
		{"Quit vaping", PolarityCessation},
		{"Don't Snack", PolarityNegative},
		{"Dont snack", PolarityNegative},
		{"Never skip breakfast", PolarityNegative},
		{"Day without sugar", PolarityNegative},
		{"Abstain from soda", PolarityNegative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPolarity(tt.name))
		})
	}
}

func TestTypeFor(t *testing.T) {
	assert.Equal(t, HabitBuild, TypeFor(PolarityPositive))
	assert.Equal(t, HabitBreak, TypeFor(PolarityNegative))
	assert.Equal(t, HabitBreak, TypeFor(PolarityCessation))
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name   string
		pol    Polarity
		raw    int
		want   EntryValue
		wantOK bool
	}{
		{"zero fails", PolarityPositive, 0, EntryFail, true},
		{"implicit done for build habit", PolarityPositive, 1, EntrySuccessSkip, true},
		{"implicit done for avoid habit", PolarityNegative, 1, EntrySuccess, true},
		{"implicit done for quit habit", PolarityCessation, 1, EntryFail, true},
		{"explicit done", PolarityCessation, 2, EntrySuccess, true},
		{"skip", PolarityPositive, 3, EntrySkip, true},
		{"quantity", PolarityPositive, 1500, EntrySuccess, true},
		{"negative is unknown", PolarityPositive, -1, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeValue(tt.pol, tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEntryValue(t *testing.T) {
	assert.True(t, EntrySuccess.Succeeded())
	assert.True(t, EntrySuccessSkip.Succeeded())
	assert.False(t, EntrySkip.Succeeded())
	assert.True(t, EntrySkip.KeepsStreak())
	assert.False(t, EntryFail.KeepsStreak())
	assert.Equal(t, "success_skip", EntrySuccessSkip.String())
	assert.Equal(t, "unknown", EntryValue(9).String())
}

func TestCategorize(t *testing.T) {
	tests := map[string]Category{
		"No Smoking":        CategoryRecovery,
		"Morning run":       CategoryFitness,
		"Drink water":       CategoryHealth,
		"Meditate":          CategoryMindfulness,
		"Read":              CategoryLearning,
		"Clear inbox":       CategoryProductivity,
		"Call mom":          CategorySocial,
		"Track budget":      CategoryFinance,
		"Something unusual": CategoryOther,
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, Categorize(name))
		})
	}
}

func validHabit() *Habit {
	return &Habit{
		UserID:       "u1",
		Name:         "Meditate",
		Key:          NewEntityKey("Meditate"),
		Polarity:     PolarityPositive,
		Color:        DefaultColor,
		TargetCount:  1,
		IntervalDays: 1,
	}
}

func TestHabitValidate(t *testing.T) {
	require.NoError(t, validHabit().Validate())

	tests := []struct {
		name   string
		mutate func(*Habit)
		want   string
	}{
		{"no user", func(h *Habit) { h.UserID = "" }, "user id"},
		{"no name", func(h *Habit) { h.Key = "" }, "name"},
		{"bad color", func(h *Habit) { h.Color = "red" }, "color"},
		{"bad polarity", func(h *Habit) { h.Polarity = "sideways" }, "polarity"},
		{"zero target", func(h *Habit) { h.TargetCount = 0 }, "target"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validHabit()
			tt.mutate(h)
			err := h.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidColor(t *testing.T) {
	assert.True(t, ValidColor("#4F46E5"))
	assert.True(t, ValidColor("#ff0000"))
	assert.False(t, ValidColor("ff0000"))
	assert.False(t, ValidColor("#fff"))
}

func TestApplyStreaks(t *testing.T) {
	h := validHabit()
	now := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	h.ApplyStreaks(3, 5, 20, now)
	assert.Equal(t, 3, h.CurrentStreak)
	assert.Equal(t, 5, h.BestStreak)
	assert.Equal(t, 20, h.TotalCompletions)
	assert.Equal(t, now, h.UpdatedAt)
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("x", 5*3600)
	d := Day(time.Date(2024, 1, 3, 23, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "2024-01-03", DayKey(d))
}
