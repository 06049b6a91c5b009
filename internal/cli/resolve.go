package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/lifelog/internal/importer"
	"github.com/spf13/pflag"
)

var _ pflag.Value = (*resolutionFlag)(nil)

// resolutionFlag collects repeated --resolve NAME=DECISION values. A rename
// carries its new name after a colon: "Meditate=rename:Morning Meditate".
type resolutionFlag struct {
	values []importer.ConflictResolution
}

func (f *resolutionFlag) String() string {
	parts := make([]string, 0, len(f.values))
	for _, r := range f.values {
		s := r.EntityName + "=" + string(r.Resolution)
		if r.NewName != "" {
			s += ":" + r.NewName
		}
		parts = append(parts, s)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (f *resolutionFlag) Set(v string) error {
	r, err := parseResolution(v)
	if err != nil {
		return err
	}
	f.values = append(f.values, r)
	return nil
}

func (f *resolutionFlag) Type() string { return "name=decision" }

func parseResolution(v string) (importer.ConflictResolution, error) {
	name, decision, ok := strings.Cut(v, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return importer.ConflictResolution{}, fmt.Errorf("resolution %q must look like NAME=merge|replace|skip|rename:NEW", v)
	}
	decision, newName, _ := strings.Cut(decision, ":")
	r := importer.ConflictResolution{
		EntityName: name,
		Resolution: importer.Resolution(strings.ToLower(strings.TrimSpace(decision))),
		NewName:    strings.TrimSpace(newName),
	}
	switch r.Resolution {
	case importer.ResolutionMerge, importer.ResolutionReplace, importer.ResolutionSkip:
		if r.NewName != "" {
			return importer.ConflictResolution{}, fmt.Errorf("resolution %q: only rename takes a new name", v)
		}
	case importer.ResolutionRename:
		if r.NewName == "" {
			return importer.ConflictResolution{}, fmt.Errorf("resolution %q: rename needs a new name, e.g. %s=rename:New Name", v, name)
		}
	default:
		return importer.ConflictResolution{}, fmt.Errorf("resolution %q: unknown decision %q", v, decision)
	}
	return r, nil
}
