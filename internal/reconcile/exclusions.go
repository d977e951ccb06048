package reconcile

import (
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/normalize"
)

// ExcludedStudents returns the folded names excluded from class. Matching
// is permissive: empty exclusion fields are wildcards, schedules only count
// when both sides carry digits and teachers only when both are set.
func ExcludedStudents(class core.ClassRecord, exclusions []core.Exclusion) map[string]bool {
	out := make(map[string]bool)
	for _, ex := range exclusions {
		key := normalize.Fold(ex.StudentName)
		if key == "" || !Matches(ex, class) {
			continue
		}
		out[key] = true
	}
	return out
}

// Matches reports whether an exclusion applies to class.
func Matches(ex core.Exclusion, class core.ClassRecord) bool {
	code, label := normalize.Fold(class.Code), normalize.Fold(class.Label)
	for _, id := range []string{ex.ClassCode, ex.ClassLabel} {
		id = normalize.Fold(id)
		if id == "" {
			continue
		}
		if id != code && id != label {
			return false
		}
	}

	es, cs := normalize.Schedule(ex.Schedule), normalize.Schedule(class.Schedule)
	if es != "" && cs != "" && es != cs {
		return false
	}

	et, ct := normalize.Fold(ex.Teacher), normalize.Fold(class.Teacher)
	if et != "" && ct != "" && et != ct {
		return false
	}
	return true
}
