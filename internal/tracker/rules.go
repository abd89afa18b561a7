package tracker

import (
	"fmt"
	"strings"
)

// Rule names a cross-entity invariant.
type Rule string

const (
	RuleJobProject        Rule = "job-project"
	RuleUniqueProjectName Rule = "unique-project-name"
	RuleActiveReferenced  Rule = "active-while-referenced"
	RuleDeleteReferenced  Rule = "delete-while-referenced"
)

// InvariantError reports a violated cross-entity rule. It is always
// recoverable: the user fixes the record and tries again.
type InvariantError struct {
	Rule    Rule
	Message string
}

func (e *InvariantError) Error() string {
	return e.Message
}

func violation(rule Rule, format string, args ...any) *InvariantError {
	return &InvariantError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// CheckJobProject passes iff pool contains the project the job references.
func CheckJobProject(job Job, pool []Project) error {
	if !HasProject(pool, job.Project) {
		return violation(RuleJobProject, "invalid project name: '%s' not in project pool", job.Project)
	}
	return nil
}

// CheckNewProject rejects a project whose name is already taken.
func CheckNewProject(project Project, pool []Project) error {
	if HasProject(pool, project.Name) {
		return violation(RuleUniqueProjectName, "'%s' already exists in pool", project.Name)
	}
	return nil
}

// CheckProjectEdit validates an edited project against the rest of the pool.
// Rules:
// - A rename must not collide with another project
// - A project referenced by queued jobs must stay active
func CheckProjectEdit(oldName string, updated Project, pool []Project, referencing int) error {
	if updated.Name != oldName && HasProject(pool, updated.Name) {
		return violation(RuleUniqueProjectName, "new name '%s' already exists in pool", updated.Name)
	}
	if referencing > 0 && updated.Status != StatusActive {
		return violation(RuleActiveReferenced,
			"status '%s' can not be set: jobs in queue still reference project", updated.Status)
	}
	return nil
}

// CheckProjectDelete refuses to delete a project that queued jobs still
// reference.
func CheckProjectDelete(name string, referencing int) error {
	if referencing > 0 {
		return violation(RuleDeleteReferenced,
			"project '%s' can not be deleted: %d %s in queue still reference it",
			name, referencing, plural(referencing, "job", "jobs"))
	}
	return nil
}

// ActivateProject sets the named project active. It reports whether the pool
// changed and needs persisting.
func ActivateProject(pool []Project, name string) bool {
	idx := FindProject(pool, name)
	if idx < 0 || pool[idx].Status == StatusActive {
		return false
	}
	pool[idx].Status = StatusActive
	return true
}

// PropagateRename points every job referencing oldName at newName and
// returns how many jobs changed.
func PropagateRename(queue []Job, oldName, newName string) int {
	changed := 0
	for i := range queue {
		if queue[i].Project == oldName {
			queue[i].Project = newName
			changed++
		}
	}
	return changed
}

// Check reports every invariant violated by the pair of documents as loaded.
func Check(queue []Job, pool []Project) []error {
	var errs []error

	seen := make(map[string]int, len(pool))
	for i, p := range pool {
		if first, ok := seen[p.Name]; ok {
			errs = append(errs, violation(RuleUniqueProjectName,
				"pool[%d] and pool[%d] are both named '%s'", first, i, p.Name))
			continue
		}
		seen[p.Name] = i
	}

	inactive := make(map[string]bool)
	for i, job := range queue {
		idx := FindProject(pool, job.Project)
		if idx < 0 {
			errs = append(errs, violation(RuleJobProject,
				"queue[%d] '%s': invalid project name: '%s' not in project pool", i, job.Name, job.Project))
			continue
		}
		if pool[idx].Status != StatusActive && !inactive[job.Project] {
			inactive[job.Project] = true
			errs = append(errs, violation(RuleActiveReferenced,
				"project '%s' is %s but jobs in queue still reference it", job.Project, pool[idx].Status))
		}
	}
	return errs
}

// Reorder permutes s in place so that s[i] becomes the old s[order[i]].
func Reorder[T any](s []T, order []int) error {
	if len(order) != len(s) {
		return fmt.Errorf("reorder: order has %d indices, want %d", len(order), len(s))
	}
	seen := make([]bool, len(s))
	for _, idx := range order {
		if idx < 0 || idx >= len(s) || seen[idx] {
			return fmt.Errorf("reorder: %v is not a permutation", order)
		}
		seen[idx] = true
	}

	original := append([]T(nil), s...)
	for i, idx := range order {
		s[i] = original[idx]
	}
	return nil
}

// MatchName reports whether every character typed in query appears
// somewhere in name, ignoring case. An empty query matches everything.
func MatchName(query, name string) bool {
	name = strings.ToLower(name)
	for _, r := range strings.ToLower(query) {
		if !strings.ContainsRune(name, r) {
			return false
		}
	}
	return true
}

// FilterNames returns the names matching query, in their original order.
func FilterNames(names []string, query string) []string {
	var out []string
	for _, name := range names {
		if MatchName(query, name) {
			out = append(out, name)
		}
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
