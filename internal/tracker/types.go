package tracker

import "strings"

// Status represents a project lifecycle status.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusComplete Status = "complete"
)

// Job is a queued unit of work referencing exactly one project.
type Job struct {
	Name string `json:"name" yaml:"name"`
	// The key keeps the historical spelling used by existing documents.
	Objectives []string `json:"objectivies" yaml:"objectivies"`
	// Optional text fields are pointers so that an empty value on disk
	// survives a sync while an absent key stays absent.
	Updates *string `json:"updates,omitempty" yaml:"updates,omitempty"`
	Project string  `json:"project" yaml:"project"`
}

// Normalize trims the identifier-like fields and guarantees a non-nil
// objectives list.
func (j *Job) Normalize() {
	j.Name = strings.TrimSpace(j.Name)
	j.Project = strings.TrimSpace(j.Project)
	objectives := make([]string, 0, len(j.Objectives))
	for _, o := range j.Objectives {
		objectives = append(objectives, strings.TrimSpace(o))
	}
	j.Objectives = objectives
}

// Clone returns a deep copy of the job.
func (j Job) Clone() Job {
	j.Objectives = append([]string(nil), j.Objectives...)
	if j.Objectives == nil {
		j.Objectives = []string{}
	}
	return j
}

// Project is a named grouping of jobs.
type Project struct {
	Name        string `json:"name" yaml:"name"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
	Repo        *string `json:"repo,omitempty" yaml:"repo,omitempty"`
	Status      Status  `json:"status" yaml:"status"`
}

// Normalize trims the project name.
func (p *Project) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
}

// JobQueue is the decoded job document.
type JobQueue struct {
	Queue []Job `json:"queue" yaml:"queue"`
}

// Normalize normalizes every job and guarantees a non-nil queue.
func (q *JobQueue) Normalize() {
	if q.Queue == nil {
		q.Queue = []Job{}
	}
	for i := range q.Queue {
		q.Queue[i].Normalize()
	}
}

// ProjectPool is the decoded project document.
type ProjectPool struct {
	Pool []Project `json:"pool" yaml:"pool"`
}

// Normalize normalizes every project and guarantees a non-nil pool.
func (p *ProjectPool) Normalize() {
	if p.Pool == nil {
		p.Pool = []Project{}
	}
	for i := range p.Pool {
		p.Pool[i].Normalize()
	}
}

// PlaceholderJob returns the job shown to the user when enqueueing.
func PlaceholderJob() Job {
	return Job{
		Name: "[placeholder]",
		Objectives: []string{
			"Put the thing in the thing.",
			"Make sure that thing works.",
		},
		Project: "[some-project]",
		Updates: Ref("Put notes here."),
	}
}

// PlaceholderProject returns the project shown to the user when adding one.
func PlaceholderProject() Project {
	return Project{
		Name:        "[some-project]",
		Description: Ref("This is a placeholder project."),
		Repo:        Ref("https://some.project.com/project"),
		Status:      StatusInactive,
	}
}

// Ref returns a pointer to s, for the optional text fields.
func Ref(s string) *string {
	return &s
}

// Text returns the value of an optional text field, or "" when it is unset.
func Text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FindProject returns the index of the project named name, or -1.
func FindProject(pool []Project, name string) int {
	for i := range pool {
		if pool[i].Name == name {
			return i
		}
	}
	return -1
}

// HasProject reports whether pool contains a project named name.
func HasProject(pool []Project, name string) bool {
	return FindProject(pool, name) >= 0
}

// ReferencingJobs returns the queue positions of the jobs whose project is name.
func ReferencingJobs(queue []Job, name string) []int {
	var idxs []int
	for i := range queue {
		if queue[i].Project == name {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// ProjectNames returns the names of the projects in pool order.
func ProjectNames(pool []Project) []string {
	names := make([]string, len(pool))
	for i := range pool {
		names[i] = pool[i].Name
	}
	return names
}
