package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nibzard/jobqueue-go/internal/edit"
	"github.com/nibzard/jobqueue-go/internal/logging"
	"github.com/nibzard/jobqueue-go/internal/tracker"
	"github.com/nibzard/jobqueue-go/internal/ui"
)

const (
	// keep leaves the scratch file as the editor found it.
	keep = "\x00keep"
	// abort makes the user hit y in the abort prompt while the editor is open.
	abort = "\x00abort"
)

// fakeUser plays both the editor and the abort prompt.
type fakeUser struct {
	mu     sync.Mutex
	texts  []string
	seen   []string
	abortC chan struct{}
}

func newFakeUser(texts ...string) *fakeUser {
	return &fakeUser{texts: texts, abortC: make(chan struct{}, 1)}
}

func (u *fakeUser) Edit(ctx context.Context, path string) error {
	u.mu.Lock()
	data, err := os.ReadFile(path)
	if err != nil {
		u.mu.Unlock()
		return err
	}
	u.seen = append(u.seen, string(data))
	if len(u.texts) == 0 {
		u.mu.Unlock()
		return fmt.Errorf("editor script exhausted")
	}
	next := u.texts[0]
	u.texts = u.texts[1:]
	u.mu.Unlock()

	switch next {
	case keep:
		return nil
	case abort:
		u.abortC <- struct{}{}
		<-ctx.Done()
		return ctx.Err()
	}
	return os.WriteFile(path, []byte(next), 0644)
}

func (u *fakeUser) PromptAbort(ctx context.Context) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-u.abortC:
		return true, nil
	}
}

type fakePrompter struct {
	confirms []bool
	asked    []string
	sort     []ui.SortItem
	sorted   []string
	search   string
	options  []string
}

func (p *fakePrompter) Select(context.Context, string, []ui.Choice) (string, error) {
	return "", ui.ErrExit
}

func (p *fakePrompter) Confirm(_ context.Context, msg string, _ bool) (bool, error) {
	p.asked = append(p.asked, msg)
	if len(p.confirms) == 0 {
		return false, fmt.Errorf("unexpected confirm %q", msg)
	}
	answer := p.confirms[0]
	p.confirms = p.confirms[1:]
	return answer, nil
}

func (p *fakePrompter) Search(_ context.Context, _ string, options []string, match ui.MatchFunc) (string, error) {
	p.options = options
	if !match(p.search, p.search) {
		return "", fmt.Errorf("match rejects identical query")
	}
	return p.search, nil
}

func (p *fakePrompter) Sort(_ context.Context, _ string, items []string) ([]ui.SortItem, error) {
	p.sorted = items
	return p.sort, nil
}

type recordingOutput struct {
	lines []string
}

func (o *recordingOutput) Info(msg string)    { o.lines = append(o.lines, "[i] "+msg) }
func (o *recordingOutput) Error(msg string)   { o.lines = append(o.lines, "[e] "+msg) }
func (o *recordingOutput) Success(msg string) { o.lines = append(o.lines, "✔ "+msg) }
func (o *recordingOutput) Reject(head string, err error) {
	o.lines = append(o.lines, head+": "+err.Error())
}

type recordingJournal struct {
	events []logging.Event
}

func (j *recordingJournal) Record(e logging.Event) error {
	j.events = append(j.events, e)
	return nil
}

type fixture struct {
	actions   *Actions
	user      *fakeUser
	prompt    *fakePrompter
	out       *recordingOutput
	journal   *recordingJournal
	queuePath string
	poolPath  string
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(data, '\n'), 0644))
}

func newFixture(t *testing.T, queue []tracker.Job, pool []tracker.Project, user *fakeUser) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		user:      user,
		prompt:    &fakePrompter{},
		out:       &recordingOutput{},
		journal:   &recordingJournal{},
		queuePath: filepath.Join(dir, "jobqueue.json"),
		poolPath:  filepath.Join(dir, "projectpool.json"),
	}
	if queue == nil {
		queue = []tracker.Job{}
	}
	if pool == nil {
		pool = []tracker.Project{}
	}
	writeJSON(t, f.queuePath, tracker.JobQueue{Queue: queue})
	writeJSON(t, f.poolPath, tracker.ProjectPool{Pool: pool})

	docs, err := LoadDocuments(f.queuePath, f.poolPath, nil)
	require.NoError(t, err)

	scratch := t.TempDir()
	f.actions = &Actions{
		Queue:   docs.Queue,
		Pool:    docs.Pool,
		Edit:    &edit.Session{Editor: user, Abort: user, Out: f.out, ScratchDir: scratch},
		Prompt:  f.prompt,
		Out:     f.out,
		Journal: f.journal,
	}
	return f
}

// onDisk reloads both documents from disk.
func (f *fixture) onDisk(t *testing.T) ([]tracker.Job, []tracker.Project) {
	t.Helper()
	docs, err := LoadDocuments(f.queuePath, f.poolPath, nil)
	require.NoError(t, err)
	return docs.Queue.Data.Queue, docs.Pool.Data.Pool
}

func job(name, project string) tracker.Job {
	return tracker.Job{Name: name, Objectives: []string{"o"}, Project: project}
}

func jobText(name, project string) string {
	return fmt.Sprintf(`{"name": %q, "objectivies": ["o"], "project": %q}`, name, project)
}

func project(name string, status tracker.Status) tracker.Project {
	return tracker.Project{Name: name, Status: status}
}

func projectText(name string, status tracker.Status) string {
	return fmt.Sprintf(`{"name": %q, "status": %q}`, name, status)
}

func fileBytes(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestChoices(t *testing.T) {
	f := newFixture(t, nil, nil, newFakeUser())
	choices := f.actions.Choices()
	require.Len(t, choices, 5)
	assert.Equal(t, []ui.Choice{
		{Label: "dequeueJob", Value: "dequeueJob", Disabled: "(Empty job queue)"},
		{Label: "enqueueJob", Value: "enqueueJob", Disabled: "(Empty project pool)"},
		{Label: "editQueue", Value: "editQueue", Disabled: "(Empty job queue)"},
		{Label: "addProject", Value: "addProject"},
		{Label: "editProject", Value: "editProject", Disabled: "(Empty project pool)"},
	}, choices)

	f = newFixture(t, []tracker.Job{job("j1", "X")}, []tracker.Project{project("X", tracker.StatusActive)}, newFakeUser())
	for _, c := range f.actions.Choices() {
		assert.Empty(t, c.Disabled, c.Label)
	}
}

func TestRunUnknownAction(t *testing.T) {
	f := newFixture(t, nil, nil, newFakeUser())
	err := f.actions.Run(context.Background(), "explode")
	assert.EqualError(t, err, `unknown action "explode"`)
}

func TestEnqueueActivatesProject(t *testing.T) {
	user := newFakeUser(jobText("j1", "X"))
	f := newFixture(t, nil, []tracker.Project{project("X", tracker.StatusInactive)}, user)

	require.NoError(t, f.actions.Run(context.Background(), EnqueueJob))

	queue, pool := f.onDisk(t)
	assert.Equal(t, []tracker.Job{job("j1", "X")}, queue)
	assert.Equal(t, tracker.StatusActive, pool[0].Status)
	assert.Equal(t, queue, f.actions.Queue.Data.Queue)
	assert.Contains(t, user.seen[0], `"name": "[placeholder]"`)
	assert.Equal(t, []string{"[i] Opening job JSON in editor for editing.", "✔ Job enqueued"}, f.out.lines)

	require.Len(t, f.journal.events, 1)
	assert.Equal(t, logging.Event{Action: "enqueueJob", Outcome: logging.OutcomeDone, Subject: "j1", Detail: "X"}, f.journal.events[0])
}

func TestEnqueueRejectsUnknownProject(t *testing.T) {
	user := newFakeUser(jobText("j1", "Y"), keep, jobText("j1", "X"))
	f := newFixture(t, nil, []tracker.Project{project("X", tracker.StatusActive)}, user)

	require.NoError(t, f.actions.Run(context.Background(), EnqueueJob))

	assert.Contains(t, f.out.lines, "Rejected job: invalid project name: 'Y' not in project pool")
	assert.Equal(t, jobText("j1", "Y"), user.seen[1], "rejected text is offered again")
	queue, _ := f.onDisk(t)
	assert.Equal(t, []tracker.Job{job("j1", "X")}, queue)
}

func TestEnqueueNoMutation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"deleted", "  \n", "[e] Enqueue aborted"},
		{"aborted", abort, "[e] User aborted action"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, []tracker.Project{project("X", tracker.StatusInactive)}, newFakeUser(tt.text))
			queueBefore := fileBytes(t, f.queuePath)
			poolBefore := fileBytes(t, f.poolPath)

			require.NoError(t, f.actions.Run(context.Background(), EnqueueJob))

			assert.Equal(t, tt.want, f.out.lines[len(f.out.lines)-1])
			assert.Empty(t, f.actions.Queue.Data.Queue)
			assert.Equal(t, queueBefore, fileBytes(t, f.queuePath))
			assert.Equal(t, poolBefore, fileBytes(t, f.poolPath))
			require.Len(t, f.journal.events, 1)
			assert.Equal(t, logging.OutcomeAborted, f.journal.events[0].Outcome)
		})
	}
}

func TestEnqueueEmptyPool(t *testing.T) {
	user := newFakeUser()
	f := newFixture(t, nil, nil, user)

	require.NoError(t, f.actions.Run(context.Background(), EnqueueJob))
	assert.Equal(t, []string{"[e] No projects in pool to make job for."}, f.out.lines)
	assert.Empty(t, user.seen)
}

func TestDequeueJob(t *testing.T) {
	pool := []tracker.Project{project("X", tracker.StatusActive)}

	t.Run("deleted", func(t *testing.T) {
		f := newFixture(t, []tracker.Job{job("j1", "X"), job("j2", "X")}, pool, newFakeUser(""))
		require.NoError(t, f.actions.Run(context.Background(), DequeueJob))

		queue, _ := f.onDisk(t)
		assert.Equal(t, []tracker.Job{job("j2", "X")}, queue)
		assert.Equal(t, "✔ Job completed and deleted", f.out.lines[len(f.out.lines)-1])
		assert.Equal(t, logging.OutcomeDone, f.journal.events[0].Outcome)
	})

	t.Run("edited stays at head", func(t *testing.T) {
		f := newFixture(t, []tracker.Job{job("j1", "X"), job("j2", "X")}, pool, newFakeUser(jobText("j1b", "X")))
		require.NoError(t, f.actions.Run(context.Background(), DequeueJob))

		queue, _ := f.onDisk(t)
		assert.Equal(t, []tracker.Job{job("j1b", "X"), job("j2", "X")}, queue)
		assert.Equal(t, "[i] Job edited", f.out.lines[len(f.out.lines)-1])
	})

	t.Run("aborted leaves queue untouched", func(t *testing.T) {
		before := []tracker.Job{job("j1", "X"), job("j2", "X")}
		f := newFixture(t, before, pool, newFakeUser(abort))
		queueBytes := fileBytes(t, f.queuePath)

		require.NoError(t, f.actions.Run(context.Background(), DequeueJob))

		assert.Equal(t, before, f.actions.Queue.Data.Queue)
		assert.Equal(t, queueBytes, fileBytes(t, f.queuePath))
		assert.Equal(t, "[e] User aborted action", f.out.lines[len(f.out.lines)-1])
	})

	t.Run("empty queue", func(t *testing.T) {
		f := newFixture(t, nil, pool, newFakeUser())
		require.NoError(t, f.actions.Run(context.Background(), DequeueJob))
		assert.Equal(t, []string{"[e] No jobs in queue."}, f.out.lines)
	})
}

func TestEditQueueReorder(t *testing.T) {
	pool := []tracker.Project{project("X", tracker.StatusActive)}
	f := newFixture(t, []tracker.Job{job("a", "X"), job("b", "X"), job("c", "X")}, pool, newFakeUser())
	f.prompt.sort = []ui.SortItem{{Index: 2}, {Index: 0}, {Index: 1}}

	require.NoError(t, f.actions.Run(context.Background(), EditQueue))

	assert.Equal(t, []string{"[X]\ta", "[X]\tb", "[X]\tc"}, f.prompt.sorted)
	queue, _ := f.onDisk(t)
	assert.Equal(t, []tracker.Job{job("c", "X"), job("a", "X"), job("b", "X")}, queue)
	assert.Equal(t, []string{"✔ Queue reordered."}, f.out.lines)
}

func TestEditQueueEditsFlaggedJobs(t *testing.T) {
	pool := []tracker.Project{project("X", tracker.StatusActive), project("Y", tracker.StatusComplete)}
	user := newFakeUser("", jobText("c2", "Y"))
	f := newFixture(t, []tracker.Job{job("a", "X"), job("b", "X"), job("c", "X")}, pool, user)
	f.prompt.sort = []ui.SortItem{{Index: 0, Checked: true}, {Index: 1}, {Index: 2, Checked: true}}

	require.NoError(t, f.actions.Run(context.Background(), EditQueue))

	queue, diskPool := f.onDisk(t)
	assert.Equal(t, []tracker.Job{job("b", "X"), job("c2", "Y")}, queue)
	assert.Equal(t, tracker.StatusActive, diskPool[1].Status)
	assert.Contains(t, user.seen[1], `"name": "c"`, "deletion shifts later positions")
	assert.Contains(t, f.out.lines, "✔ Job [a] deleted.")
	assert.Contains(t, f.out.lines, "✔ Job [c2] edited.")
}

func TestEditQueueAbort(t *testing.T) {
	pool := []tracker.Project{project("X", tracker.StatusActive)}
	all := []ui.SortItem{{Index: 0, Checked: true}, {Index: 1, Checked: true}, {Index: 2, Checked: true}}

	t.Run("abort all", func(t *testing.T) {
		user := newFakeUser(abort, jobText("never", "X"))
		f := newFixture(t, []tracker.Job{job("a", "X"), job("b", "X"), job("c", "X")}, pool, user)
		f.prompt.sort = all
		f.prompt.confirms = []bool{true}

		require.NoError(t, f.actions.Run(context.Background(), EditQueue))

		assert.Len(t, user.seen, 1)
		assert.Equal(t, []string{"Abort all edits?"}, f.prompt.asked)
		queue, _ := f.onDisk(t)
		assert.Equal(t, []tracker.Job{job("a", "X"), job("b", "X"), job("c", "X")}, queue)
	})

	t.Run("continue with the rest", func(t *testing.T) {
		user := newFakeUser(jobText("a2", "X"), abort, jobText("c2", "X"))
		f := newFixture(t, []tracker.Job{job("a", "X"), job("b", "X"), job("c", "X")}, pool, user)
		f.prompt.sort = all
		f.prompt.confirms = []bool{false}

		require.NoError(t, f.actions.Run(context.Background(), EditQueue))

		queue, _ := f.onDisk(t)
		assert.Equal(t, []tracker.Job{job("a2", "X"), job("b", "X"), job("c2", "X")}, queue)
	})

	t.Run("last job is not asked", func(t *testing.T) {
		user := newFakeUser(abort)
		f := newFixture(t, []tracker.Job{job("a", "X")}, pool, user)
		f.prompt.sort = []ui.SortItem{{Index: 0, Checked: true}}

		require.NoError(t, f.actions.Run(context.Background(), EditQueue))
		assert.Empty(t, f.prompt.asked)
	})
}

func TestAddProject(t *testing.T) {
	t.Run("added", func(t *testing.T) {
		user := newFakeUser(projectText("X", tracker.StatusActive), keep, projectText("Y", tracker.StatusInactive))
		f := newFixture(t, nil, []tracker.Project{project("X", tracker.StatusActive)}, user)

		require.NoError(t, f.actions.Run(context.Background(), AddProject))

		_, pool := f.onDisk(t)
		assert.Equal(t, []tracker.Project{project("X", tracker.StatusActive), project("Y", tracker.StatusInactive)}, pool)
		assert.Contains(t, user.seen[0], `"name": "[some-project]"`)
		assert.Contains(t, f.out.lines, "Rejected project: 'X' already exists in pool")
		assert.Equal(t, "✔ Added new project", f.out.lines[len(f.out.lines)-1])
	})

	t.Run("deleted", func(t *testing.T) {
		f := newFixture(t, nil, nil, newFakeUser("\n"))
		require.NoError(t, f.actions.Run(context.Background(), AddProject))

		assert.Empty(t, f.actions.Pool.Data.Pool)
		assert.Equal(t, "[e] Add project aborted", f.out.lines[len(f.out.lines)-1])
	})
}

func TestEditProjectStatusWhileReferenced(t *testing.T) {
	user := newFakeUser(projectText("X", tracker.StatusInactive), projectText("X", tracker.StatusActive))
	f := newFixture(t, []tracker.Job{job("j1", "X")}, []tracker.Project{project("X", tracker.StatusActive)}, user)
	f.prompt.search = "X"

	require.NoError(t, f.actions.Run(context.Background(), EditProject))

	assert.Equal(t, []string{"X"}, f.prompt.options)
	assert.Contains(t, f.out.lines, "Rejected project: status 'inactive' can not be set: jobs in queue still reference project")
	_, pool := f.onDisk(t)
	assert.Equal(t, []tracker.Project{project("X", tracker.StatusActive)}, pool)
}

func TestEditProjectRename(t *testing.T) {
	pool := []tracker.Project{project("A", tracker.StatusActive), project("Z", tracker.StatusInactive)}

	t.Run("propagated", func(t *testing.T) {
		user := newFakeUser(projectText("B", tracker.StatusActive))
		f := newFixture(t, []tracker.Job{job("j1", "A"), job("j2", "Z")}, pool, user)
		f.prompt.search = "A"
		f.prompt.confirms = []bool{true}

		require.NoError(t, f.actions.Run(context.Background(), EditProject))

		queue, diskPool := f.onDisk(t)
		assert.Equal(t, []tracker.Job{job("j1", "B"), job("j2", "Z")}, queue)
		assert.Equal(t, []tracker.Project{project("B", tracker.StatusActive), project("Z", tracker.StatusInactive)}, diskPool)
		assert.Equal(t, []string{"You are changing this project's name to B. Would you like to rename the project entry in referencing jobs?"}, f.prompt.asked)
		assert.Equal(t, "renamed from A", f.journal.events[0].Detail)
	})

	t.Run("declined", func(t *testing.T) {
		user := newFakeUser(projectText("B", tracker.StatusActive))
		f := newFixture(t, []tracker.Job{job("j1", "A")}, pool, user)
		f.prompt.search = "A"
		f.prompt.confirms = []bool{false}

		require.NoError(t, f.actions.Run(context.Background(), EditProject))

		queue, _ := f.onDisk(t)
		assert.Equal(t, []tracker.Job{job("j1", "A")}, queue)
		assert.Contains(t, f.out.lines, "[e] Jobs in queue still reference 'A'")
	})

	t.Run("collision", func(t *testing.T) {
		user := newFakeUser(projectText("Z", tracker.StatusActive), abort)
		f := newFixture(t, nil, pool, user)
		f.prompt.search = "A"

		require.NoError(t, f.actions.Run(context.Background(), EditProject))

		assert.Contains(t, f.out.lines, "Rejected project: new name 'Z' already exists in pool")
		assert.Equal(t, pool, f.actions.Pool.Data.Pool)
	})
}

func TestEditProjectDelete(t *testing.T) {
	t.Run("blocked while referenced", func(t *testing.T) {
		user := newFakeUser("", abort)
		f := newFixture(t, []tracker.Job{job("j1", "X")}, []tracker.Project{project("X", tracker.StatusActive)}, user)
		f.prompt.search = "X"
		poolBytes := fileBytes(t, f.poolPath)

		require.NoError(t, f.actions.Run(context.Background(), EditProject))

		assert.Contains(t, f.out.lines, "Rejected project: project 'X' can not be deleted: 1 job in queue still reference it")
		assert.Equal(t, "[e] User aborted action", f.out.lines[len(f.out.lines)-1])
		assert.Equal(t, poolBytes, fileBytes(t, f.poolPath))
	})

	t.Run("unreferenced", func(t *testing.T) {
		user := newFakeUser("   ")
		f := newFixture(t, nil, []tracker.Project{project("X", tracker.StatusActive), project("Y", tracker.StatusActive)}, user)
		f.prompt.search = "X"

		require.NoError(t, f.actions.Run(context.Background(), EditProject))

		_, pool := f.onDisk(t)
		assert.Equal(t, []tracker.Project{project("Y", tracker.StatusActive)}, pool)
		assert.Equal(t, "✔ Project deleted", f.out.lines[len(f.out.lines)-1])
	})
}

func TestEditProjectUnknownName(t *testing.T) {
	f := newFixture(t, nil, []tracker.Project{project("X", tracker.StatusActive)}, newFakeUser())
	f.prompt.search = "nope"

	err := f.actions.Run(context.Background(), EditProject)
	assert.EqualError(t, err, "invalid project name 'nope'")
}

func TestLoadDocumentsFailsOnSchema(t *testing.T) {
	dir := t.TempDir()
	queuePath := filepath.Join(dir, "jobqueue.json")
	poolPath := filepath.Join(dir, "projectpool.json")
	require.NoError(t, os.WriteFile(queuePath, []byte(`{"queue": [{"name": "j"}]}`), 0644))
	require.NoError(t, os.WriteFile(poolPath, []byte(`{"pool": []}`), 0644))

	_, err := LoadDocuments(queuePath, poolPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), queuePath)
}
