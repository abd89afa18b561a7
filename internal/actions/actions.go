// Package actions implements the menu actions over the job queue and the
// project pool.
//
// Every action loads nothing itself: it mutates the in-memory documents it
// was given and syncs them before returning, so the next menu always shows
// what is on disk. Aborted edits are reported and swallowed here; only I/O
// failures and prompt exits reach the caller.
package actions

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/nibzard/jobqueue-go/internal/edit"
	"github.com/nibzard/jobqueue-go/internal/logging"
	"github.com/nibzard/jobqueue-go/internal/schema"
	"github.com/nibzard/jobqueue-go/internal/store"
	"github.com/nibzard/jobqueue-go/internal/tracker"
	"github.com/nibzard/jobqueue-go/internal/ui"
)

// Name identifies a menu action.
type Name string

const (
	DequeueJob  Name = "dequeueJob"
	EnqueueJob  Name = "enqueueJob"
	EditQueue   Name = "editQueue"
	AddProject  Name = "addProject"
	EditProject Name = "editProject"
)

// Names returns the actions in menu order.
func Names() []Name {
	return []Name{DequeueJob, EnqueueJob, EditQueue, AddProject, EditProject}
}

// Output shows action progress to the user.
type Output interface {
	edit.Reporter
	Error(msg string)
	Success(msg string)
}

// Actions runs the menu actions against the two documents.
type Actions struct {
	Queue   *store.Document[tracker.JobQueue]
	Pool    *store.Document[tracker.ProjectPool]
	Edit    *edit.Session
	Prompt  ui.Prompter
	Out     Output
	Journal logging.Recorder
	Log     *log.Logger
	Schemas *schema.Set
}

// Disabled returns why name can not run right now, or "" if it can.
func (a *Actions) Disabled(name Name) string {
	switch name {
	case DequeueJob, EditQueue:
		if len(a.Queue.Data.Queue) == 0 {
			return "(Empty job queue)"
		}
	case EnqueueJob, EditProject:
		if len(a.Pool.Data.Pool) == 0 {
			return "(Empty project pool)"
		}
	}
	return ""
}

// Choices returns the menu entries with their availability.
func (a *Actions) Choices() []ui.Choice {
	names := Names()
	choices := make([]ui.Choice, len(names))
	for i, name := range names {
		choices[i] = ui.Choice{Label: string(name), Value: string(name), Disabled: a.Disabled(name)}
	}
	return choices
}

// Run runs the named action.
func (a *Actions) Run(ctx context.Context, name Name) error {
	a.logger().Debug("running action", "action", name)
	switch name {
	case DequeueJob:
		return a.dequeueJob(ctx)
	case EnqueueJob:
		return a.enqueueJob(ctx)
	case EditQueue:
		return a.editQueue(ctx)
	case AddProject:
		return a.addProject(ctx)
	case EditProject:
		return a.editProject(ctx)
	default:
		return fmt.Errorf("unknown action %q", name)
	}
}

func (a *Actions) dequeueJob(ctx context.Context) error {
	queue := a.Queue.Data.Queue
	if len(queue) == 0 {
		a.Out.Error("No jobs in queue.")
		return nil
	}
	job := queue[0]

	a.Out.Info("Opening job JSON in editor for editing.")
	res, err := a.editJob(ctx, job, "Delete file contents to finish the job.")
	if err != nil {
		return a.aborted(DequeueJob, job.Name, err)
	}

	if res.Deleted {
		a.Queue.Data.Queue = slices.Delete(queue, 0, 1)
		a.Out.Success("Job completed and deleted")
		a.record(DequeueJob, logging.OutcomeDone, job.Name, "")
	} else {
		if err := a.activate(res.Value.Project); err != nil {
			return err
		}
		queue[0] = res.Value
		a.Out.Info("Job edited")
		a.record(DequeueJob, logging.OutcomeEdited, res.Value.Name, "")
	}
	return a.sync(a.Queue)
}

func (a *Actions) enqueueJob(ctx context.Context) error {
	if len(a.Pool.Data.Pool) == 0 {
		a.Out.Error("No projects in pool to make job for.")
		return nil
	}

	a.Out.Info("Opening job JSON in editor for editing.")
	res, err := a.editJob(ctx, tracker.PlaceholderJob())
	if err == nil && res.Deleted {
		err = edit.Aborted("Enqueue aborted")
	}
	if err != nil {
		return a.aborted(EnqueueJob, "", err)
	}

	if err := a.activate(res.Value.Project); err != nil {
		return err
	}
	a.Queue.Data.Queue = append(a.Queue.Data.Queue, res.Value)
	a.Out.Success("Job enqueued")
	a.record(EnqueueJob, logging.OutcomeDone, res.Value.Name, res.Value.Project)
	return a.sync(a.Queue)
}

func (a *Actions) editQueue(ctx context.Context) error {
	queue := a.Queue.Data.Queue
	if len(queue) == 0 {
		a.Out.Error("No jobs in queue.")
		return nil
	}

	labels := make([]string, len(queue))
	for i, job := range queue {
		labels[i] = fmt.Sprintf("[%s]\t%s", job.Project, job.Name)
	}
	items, err := a.Prompt.Sort(ctx, "Reorder queue and/or select jobs to edit", labels)
	if err != nil {
		return err
	}
	if err := tracker.Reorder(queue, ui.Orders(items)); err != nil {
		return err
	}
	a.Out.Success("Queue reordered.")
	if err := a.sync(a.Queue); err != nil {
		return err
	}

	var flagged []int
	for pos, item := range items {
		if item.Checked {
			flagged = append(flagged, pos)
		}
	}
	if len(flagged) == 0 {
		a.record(EditQueue, logging.OutcomeDone, "", "reordered")
		return nil
	}

	a.Out.Info("Opening selected jobs for editing.")
	removed := 0
	for n, pos := range flagged {
		idx := pos - removed
		job := a.Queue.Data.Queue[idx]

		res, err := a.editJob(ctx, job, "Delete file contents to delete a job.")
		if err != nil {
			if err := a.aborted(EditQueue, job.Name, err); err != nil {
				return err
			}
			if n+1 < len(flagged) {
				stop, err := a.Prompt.Confirm(ctx, "Abort all edits?", false)
				if err != nil {
					return err
				}
				if stop {
					break
				}
			}
			continue
		}

		if res.Deleted {
			a.Queue.Data.Queue = slices.Delete(a.Queue.Data.Queue, idx, idx+1)
			removed++
			a.Out.Success(fmt.Sprintf("Job [%s] deleted.", job.Name))
			a.record(EditQueue, logging.OutcomeDeleted, job.Name, "")
		} else {
			if err := a.activate(res.Value.Project); err != nil {
				return err
			}
			a.Queue.Data.Queue[idx] = res.Value
			a.Out.Success(fmt.Sprintf("Job [%s] edited.", res.Value.Name))
			a.record(EditQueue, logging.OutcomeEdited, res.Value.Name, "")
		}
		if err := a.sync(a.Queue); err != nil {
			return err
		}
	}
	return nil
}

func (a *Actions) addProject(ctx context.Context) error {
	a.Out.Info("Opening project JSON in editor for editing.")
	res, err := edit.Record(ctx, a.Edit, a.schema(schema.Project), tracker.PlaceholderProject(),
		projectOptions(),
		edit.Checks[tracker.Project]{
			PreParse: edit.DeleteIfBlank,
			PostParse: func(p tracker.Project) error {
				return tracker.CheckNewProject(p, a.Pool.Data.Pool)
			},
		})
	if err == nil && res.Deleted {
		err = edit.Aborted("Add project aborted")
	}
	if err != nil {
		return a.aborted(AddProject, "", err)
	}

	a.Pool.Data.Pool = append(a.Pool.Data.Pool, res.Value)
	a.Out.Success("Added new project")
	a.record(AddProject, logging.OutcomeDone, res.Value.Name, string(res.Value.Status))
	return a.sync(a.Pool)
}

func (a *Actions) editProject(ctx context.Context) error {
	pool := a.Pool.Data.Pool
	if len(pool) == 0 {
		a.Out.Error("No projects in pool.")
		return nil
	}

	name, err := a.Prompt.Search(ctx, "Enter the name of the project to edit",
		tracker.ProjectNames(pool), tracker.MatchName)
	if err != nil {
		return err
	}
	idx := tracker.FindProject(pool, name)
	if idx < 0 {
		return fmt.Errorf("invalid project name '%s'", name)
	}
	project := pool[idx]
	// The edited project is checked against every other project.
	others := slices.Delete(slices.Clone(pool), idx, idx+1)
	referencing := tracker.ReferencingJobs(a.Queue.Data.Queue, project.Name)

	a.Out.Info("Opening project JSON in editor for editing.")
	res, err := edit.Record(ctx, a.Edit, a.schema(schema.Project), project,
		projectOptions("Delete file contents to delete the project."),
		edit.Checks[tracker.Project]{
			PreParse: func(text string) (bool, error) {
				deleted, _ := edit.DeleteIfBlank(text)
				if !deleted {
					return false, nil
				}
				if err := tracker.CheckProjectDelete(project.Name, len(referencing)); err != nil {
					return false, err
				}
				return true, nil
			},
			PostParse: func(p tracker.Project) error {
				return tracker.CheckProjectEdit(project.Name, p, others, len(referencing))
			},
		})
	if err != nil {
		return a.aborted(EditProject, project.Name, err)
	}

	if res.Deleted {
		a.Pool.Data.Pool = slices.Delete(pool, idx, idx+1)
		a.Out.Success("Project deleted")
		a.record(EditProject, logging.OutcomeDeleted, project.Name, "")
		return a.sync(a.Pool)
	}

	updated := res.Value
	if updated.Name != project.Name && len(referencing) > 0 {
		if err := a.renameReferences(ctx, project.Name, updated.Name); err != nil {
			return err
		}
	}

	pool[idx] = updated
	a.Out.Success("Project edited")
	a.record(EditProject, logging.OutcomeEdited, updated.Name, renameDetail(project.Name, updated.Name))
	return a.sync(a.Pool)
}

// renameReferences offers to point the jobs referencing oldName at newName.
func (a *Actions) renameReferences(ctx context.Context, oldName, newName string) error {
	ok, err := a.Prompt.Confirm(ctx, fmt.Sprintf(
		"You are changing this project's name to %s. Would you like to rename the project entry in referencing jobs?",
		newName), true)
	if err != nil {
		return err
	}
	if !ok {
		a.Out.Error(fmt.Sprintf("Jobs in queue still reference '%s'", oldName))
		return nil
	}

	n := tracker.PropagateRename(a.Queue.Data.Queue, oldName, newName)
	a.logger().Debug("renamed job references", "from", oldName, "to", newName, "jobs", n)
	return a.sync(a.Queue)
}

func renameDetail(oldName, newName string) string {
	if oldName == newName {
		return ""
	}
	return "renamed from " + oldName
}

func (a *Actions) editJob(ctx context.Context, job tracker.Job, tooltips ...string) (edit.Result[tracker.Job], error) {
	return edit.Record(ctx, a.Edit, a.schema(schema.Job), job,
		edit.Options{
			ErrorHead:     "Rejected job",
			ScratchPrefix: "jobqueue-job-",
			Tooltips:      tooltips,
		},
		edit.Checks[tracker.Job]{
			PreParse: edit.DeleteIfBlank,
			PostParse: func(j tracker.Job) error {
				return tracker.CheckJobProject(j, a.Pool.Data.Pool)
			},
		})
}

func projectOptions(tooltips ...string) edit.Options {
	return edit.Options{
		ErrorHead:     "Rejected project",
		ScratchPrefix: "jobqueue-project-",
		Tooltips:      tooltips,
	}
}

// activate sets the job's project active and persists the pool if that
// changed anything.
func (a *Actions) activate(project string) error {
	if !tracker.ActivateProject(a.Pool.Data.Pool, project) {
		return nil
	}
	a.logger().Debug("project activated", "project", project)
	return a.sync(a.Pool)
}

// aborted reports an aborted edit and swallows it. Any other error is
// returned unchanged.
func (a *Actions) aborted(action Name, subject string, err error) error {
	if !edit.IsAbort(err) {
		return err
	}
	a.Out.Error(err.Error())
	a.record(action, logging.OutcomeAborted, subject, err.Error())
	return nil
}

type syncer interface {
	Sync() error
	Path() string
}

func (a *Actions) sync(doc syncer) error {
	if err := doc.Sync(); err != nil {
		return err
	}
	a.logger().Debug("document synced", "path", doc.Path())
	return nil
}

func (a *Actions) record(action Name, outcome logging.Outcome, subject, detail string) {
	if a.Journal == nil {
		return
	}
	err := a.Journal.Record(logging.Event{
		Action:  string(action),
		Outcome: outcome,
		Subject: subject,
		Detail:  detail,
	})
	if err != nil {
		a.logger().Warn("journal write failed", "err", err)
	}
}

func (a *Actions) schema(name schema.Name) *schema.Schema {
	if a.Schemas == nil {
		return schema.Default().Get(name)
	}
	return a.Schemas.Get(name)
}

func (a *Actions) logger() *log.Logger {
	if a.Log == nil {
		return log.Default()
	}
	return a.Log
}
