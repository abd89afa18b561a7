// Package tracker holds the job queue and project pool data model and the
// rules that keep the two consistent.
//
// The job document (jobqueue.json):
//
//	{
//	  "$schema": "file:///home/me/.config/job-queue/schemas/jobqueue.schema.json",
//	  "queue": [
//	    {
//	      "name": "Write release notes",
//	      "objectivies": ["Collect merged PRs", "Draft notes"],
//	      "updates": "Waiting on the changelog bot",
//	      "project": "website"
//	    }
//	  ]
//	}
//
// The project document (projectpool.json):
//
//	{
//	  "pool": [
//	    {
//	      "name": "website",
//	      "description": "Marketing site",
//	      "repo": "https://example.com/website",
//	      "status": "active"
//	    }
//	  ]
//	}
//
// # Invariants
//
//   - Every job's project names a project in the pool.
//   - A project referenced by a queued job stays "active".
//   - Project names are unique within the pool.
//   - Queue order only changes when the user reorders it.
//
// The Check* functions are pure: they inspect values and return an
// *InvariantError describing the first violated rule. The mutating helpers
// (ActivateProject, PropagateRename, Reorder) work in place and report what
// they changed so callers know which document to persist.
package tracker
