package actions

import (
	"github.com/charmbracelet/log"

	"github.com/nibzard/jobqueue-go/internal/schema"
	"github.com/nibzard/jobqueue-go/internal/store"
	"github.com/nibzard/jobqueue-go/internal/tracker"
)

// Documents holds both loaded documents.
type Documents struct {
	Queue *store.Document[tracker.JobQueue]
	Pool  *store.Document[tracker.ProjectPool]
}

// LoadDocuments loads the job queue and the project pool. Violated
// cross-document rules are logged as warnings, not returned: the edit
// actions catch them when the offending record is next edited.
func LoadDocuments(queuePath, poolPath string, logger *log.Logger) (*Documents, error) {
	set := schema.Default()
	queue, err := store.Load[tracker.JobQueue](queuePath, set.Get(schema.JobQueue))
	if err != nil {
		return nil, err
	}
	pool, err := store.Load[tracker.ProjectPool](poolPath, set.Get(schema.ProjectPool))
	if err != nil {
		return nil, err
	}

	if logger != nil {
		for _, problem := range tracker.Check(queue.Data.Queue, pool.Data.Pool) {
			logger.Warn(problem.Error())
		}
		logger.Debug("documents loaded",
			"queue", queuePath, "jobs", len(queue.Data.Queue),
			"pool", poolPath, "projects", len(pool.Data.Pool))
	}
	return &Documents{Queue: queue, Pool: pool}, nil
}
