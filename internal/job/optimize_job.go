package job

import (
	"context"

	"github.com/xxxsen/mvector/internal/db"
)

// OptimizeJob refreshes table statistics on a slow schedule.
type OptimizeJob struct {
	schema *db.SchemaManager
}

func NewOptimizeJob(schema *db.SchemaManager) *OptimizeJob {
	return &OptimizeJob{schema: schema}
}

func (j *OptimizeJob) Name() string {
	return "table_optimize"
}

func (j *OptimizeJob) Run(ctx context.Context) error {
	return j.schema.Optimize(ctx)
}
