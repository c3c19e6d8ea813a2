package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checho651/bfx-report/internal/registry"
)

func exportJob(id string) ExportJob {
	return ExportJob{
		ID:        id,
		BatchID:   "batch-1",
		Method:    "getLedgers",
		FileName:  id + ".csv",
		State:     "pending",
		CreatedAt: time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestInsertExportJobs(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		jobs    []ExportJob
		wantErr bool
		stored  []string
		missing []string
	}{
		{
			name:   "every record is stored",
			jobs:   []ExportJob{exportJob("a"), exportJob("b")},
			stored: []string{"a", "b"},
		},
		{
			name:    "a failing record rolls back the others",
			jobs:    []ExportJob{exportJob("c"), exportJob("d"), exportJob("c")},
			wantErr: true,
			missing: []string{"c", "d"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			q := New(OpenMemory(t, registry.New(nil)))

			err := q.InsertExportJobs(ctx, tc.jobs)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			for _, id := range tc.stored {
				j, err := q.GetExportJob(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, "batch-1", j.BatchID)
				assert.Equal(t, "pending", j.State)
			}
			for _, id := range tc.missing {
				_, err := q.GetExportJob(ctx, id)
				assert.ErrorIs(t, err, sql.ErrNoRows)
			}
		})
	}
}
