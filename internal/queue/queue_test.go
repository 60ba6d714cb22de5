package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/mvector/internal/model"
)

func TestRunItemRecoversPanic(t *testing.T) {
	proc := &countingProcessor{panicOn: map[string]bool{"boom": true}}
	err := runItem(context.Background(), proc, model.QueueItem{DocID: "boom"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "processor panic")

	err = runItem(context.Background(), proc, model.QueueItem{DocID: "ok"})
	require.NoError(t, err)
	require.Equal(t, []string{"ok"}, proc.processed)
}
