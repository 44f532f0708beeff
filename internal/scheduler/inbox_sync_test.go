package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlevchik/mnemo/internal/config"
	"github.com/mlevchik/mnemo/internal/tasks"
)

func TestFormatForFile(t *testing.T) {
	cases := map[string]string{
		"deck.tsv":      tasks.FormatText,
		"DECK.CSV":      tasks.FormatText,
		"notes.txt":     tasks.FormatText,
		"deck.zip":      tasks.FormatPack,
		"deck.mpack":    tasks.FormatPack,
		"lessons.db":    tasks.FormatLegacy,
		"old.sqlite":    tasks.FormatLegacy,
		"readme.md":     "",
		"no-extension":  "",
		"archive.tar":   "",
	}
	for name, want := range cases {
		assert.Equal(t, want, formatForFile(name), name)
	}
}

func TestStartDisabledIsNoop(t *testing.T) {
	s := NewInboxScheduler(config.Inbox{Enabled: false}, nil)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}
