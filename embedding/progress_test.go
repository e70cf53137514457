package embedding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 4, 2)

	tracker.Record(true) // ignored before Start
	assert.Zero(t, tracker.Done())

	tracker.Start()
	tracker.Record(true)
	assert.Empty(t, buf.String(), "no report before the interval")

	tracker.Record(false)
	assert.Contains(t, buf.String(), "2/4 (50.0%) - 1 failed")

	tracker.Record(true)
	tracker.Record(true)
	tracker.Finish()

	assert.Equal(t, 4, tracker.Done())
	assert.Contains(t, buf.String(), "4/4 (100.0%)")
	assert.Contains(t, buf.String(), "\n")
}

func TestProgressTracker_NilWriter(t *testing.T) {
	tracker := NewProgressTracker(nil, 1, 1)
	tracker.Start()
	tracker.Record(true)
	tracker.Finish()
	assert.Equal(t, 1, tracker.Done())
}
