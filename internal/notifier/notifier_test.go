package notifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-stock-tracker/pkg/logger"
)

type recordingNotifier struct {
	messages []string
	err      error
}

func (r *recordingNotifier) SendMessage(text string) error {
	r.messages = append(r.messages, text)
	return r.err
}

func TestMultiFanOut(t *testing.T) {
	log, err := logger.New("error", "console")
	require.NoError(t, err)

	a := &recordingNotifier{}
	b := &recordingNotifier{err: errors.New("channel down")}
	c := &recordingNotifier{}

	m := NewMulti(log, a, b, c)
	err = m.SendMessage("hello")

	// Every channel is attempted; the first failure is reported.
	assert.Error(t, err)
	assert.Equal(t, []string{"hello"}, a.messages)
	assert.Equal(t, []string{"hello"}, b.messages)
	assert.Equal(t, []string{"hello"}, c.messages)
}

func TestNoopNotifier(t *testing.T) {
	assert.NoError(t, NewNoop().SendMessage("discarded"))
}
