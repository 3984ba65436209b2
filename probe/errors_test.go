package probe_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gitlab.com/pageprobe/probe"
)

func TestErrorMessages(t *testing.T) {
	notFound := &probe.ElementNotFoundErr{Selector: "#missing", URL: "http://localhost/form"}
	assert.Equal(t, "The selector [#missing] was not found in the current URL [http://localhost/form]", notFound.Error())

	button := &probe.ButtonNotFoundErr{Button: "Save"}
	assert.Equal(t, "Unable to locate button [Save].", button.Error())

	timeout := &probe.TimeoutErr{Message: "Waited 5 seconds for callback.", Timeout: 5 * time.Second}
	assert.Equal(t, "Waited 5 seconds for callback.", timeout.Error())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, probe.IsNotFound(&probe.ElementNotFoundErr{Selector: "a"}))
	assert.True(t, probe.IsNotFound(errors.Wrap(probe.ErrNoSuchElement, "querying")))
	assert.True(t, probe.IsNotFound(errors.Wrap(&probe.ElementNotFoundErr{Selector: "a"}, "resolving")))
	assert.False(t, probe.IsNotFound(probe.ErrStaleElement))
	assert.False(t, probe.IsNotFound(nil))
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, probe.IsTimeout(errors.WithStack(&probe.TimeoutErr{Message: "x"})))
	assert.False(t, probe.IsTimeout(probe.ErrNavigationTimedOut))
}
