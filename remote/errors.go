package remote

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/wirepair/gcd/gcdapi"
	"gitlab.com/pageprobe/probe"
)

// InvalidNavigationErr when unable to navigate Forward or Back
type InvalidNavigationErr struct {
	Message string
}

func (e *InvalidNavigationErr) Error() string {
	return e.Message
}

// Unwrap so callers can match probe.ErrNavigating
func (e *InvalidNavigationErr) Unwrap() error {
	return probe.ErrNavigating
}

// ScriptEvaluationErr returned when an injected script caused an error
type ScriptEvaluationErr struct {
	Message          string
	ExceptionText    string
	ExceptionDetails *gcdapi.RuntimeExceptionDetails
}

func (e *ScriptEvaluationErr) Error() string {
	return e.Message + " " + e.ExceptionText
}

func exceptionErr(msg string, exp *gcdapi.RuntimeExceptionDetails) error {
	text := exp.Text
	if exp.Exception != nil && exp.Exception.Description != "" {
		text = exp.Exception.Description
	}
	return &ScriptEvaluationErr{Message: msg, ExceptionText: text, ExceptionDetails: exp}
}

// nodeErr maps protocol errors about vanished nodes onto probe.ErrStaleElement
func nodeErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "no node with given id") || strings.Contains(s, "could not find node") || strings.Contains(s, "node is detached") {
		return errors.Wrap(probe.ErrStaleElement, msg)
	}
	return errors.Wrap(err, msg)
}
