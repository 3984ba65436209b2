package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/wirepair/gcd/gcdapi"
	"gitlab.com/pageprobe/probe"
)

const (
	textFn      = `function() { return this.innerText !== undefined ? this.innerText : this.textContent; }`
	valueFn     = `function() { return this.value === undefined || this.value === null ? "" : String(this.value); }`
	focusFn     = `function() { this.focus(); }`
	scrollFn    = `function() { this.scrollIntoView({block: "center", inline: "center"}); }`
	displayedFn = `function() {
	if (!this.isConnected) { return false; }
	for (var e = this; e && e.nodeType === 1; e = e.parentElement) {
		var s = window.getComputedStyle(e);
		if (s.display === "none") { return false; }
	}
	if (window.getComputedStyle(this).visibility === "hidden") { return false; }
	return this.getClientRects().length > 0;
}`
	enabledFn = `function() {
	var controls = ["BUTTON", "INPUT", "SELECT", "TEXTAREA", "OPTGROUP", "OPTION", "FIELDSET"];
	if (controls.indexOf(this.tagName) < 0) { return true; }
	if (this.disabled) { return false; }
	return !(this.closest && this.closest("fieldset[disabled]"));
}`
)

// Element a node in the tab's current document
type Element struct {
	tab        *Tab
	nodeID     int
	generation int64
}

// NodeID of the element, only valid until the document is updated
func (e *Element) NodeID() int {
	return e.nodeID
}

func (e *Element) check() error {
	if e.tab.closing() {
		return probe.ErrTabClosing
	}
	if e.generation != e.tab.currentGeneration() {
		return probe.ErrStaleElement
	}
	return nil
}

// callFunction on the element's remote object, returning the value
func (e *Element) callFunction(fn string, args ...interface{}) (interface{}, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	obj, err := e.tab.t.DOM.ResolveNodeWithParams(&gcdapi.DOMResolveNodeParams{
		NodeId:      e.nodeID,
		ObjectGroup: objectGroup,
	})
	if err != nil {
		return nil, nodeErr(err, "resolving node")
	}
	defer e.tab.t.Runtime.ReleaseObject(obj.ObjectId)

	callArgs := make([]*gcdapi.RuntimeCallArgument, len(args))
	for i, arg := range args {
		callArgs[i] = &gcdapi.RuntimeCallArgument{Value: arg}
	}
	r, exp, err := e.tab.t.Runtime.CallFunctionOnWithParams(&gcdapi.RuntimeCallFunctionOnParams{
		FunctionDeclaration: fn,
		ObjectId:            obj.ObjectId,
		Arguments:           callArgs,
		Silent:              true,
		ReturnByValue:       true,
	})
	if err != nil {
		return nil, nodeErr(err, "calling function on node")
	}
	if exp != nil {
		return nil, exceptionErr("function on node failed", exp)
	}
	if r == nil {
		return nil, nil
	}
	return r.Value, nil
}

func (e *Element) callString(fn string) (string, error) {
	v, err := e.callFunction(fn)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", v), nil
}

func (e *Element) callBool(fn string) (bool, error) {
	v, err := e.callFunction(fn)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, errors.Errorf("expected bool result got %T", v)
	}
	return b, nil
}

// Text rendered text of the element
func (e *Element) Text(ctx context.Context) (string, error) {
	return e.callString(textFn)
}

// Attribute returns "" for unset attributes. "value" returns the live value
func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	if strings.EqualFold(name, "value") {
		return e.callString(valueFn)
	}
	if err := e.check(); err != nil {
		return "", err
	}
	attributes, err := e.tab.t.DOM.GetAttributes(e.nodeID)
	if err != nil {
		return "", nodeErr(err, "getting attributes")
	}
	return GetAttribute(attributes, name), nil
}

// IsDisplayed by computed style and layout
func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	return e.callBool(displayedFn)
}

// IsEnabled unless a disabled form control or inside a disabled fieldset
func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	return e.callBool(enabledFn)
}

// TagName lower case node name
func (e *Element) TagName(ctx context.Context) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	node, err := e.tab.t.DOM.DescribeNodeWithParams(&gcdapi.DOMDescribeNodeParams{NodeId: e.nodeID})
	if err != nil {
		return "", nodeErr(err, "describing node")
	}
	return strings.ToLower(node.NodeName), nil
}

// SendKeys focuses the element and types text. Use \n for Enter, \b for
// backspace or \t for Tab.
func (e *Element) SendKeys(ctx context.Context, text string) error {
	if _, err := e.callFunction(focusFn); err != nil {
		return err
	}
	return e.tab.sendKeys(text)
}

// Click the centre of the element's content box
func (e *Element) Click(ctx context.Context) error {
	if _, err := e.callFunction(scrollFn); err != nil {
		return err
	}
	box, err := e.tab.t.DOM.GetBoxModelWithParams(&gcdapi.DOMGetBoxModelParams{NodeId: e.nodeID})
	if err != nil {
		return nodeErr(err, "getting box model")
	}
	x, y, ok := centre(box.Content)
	if !ok {
		return &probe.InvalidInputErr{Message: "element has no box to click"}
	}
	return e.tab.click(x, y, 1)
}

// centre of a quad given as x1, y1 ... x4, y4
func centre(quad []float64) (float64, float64, bool) {
	if len(quad) < 8 {
		return 0, 0, false
	}
	var x, y float64
	for i := 0; i < 8; i += 2 {
		x += quad[i]
		y += quad[i+1]
	}
	return x / 4, y / 4, true
}
