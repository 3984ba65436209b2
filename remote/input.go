package remote

import "github.com/wirepair/gcd/gcdapi"

func (t *Tab) click(x, y float64, clickCount int) error {
	// "mousePressed", "mouseReleased", "mouseMoved"
	// enum": ["none", "left", "middle", "right"]
	if err := t.moveMouse(x, y); err != nil {
		return err
	}

	mousePressedParams := &gcdapi.InputDispatchMouseEventParams{TheType: "mousePressed",
		X:          x,
		Y:          y,
		Button:     "left",
		ClickCount: clickCount,
	}

	if _, err := t.t.Input.DispatchMouseEventWithParams(mousePressedParams); err != nil {
		return err
	}

	mouseReleasedParams := &gcdapi.InputDispatchMouseEventParams{TheType: "mouseReleased",
		X:          x,
		Y:          y,
		Button:     "left",
		ClickCount: clickCount,
	}

	if _, err := t.t.Input.DispatchMouseEventWithParams(mouseReleasedParams); err != nil {
		return err
	}
	return nil
}

func (t *Tab) moveMouse(x, y float64) error {
	mouseMovedParams := &gcdapi.InputDispatchMouseEventParams{TheType: "mouseMoved",
		X: x,
		Y: y,
	}

	_, err := t.t.Input.DispatchMouseEventWithParams(mouseMovedParams)
	return err
}

// sendKeys to whatever is focused
func (t *Tab) sendKeys(text string) error {
	inputParams := &gcdapi.InputDispatchKeyEventParams{TheType: "char"}

	for _, inputchar := range text {
		input := string(inputchar)

		if params, ok := systemKeys[input]; ok {
			if err := t.pressSystemKey(params); err != nil {
				return err
			}
			continue
		}
		inputParams.Text = input
		if _, err := t.t.Input.DispatchKeyEventWithParams(inputParams); err != nil {
			return err
		}
	}
	return nil
}

type systemKey struct {
	text string
	code int
}

var systemKeys = map[string]systemKey{
	"\b": {text: "\b", code: 8},
	"\t": {text: "\t", code: 9},
	"\r": {text: "\r", code: 13},
	"\n": {text: "\r", code: 13},
}

func (t *Tab) pressSystemKey(key systemKey) error {
	inputParams := &gcdapi.InputDispatchKeyEventParams{
		TheType:               "rawKeyDown",
		UnmodifiedText:        key.text,
		Text:                  key.text,
		WindowsVirtualKeyCode: key.code,
		NativeVirtualKeyCode:  key.code,
	}

	for _, typ := range []string{"rawKeyDown", "char", "keyUp"} {
		inputParams.TheType = typ
		if _, err := t.t.Input.DispatchKeyEventWithParams(inputParams); err != nil {
			return err
		}
	}
	return nil
}
