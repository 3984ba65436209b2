package static

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var nonRendered = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"template": true,
	"noscript": true,
	"title":    true,
	"meta":     true,
	"link":     true,
}

var formControls = map[string]bool{
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"optgroup": true,
	"option":   true,
	"fieldset": true,
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, name string) bool {
	_, ok := attr(n, name)
	return ok
}

func toggle(n *html.Node, name string) {
	if hasAttr(n, name) {
		removeAttr(n, name)
		return
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name})
}

func removeAttr(n *html.Node, name string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if !strings.EqualFold(a.Key, name) {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

// hiddenSelf reports if n itself is hidden, ignoring ancestors
func hiddenSelf(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if nonRendered[n.Data] || hasAttr(n, "hidden") {
		return true
	}
	if n.Data == "input" {
		if typ, _ := attr(n, "type"); strings.EqualFold(typ, "hidden") {
			return true
		}
	}
	style, ok := attr(n, "style")
	if !ok {
		return false
	}
	style = strings.ToLower(strings.Join(strings.Fields(style), ""))
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func displayed(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if hiddenSelf(p) {
			return false
		}
	}
	return true
}

func enabled(n *html.Node) bool {
	if n.Type != html.ElementNode || !formControls[n.Data] {
		return true
	}
	if hasAttr(n, "disabled") {
		return false
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "fieldset" && hasAttr(p, "disabled") {
			return false
		}
	}
	return true
}

// visibleText collapses whitespace in the text of every displayed descendant
func visibleText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			sb.WriteString(c.Data)
			return
		case html.ElementNode:
			if hiddenSelf(c) {
				return
			}
			if c.Data == "br" {
				sb.WriteString(" ")
			}
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if c.Type == html.ElementNode {
			// block boundaries still separate words
			sb.WriteString(" ")
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func rawText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

func isTextControl(n *html.Node) bool {
	switch n.Data {
	case "textarea":
		return true
	case "input":
		typ, _ := attr(n, "type")
		switch strings.ToLower(typ) {
		case "checkbox", "radio", "submit", "button", "reset", "image", "file", "hidden":
			return false
		}
		return true
	}
	return false
}

func isSubmitter(n *html.Node) bool {
	typ, _ := attr(n, "type")
	typ = strings.ToLower(typ)
	switch n.Data {
	case "button":
		return typ == "" || typ == "submit"
	case "input":
		return typ == "submit" || typ == "image"
	}
	return false
}

func formOf(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "form" {
			return p
		}
	}
	return nil
}

// valueOf the current value of a form control, must hold mu
func (d *Document) valueOf(n *html.Node) string {
	if v, ok := d.values[n]; ok {
		return v
	}
	switch n.Data {
	case "textarea":
		return strings.TrimPrefix(rawText(n), "\n")
	case "select":
		sel := goquery.NewDocumentFromNode(n).Find("option")
		chosen := sel.FilterFunction(func(i int, s *goquery.Selection) bool {
			_, ok := s.Attr("selected")
			return ok
		}).First()
		if chosen.Length() == 0 {
			chosen = sel.First()
		}
		if chosen.Length() == 0 {
			return ""
		}
		if v, ok := chosen.Attr("value"); ok {
			return v
		}
		return strings.TrimSpace(chosen.Text())
	case "option":
		if v, ok := attr(n, "value"); ok {
			return v
		}
		return strings.TrimSpace(rawText(n))
	}
	v, _ := attr(n, "value")
	return v
}

// checkRadio checks n and unchecks the other radios in its group, must hold mu
func (d *Document) checkRadio(n *html.Node) {
	name, _ := attr(n, "name")
	scope := formOf(n)
	var group *goquery.Selection
	if scope != nil {
		group = goquery.NewDocumentFromNode(scope).Find("input[type=radio]")
	} else {
		group = d.doc.Find("input[type=radio]")
	}
	group.Each(func(i int, s *goquery.Selection) {
		if other, _ := s.Attr("name"); other == name && name != "" {
			removeAttr(s.Get(0), "checked")
		}
	})
	removeAttr(n, "checked")
	n.Attr = append(n.Attr, html.Attribute{Key: "checked"})
}

// submission builds the request for the form owning n, must hold mu. action
// is empty if n is not inside a form.
func (d *Document) submission(n, submitter *html.Node) (method, action string, form url.Values) {
	f := formOf(n)
	if f == nil {
		return "", "", nil
	}
	method = http.MethodGet
	if m, _ := attr(f, "method"); strings.EqualFold(m, "post") {
		method = http.MethodPost
	}
	action, _ = attr(f, "action")
	if action == "" {
		action = d.current().url
	}

	form = url.Values{}
	goquery.NewDocumentFromNode(f).Find("input, select, textarea, button").Each(func(i int, s *goquery.Selection) {
		c := s.Get(0)
		name, _ := attr(c, "name")
		if name == "" || !enabled(c) {
			return
		}
		typ, _ := attr(c, "type")
		switch strings.ToLower(typ) {
		case "checkbox", "radio":
			if !hasAttr(c, "checked") {
				return
			}
			v, ok := attr(c, "value")
			if !ok {
				v = "on"
			}
			form.Add(name, v)
			return
		case "file", "reset", "image":
			return
		}
		if isSubmitter(c) || (c.Data == "input" && strings.EqualFold(typ, "button")) {
			if c == submitter {
				form.Add(name, d.valueOf(c))
			}
			return
		}
		form.Add(name, d.valueOf(c))
	})

	if method == http.MethodGet {
		u, err := url.Parse(action)
		if err == nil {
			u.RawQuery = form.Encode()
			action = u.String()
		}
		form = nil
	}
	return method, action, form
}
