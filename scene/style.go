package scene

import (
	"sort"
	"strings"
)

// inlineProperties is the fixed allow-list of presentation properties that
// get baked as local declarations on export. Everything else either does not
// affect rendering of a detached scene or bloats the artifact.
var inlineProperties = []string{
	"fill",
	"stroke",
	"stroke-width",
	"opacity",
	"color",
	"font-family",
	"font-size",
	"font-weight",
	"font-style",
	"letter-spacing",
	"word-spacing",
	"text-anchor",
	"dominant-baseline",
	"visibility",
}

// inheritedProperties follow the CSS/SVG inheritance model: they flow from
// ancestors unless overridden. opacity notably does not inherit.
var inheritedProperties = map[string]bool{
	"fill": true, "stroke": true, "stroke-width": true, "color": true,
	"font-family": true, "font-size": true, "font-weight": true,
	"font-style": true, "letter-spacing": true, "word-spacing": true,
	"text-anchor": true, "dominant-baseline": true, "visibility": true,
}

// isSentinel reports whether a value is a platform "no value" marker that is
// skipped when baking, to keep the artifact small.
func isSentinel(prop, value string) bool {
	v := strings.TrimSpace(value)
	if v == "" || v == "normal" || v == "auto" {
		return true
	}
	// fill:none and stroke:none are meaningful paint disablers; a bare
	// "none" anywhere else is noise.
	if v == "none" && prop != "fill" && prop != "stroke" {
		return true
	}
	return false
}

// cssRule is one parsed selector block from an embedded stylesheet fragment.
type cssRule struct {
	chain        []simpleSelector // descendant chain, last element matches the node itself
	declarations map[string]string
	specificity  int
	order        int
}

type simpleSelector struct {
	tag     string
	id      string
	classes []string
}

// styleRules is the ordered rule set collected from every <style> fragment in
// document order.
type styleRules []cssRule

// collectStyleRules parses all embedded stylesheet fragments of the tree.
// Malformed fragments are skipped declaration by declaration; parsing never
// fails.
func collectStyleRules(root *Node) styleRules {
	var rules styleRules
	order := 0
	root.Walk(func(n *Node) {
		if n.Tag != "style" {
			return
		}
		for _, r := range parseCSS(n.TextContent()) {
			r.order = order
			order++
			rules = append(rules, r)
		}
	})
	return rules
}

// parseCSS handles the subset of CSS that diagram stylesheets actually use:
// comma-separated selector lists of tag/.class/#id compounds with descendant
// combinators. At-rules and malformed blocks are dropped.
func parseCSS(css string) []cssRule {
	css = stripCSSComments(css)
	var rules []cssRule
	for _, block := range strings.Split(css, "}") {
		open := strings.Index(block, "{")
		if open < 0 {
			continue
		}
		selectors := strings.TrimSpace(block[:open])
		body := block[open+1:]
		if selectors == "" || strings.HasPrefix(selectors, "@") {
			continue
		}
		decls := parseDeclarations(body)
		if len(decls) == 0 {
			continue
		}
		for _, sel := range strings.Split(selectors, ",") {
			chain, spec, ok := parseSelector(strings.TrimSpace(sel))
			if !ok {
				continue
			}
			rules = append(rules, cssRule{chain: chain, declarations: decls, specificity: spec})
		}
	}
	return rules
}

func stripCSSComments(css string) string {
	for {
		start := strings.Index(css, "/*")
		if start < 0 {
			return css
		}
		end := strings.Index(css[start+2:], "*/")
		if end < 0 {
			return css[:start]
		}
		css = css[:start] + css[start+2+end+2:]
	}
}

// parseDeclarations parses "prop: value; ..." into a map.
func parseDeclarations(body string) map[string]string {
	decls := map[string]string{}
	for _, d := range strings.Split(body, ";") {
		colon := strings.Index(d, ":")
		if colon < 0 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(d[:colon]))
		value := strings.TrimSpace(d[colon+1:])
		value = strings.TrimSuffix(value, "!important")
		value = strings.TrimSpace(value)
		if prop != "" && value != "" {
			decls[prop] = value
		}
	}
	return decls
}

// parseSelector parses a descendant chain of simple compound selectors.
// Pseudo-classes, attribute selectors and child/sibling combinators are not
// resolvable against a detached tree and reject the selector.
func parseSelector(sel string) ([]simpleSelector, int, bool) {
	if sel == "" || strings.ContainsAny(sel, ">+~[]():") {
		return nil, 0, false
	}
	var chain []simpleSelector
	spec := 0
	for _, part := range strings.Fields(sel) {
		ss, ok := parseCompound(part)
		if !ok {
			return nil, 0, false
		}
		chain = append(chain, ss)
		spec += len(ss.classes) * 10
		if ss.id != "" {
			spec += 100
		}
		if ss.tag != "" && ss.tag != "*" {
			spec++
		}
	}
	if len(chain) == 0 {
		return nil, 0, false
	}
	return chain, spec, true
}

func parseCompound(s string) (simpleSelector, bool) {
	var ss simpleSelector
	mode := 'a' // 'a' tag, 'i' id, 'c' class
	var sb strings.Builder
	flush := func() {
		tok := sb.String()
		sb.Reset()
		if tok == "" {
			return
		}
		switch mode {
		case 'a':
			ss.tag = tok
		case 'i':
			ss.id = tok
		case 'c':
			ss.classes = append(ss.classes, tok)
		}
	}
	for _, r := range s {
		switch r {
		case '.':
			flush()
			mode = 'c'
		case '#':
			flush()
			mode = 'i'
		default:
			sb.WriteRune(r)
		}
	}
	flush()
	if ss.tag == "" && ss.id == "" && len(ss.classes) == 0 {
		return ss, false
	}
	return ss, true
}

func (ss simpleSelector) matches(n *Node) bool {
	if ss.tag != "" && ss.tag != "*" && ss.tag != n.Tag {
		return false
	}
	if ss.id != "" && ss.id != n.Attr("id") {
		return false
	}
	if len(ss.classes) > 0 {
		have := strings.Fields(n.Attr("class"))
		for _, want := range ss.classes {
			found := false
			for _, c := range have {
				if c == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// matchesChain checks the node against the last compound, then walks the
// ancestor slice (outermost first) for the remaining descendants.
func (r cssRule) matchesChain(n *Node, ancestors []*Node) bool {
	last := r.chain[len(r.chain)-1]
	if !last.matches(n) {
		return false
	}
	rest := r.chain[:len(r.chain)-1]
	ai := len(ancestors) - 1
	for i := len(rest) - 1; i >= 0; i-- {
		matched := false
		for ai >= 0 {
			if rest[i].matches(ancestors[ai]) {
				matched = true
				ai--
				break
			}
			ai--
		}
		if !matched {
			return false
		}
	}
	return true
}

// computedStyle resolves the effective presentation values of a node for the
// inline allow-list: inherited values from the ancestor computation, then
// presentation attributes, then stylesheet rules by specificity and order,
// then the node's own style attribute.
func computedStyle(n *Node, ancestors []*Node, inherited map[string]string, rules styleRules) map[string]string {
	out := map[string]string{}
	for prop, v := range inherited {
		if inheritedProperties[prop] {
			out[prop] = v
		}
	}

	for _, prop := range inlineProperties {
		if v := n.Attr(prop); v != "" {
			out[prop] = v
		}
	}

	var matched []cssRule
	for _, r := range rules {
		if r.matchesChain(n, ancestors) {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].specificity != matched[j].specificity {
			return matched[i].specificity < matched[j].specificity
		}
		return matched[i].order < matched[j].order
	})
	for _, r := range matched {
		for _, prop := range inlineProperties {
			if v, ok := r.declarations[prop]; ok {
				out[prop] = v
			}
		}
	}

	own := parseDeclarations(n.Attr("style"))
	for _, prop := range inlineProperties {
		if v, ok := own[prop]; ok {
			out[prop] = v
		}
	}
	return out
}

// mergeStyleAttr rewrites the node's style attribute so that the computed
// allow-list values become local declarations, preserving any declarations
// outside the allow-list. Sentinel values are skipped.
func mergeStyleAttr(n *Node, computed map[string]string) {
	existing := parseDeclarations(n.Attr("style"))
	inList := map[string]bool{}
	for _, p := range inlineProperties {
		inList[p] = true
	}

	var parts []string
	seen := map[string]bool{}
	// keep foreign declarations in their original relative order, once each
	for _, d := range strings.Split(n.Attr("style"), ";") {
		colon := strings.Index(d, ":")
		if colon < 0 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(d[:colon]))
		if prop == "" || inList[prop] || seen[prop] {
			continue
		}
		seen[prop] = true
		parts = append(parts, prop+":"+existing[prop])
	}
	for _, prop := range inlineProperties {
		v, ok := computed[prop]
		if !ok || isSentinel(prop, v) {
			continue
		}
		parts = append(parts, prop+":"+v)
	}
	if len(parts) == 0 {
		return
	}
	n.SetAttr("style", strings.Join(parts, ";"))
}
