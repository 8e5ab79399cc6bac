package boxdsl

// Rule is a single semantic check over a document.
type Rule interface {
	Name() string
	Apply(doc *Document) Errors
}

// Validate runs the built-in rules (and any extra rules) against the
// document and concatenates their diagnostics in rule order. It never stops
// early and never modifies the document.
//
// Built-in order: duplicate IDs, arrow endpoints, arrow anchors, then value
// ranges. Range checks repeat what the parser already reports, because a
// Document built in code never passes through the parser.
func Validate(doc *Document, extraRules ...Rule) Errors {
	if doc == nil {
		return nil
	}
	rules := builtInRules()
	rules = append(rules, extraRules...)

	var errs Errors
	for _, rule := range rules {
		errs = append(errs, rule.Apply(doc)...)
	}
	return errs
}

func builtInRules() []Rule {
	return []Rule{
		uniqueIDRule{},
		arrowEndpointRule{},
		arrowAnchorRule{},
		rangeRule{},
	}
}

// unique_ids: IDs must be unique among the containers sharing the same
// nearest enclosing container. Groups do not open a scope.
type uniqueIDRule struct{}

func (uniqueIDRule) Name() string { return "unique_ids" }

func (uniqueIDRule) Apply(doc *Document) Errors {
	top := make([]Child, len(doc.Nodes))
	for i, n := range doc.Nodes {
		top[i] = n
	}
	var errs Errors
	checkScope("root", top, &errs)
	return errs
}

func checkScope(scope string, items []Child, errs *Errors) {
	members := flattenScope(items, nil)
	seen := make(map[string]bool, len(members))
	for _, n := range members {
		if seen[n.ID] {
			*errs = append(*errs, referenceErr(n.Pos, "duplicate node ID %s in scope %s", quoteIdent(n.ID), quoteIdent(scope)))
			continue
		}
		seen[n.ID] = true
	}
	for _, n := range members {
		checkScope(n.ID, n.Items, errs)
	}
}

// flattenScope collects the containers visible at one scope level, looking
// through any number of nested groups.
func flattenScope(items []Child, out []*ContainerNode) []*ContainerNode {
	for _, item := range items {
		switch c := item.(type) {
		case *ContainerNode:
			out = append(out, c)
		case *GroupNode:
			out = flattenScope(c.Items, out)
		}
	}
	return out
}

// arrow_endpoints: both ends of every arrow must resolve to a container.
type arrowEndpointRule struct{}

func (arrowEndpointRule) Name() string { return "arrow_endpoints" }

func (arrowEndpointRule) Apply(doc *Document) Errors {
	var errs Errors
	for _, a := range doc.Arrows {
		if doc.NodeByPath(a.Source.Path) == nil {
			errs = append(errs, referenceErr(endpointPos(a, a.Source), "arrow source %s does not match any node", quoteIdent(a.Source.Path)))
		}
		if doc.NodeByPath(a.Target.Path) == nil {
			errs = append(errs, referenceErr(endpointPos(a, a.Target), "arrow target %s does not match any node", quoteIdent(a.Target.Path)))
		}
	}
	return errs
}

// arrow_anchors: an explicit anchor must exist on its resolved node.
// Unresolved nodes are left to arrow_endpoints.
type arrowAnchorRule struct{}

func (arrowAnchorRule) Name() string { return "arrow_anchors" }

func (arrowAnchorRule) Apply(doc *Document) Errors {
	var errs Errors
	for _, a := range doc.Arrows {
		for _, ep := range []Endpoint{a.Source, a.Target} {
			if ep.Anchor == "" {
				continue
			}
			n := doc.NodeByPath(ep.Path)
			if n == nil || n.HasAnchor(ep.Anchor) {
				continue
			}
			errs = append(errs, referenceErr(endpointPos(a, ep), "anchor %s not found on node %s", quoteIdent(ep.Anchor), quoteIdent(ep.Path)))
		}
	}
	return errs
}

// value_ranges: size and anchor coordinates must lie in [0, 1].
type rangeRule struct{}

func (rangeRule) Name() string { return "value_ranges" }

func (rangeRule) Apply(doc *Document) Errors {
	var errs Errors
	doc.Walk(func(_ string, n *ContainerNode) {
		if n.Size != nil && !inUnitRange(*n.Size) {
			errs = append(errs, constraintErr(n.Pos, "%s", sizeRangeMessage(n.ID, *n.Size)))
		}
		for _, a := range n.Anchors {
			errs = append(errs, anchorRangeErrors(n.ID, a)...)
		}
	})
	return errs
}

// endpointPos prefers the endpoint's own position, falling back to the
// arrow's for documents built without positions on endpoints.
func endpointPos(a *Arrow, ep Endpoint) Position {
	if ep.Pos.Line > 0 {
		return ep.Pos
	}
	return a.Pos
}
