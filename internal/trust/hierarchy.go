package trust

import (
	"context"
	"fmt"
	"sort"

	"provenant/internal/domain"
)

// HierarchyReport lists every structural problem found under a parent rather
// than failing fast, so the score engine can degrade proportionally.
type HierarchyReport struct {
	Valid      bool     `json:"valid"`
	ChildCount int      `json:"childCount"`
	Issues     []string `json:"issues,omitempty"`
}

// HierarchyValidator checks parent/child consistency for composite products:
// the parent must be a main passport, every declared child must resolve, and
// every resolved child must be a component.
type HierarchyValidator struct {
	view  View
	edges Edges
}

// NewHierarchyValidator constructs a validator over the merged view and the
// relationship edges.
func NewHierarchyValidator(view View, edges Edges) *HierarchyValidator {
	return &HierarchyValidator{view: view, edges: edges}
}

// Check validates the hierarchy under one parent DID.
func (v *HierarchyValidator) Check(ctx context.Context, parentDID string) HierarchyReport {
	var report HierarchyReport

	parent, err := v.view.Identity(ctx, parentDID)
	if err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("Identity %s not found", parentDID))
		return report
	}
	if parent.Category != domain.CategoryMain {
		report.Issues = append(report.Issues, fmt.Sprintf("Identity %s is not a main passport", parentDID))
	}

	children := v.declaredChildren(ctx, parentDID)
	report.ChildCount = len(children)
	for _, childDID := range children {
		child, err := v.view.Identity(ctx, childDID)
		if err != nil {
			report.Issues = append(report.Issues, fmt.Sprintf("Child %s not found", childDID))
			continue
		}
		if child.Category != domain.CategoryComponent {
			report.Issues = append(report.Issues, fmt.Sprintf("Child %s is not a component", childDID))
		}
	}

	report.Valid = len(report.Issues) == 0
	return report
}

// declaredChildren unions explicit relationship edges with identities that
// name this parent directly, deduplicated and in stable order.
func (v *HierarchyValidator) declaredChildren(ctx context.Context, parentDID string) []string {
	seen := make(map[string]struct{})
	var children []string
	add := func(did string) {
		if _, dup := seen[did]; dup || did == "" {
			return
		}
		seen[did] = struct{}{}
		children = append(children, did)
	}

	if rels, err := v.edges.Relationships(ctx, parentDID); err == nil {
		sort.SliceStable(rels, func(i, j int) bool { return rels[i].Position < rels[j].Position })
		for _, rel := range rels {
			add(rel.ChildDID)
		}
	}
	for _, ident := range v.view.Identities(ctx) {
		if ident.ParentDID == parentDID {
			add(ident.DID)
		}
	}
	return children
}
