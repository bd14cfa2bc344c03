// Package lifecycle implements the task state machine: it validates and
// applies status and assignment changes on a task snapshot and produces the
// per-field change set consumed by the activity recorder and the
// notification fan-out.
package lifecycle

import (
	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
)

// Field names used as change set keys. The recorder recognizes a subset of
// these; unrecognized fields are ignored downstream, never errors.
const (
	FieldStatus          = "status"
	FieldAssigneeID      = "assigneeId"
	FieldVerifierID      = "verifierId"
	FieldDueDate         = "dueDate"
	FieldStartDate       = "startDate"
	FieldPriority        = "priority"
	FieldTitle           = "title"
	FieldDescription     = "description"
	FieldExpectedResult  = "expectedResult"
	FieldResolvedReport  = "resolvedReportId"
	FieldIsRepeating     = "isRepeating"
	FieldRepeatFrequency = "repeatFrequency"
)

// Change is one field's old/new pair.
type Change struct {
	Old any
	New any
}

// ChangeSet captures everything one create/update mutated: one Change per
// discrete field, plus the synthetic created fact so downstream consumers
// treat creation uniformly with update.
type ChangeSet struct {
	// Created is true for the synthetic change set produced by ApplyCreate.
	// Creation is not a change from a prior state: the recorder writes no
	// entries for it, while fan-out maps it to the task.created event.
	Created bool

	// Fields maps field name to its old/new pair.
	Fields map[string]Change
}

// NewChangeSet returns an empty change set.
func NewChangeSet() ChangeSet {
	return ChangeSet{Fields: make(map[string]Change)}
}

// Has reports whether the given field changed.
func (cs ChangeSet) Has(field string) bool {
	_, ok := cs.Fields[field]
	return ok
}

// Empty reports whether nothing changed.
func (cs ChangeSet) Empty() bool {
	return !cs.Created && len(cs.Fields) == 0
}

// record stores a change for the given field.
func (cs ChangeSet) record(field string, old, new any) {
	cs.Fields[field] = Change{Old: old, New: new}
}

// StatusChange returns the status old/new pair when the status changed.
func (cs ChangeSet) StatusChange() (old, new domain.TaskStatus, ok bool) {
	change, found := cs.Fields[FieldStatus]
	if !found {
		return "", "", false
	}
	old, _ = change.Old.(domain.TaskStatus)
	new, _ = change.New.(domain.TaskStatus)
	return old, new, true
}

// AssignmentKind classifies how an assignee or verifier reference changed.
type AssignmentKind int

// Assignment classification outcomes.
const (
	AssignmentNoChange AssignmentKind = iota
	AssignmentAssigned
	AssignmentReassigned
	AssignmentUnassigned
)

// ClassifyAssignment compares an old and new user reference and classifies
// the change. Reassignment is distinct from assignment because it must
// synthesize two notification events downstream: an unassignment to the
// previous holder and an assignment to the new one.
func ClassifyAssignment(old, new *uuid.UUID) AssignmentKind {
	switch {
	case old == nil && new == nil:
		return AssignmentNoChange
	case old == nil:
		return AssignmentAssigned
	case new == nil:
		return AssignmentUnassigned
	case *old == *new:
		return AssignmentNoChange
	default:
		return AssignmentReassigned
	}
}

// UserChange returns the old/new user references for an assignee or
// verifier field, along with the classification.
func (cs ChangeSet) UserChange(field string) (old, new *uuid.UUID, kind AssignmentKind) {
	change, found := cs.Fields[field]
	if !found {
		return nil, nil, AssignmentNoChange
	}
	old, _ = change.Old.(*uuid.UUID)
	new, _ = change.New.(*uuid.UUID)
	return old, new, ClassifyAssignment(old, new)
}
