package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"document-routing-api/models"
	"document-routing-api/utils"
)

var (
	selectLegacyRowsPattern = regexp.MustCompile("(?s)^SELECT .*FROM `documents` WHERE tracking_status IS NULL OR tracking_status = ''")
	updateStatusPattern     = regexp.MustCompile("^UPDATE `documents` SET `document_status`=\\?,`tracking_status`=\\? WHERE id = \\?")
)

func legacyRowsStep(rows ...[2]string) *queryStep {
	values := make([][]driver.Value, 0, len(rows))
	for _, row := range rows {
		values = append(values, []driver.Value{[]byte(row[0]), []byte(row[1])})
	}
	return &queryStep{
		kind:    kindQuery,
		pattern: selectLegacyRowsPattern,
		columns: []string{"id", "status"},
		rows:    values,
	}
}

func TestStatusNormalizerDryRunWritesNothing(t *testing.T) {
	steps := []*queryStep{legacyRowsStep([2]string{"d1", "IN_TRANSIT"}, [2]string{"d2", "completed"})}
	db, state := newScriptedGormDB(t, steps)

	report, err := NewStatusNormalizer(db).Run(context.Background(), true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Scanned != 2 || len(report.Fixes) != 2 {
		t.Fatalf("report = %+v", report)
	}
	if report.Fixes[1].State != (models.State{Tracking: models.TrackingCompleted}) {
		t.Fatalf("fix for d2 = %s", report.Fixes[1].State)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
	if state.commits != 0 || state.rollbacks != 0 {
		t.Fatalf("dry run opened a transaction: commits %d rollbacks %d", state.commits, state.rollbacks)
	}
}

func TestStatusNormalizerUpdatesEachRowInOneTransaction(t *testing.T) {
	steps := []*queryStep{
		legacyRowsStep([2]string{"d1", "DRAFT"}, [2]string{"d2", " partially approved "}),
		{kind: kindExec, pattern: updateStatusPattern, args: []driver.Value{nil, "NEW", "d1"}},
		{kind: kindExec, pattern: updateStatusPattern, args: []driver.Value{"ACCEPTED", "READY_FOR_PICKUP", "d2"}},
	}
	db, state := newScriptedGormDB(t, steps)

	report, err := NewStatusNormalizer(db).Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Fixes) != 2 || report.Fixes[1].Legacy != "partially approved" {
		t.Fatalf("report = %+v", report)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
	if state.commits != 1 || state.rollbacks != 0 {
		t.Fatalf("commits %d rollbacks %d, want 1/0", state.commits, state.rollbacks)
	}
}

func TestStatusNormalizerUnknownStatusWritesNothing(t *testing.T) {
	steps := []*queryStep{legacyRowsStep([2]string{"d1", "DELIVERED"}, [2]string{"d2", "ON_HOLD"})}
	db, state := newScriptedGormDB(t, steps)

	report, err := NewStatusNormalizer(db).Run(context.Background(), false)
	if !errors.Is(err, utils.ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
	if report != nil {
		t.Fatalf("report = %+v, want nil", report)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
	if state.commits != 0 || state.rollbacks != 0 {
		t.Fatalf("commits %d rollbacks %d, want none", state.commits, state.rollbacks)
	}
}

func TestStatusNormalizerNothingToDo(t *testing.T) {
	db, state := newScriptedGormDB(t, []*queryStep{legacyRowsStep()})

	report, err := NewStatusNormalizer(db).Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Scanned != 0 || len(report.Fixes) != 0 || state.commits != 0 {
		t.Fatalf("report %+v commits %d", report, state.commits)
	}
}
