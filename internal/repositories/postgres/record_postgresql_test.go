package postgres

import (
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func columnNames(cols []clause.Column) []string {
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return names
}

func assignmentMap(set clause.Set) map[string]interface{} {
	out := make(map[string]interface{}, len(set))
	for _, a := range set {
		out[a.Column.Name] = a.Value
	}
	return out
}

func TestAnswerConflictUpdate(t *testing.T) {
	oc := answerConflictUpdate()

	if got := columnNames(oc.Columns); len(got) != 2 || got[0] != "record_id" || got[1] != "question_id" {
		t.Errorf("conflict target = %v, want [record_id question_id]", got)
	}

	set := assignmentMap(oc.DoUpdates)
	for _, col := range []string{"answer", "score", "graded_by", "graded_at", "updated_at"} {
		if _, ok := set[col]; !ok {
			t.Errorf("conflict update misses column %q", col)
		}
	}
	if oc.DoNothing {
		t.Error("a racing save must replace the row, not be dropped")
	}
}

func TestCheatConflictIncrement(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	oc := cheatConflictIncrement(at)

	if got := columnNames(oc.Columns); len(got) != 3 || got[0] != "exam_id" || got[1] != "user_id" || got[2] != "cheat_type" {
		t.Errorf("conflict target = %v, want [exam_id user_id cheat_type]", got)
	}

	set := assignmentMap(oc.DoUpdates)

	// The bump has to happen inside the database, not as a value read
	// earlier in the request.
	expr, ok := set["count"].(clause.Expr)
	if !ok {
		t.Fatalf("count assignment is %T, want clause.Expr", set["count"])
	}
	if expr.SQL != gorm.Expr("exam_cheat_logs.count + 1").SQL {
		t.Errorf("count expr = %q, want exam_cheat_logs.count + 1", expr.SQL)
	}

	if got, ok := set["last_time"].(time.Time); !ok || !got.Equal(at) {
		t.Errorf("last_time = %v, want %v", set["last_time"], at)
	}
}
