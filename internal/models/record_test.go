package models

import (
	"sync"
	"testing"

	"gorm.io/gorm/schema"
)

func TestExamRecord_UniqueIndexSkipsDeletedRows(t *testing.T) {
	s, err := schema.Parse(&ExamRecord{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("schema.Parse() error = %v", err)
	}

	var idx *schema.Index
	for _, i := range s.ParseIndexes() {
		if i.Name == "idx_exam_user" {
			idx = i
			break
		}
	}
	if idx == nil {
		t.Fatal("idx_exam_user not found")
	}

	if idx.Class != "UNIQUE" {
		t.Errorf("class = %q, want UNIQUE", idx.Class)
	}
	if idx.Where != "deleted_at IS NULL" {
		t.Errorf("where = %q, want deleted_at IS NULL", idx.Where)
	}

	fields := make([]string, 0, len(idx.Fields))
	for _, f := range idx.Fields {
		fields = append(fields, f.DBName)
	}
	if len(fields) != 2 || fields[0] != "exam_id" || fields[1] != "user_id" {
		t.Errorf("fields = %v, want [exam_id user_id]", fields)
	}
}
