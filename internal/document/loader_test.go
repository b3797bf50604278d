package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPlainText(t *testing.T) {
	path := writeFile(t, "patient42.txt", "Aspirin 100mg 1-0-1-0")

	docs, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	if docs[0].PatientID != "patient42" {
		t.Errorf("patient id = %q", docs[0].PatientID)
	}
	if docs[0].Text != "Aspirin 100mg 1-0-1-0" {
		t.Errorf("text = %q", docs[0].Text)
	}
}

func TestLoadHTMLStripsMarkup(t *testing.T) {
	path := writeFile(t, "note.html",
		"<html><body><h1>Discharge note</h1><p>Aspirin 100mg</p></body></html>")

	docs, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	if strings.Contains(docs[0].Text, "<p>") {
		t.Errorf("markup not stripped: %q", docs[0].Text)
	}
	if !strings.Contains(docs[0].Text, "Aspirin 100mg") {
		t.Errorf("content lost: %q", docs[0].Text)
	}
}

func TestLoadRejectsUnsupportedType(t *testing.T) {
	// A PNG header makes mimetype classify this as an image.
	path := writeFile(t, "scan.png", "\x89PNG\r\n\x1a\n000000")

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unsupported document type")
	}
}

func TestLoadCSVColumn(t *testing.T) {
	path := writeFile(t, "notes.csv",
		"patient_id,note,other\n7,Aspirin 100mg,x\n8,Metformin 850mg,y\n")

	docs, err := LoadCSVColumn(path, "note")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].PatientID != "7" || docs[0].Text != "Aspirin 100mg" {
		t.Errorf("first document = %+v", docs[0])
	}
}

func TestLoadCSVColumnFallsBackToRowNumber(t *testing.T) {
	path := writeFile(t, "notes.csv", "note\nAspirin 100mg\n")

	docs, err := LoadCSVColumn(path, "note")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if docs[0].PatientID != "1" {
		t.Errorf("patient id = %q, want row number", docs[0].PatientID)
	}
}

func TestLoadCSVColumnMissingColumn(t *testing.T) {
	path := writeFile(t, "notes.csv", "a,b\n1,2\n")

	if _, err := LoadCSVColumn(path, "note"); err == nil {
		t.Fatal("expected an error for a missing column")
	}
}
