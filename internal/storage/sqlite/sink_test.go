package sqlite

import (
	"context"
	"testing"

	"qbank/internal/assemble"
	"qbank/internal/storage"
	"qbank/pkg/records"
)

func testSink(t *testing.T) *Sink {
	t.Helper()
	s, closeFn, err := NewSink(context.Background(), storage.Config{
		DSN:         "file:" + t.Name() + "?mode=memory&cache=shared",
		TablePrefix: "qbank_",
		AutoCreate:  true,
	})
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	t.Cleanup(closeFn)
	return s
}

func sampleResult() assemble.Result {
	return assemble.Result{
		Categories: []records.Record{
			{"CategoryKey": "CAT-MICROSOFT", "Name": "MICROSOFT", "Description": "Microsoft certification"},
		},
		Collections: []records.Record{
			{"CollectionKey": "COL-MICROSOFT-AZURE", "Name": "Microsoft Azure", "Description": "Microsoft Azure.",
				"LearningOutcome": "", "IsPublic": true, "CategoryKey": "CAT-MICROSOFT", "CoverImage": ""},
		},
		Quizzes: []records.Record{
			{"QuizKey": "QUIZ-IDENTITY", "CollectionKey": "COL-MICROSOFT-AZURE", "Title": "Identity",
				"Description": "Microsoft Azure", "PassMark": 70, "Difficulty": "medium",
				"isPublic": true, "Status": "draft", "Tags": ""},
		},
		Questions: []records.Record{
			{"QuestionKey": "Q-QUIZ-IDENTITY-001", "QuizKey": "QUIZ-IDENTITY", "Type": "multiple_choice",
				"Text": "What is Entra ID?", "Points": 1, "Explanation": "", "Hints": "",
				"MediaURL": "", "OrderIndex": 1, "ThresholdKeywords": ""},
		},
		Options: []records.Record{
			{"OptionKey": "OPT-Q-QUIZ-IDENTITY-001-01", "QuestionKey": "Q-QUIZ-IDENTITY-001",
				"Text": "A directory", "IsCorrect": true, "OrderIndex": 1, "CorrectOrder": "", "Meta": ""},
			{"OptionKey": "OPT-Q-QUIZ-IDENTITY-001-02", "QuestionKey": "Q-QUIZ-IDENTITY-001",
				"Text": "A firewall", "IsCorrect": false, "OrderIndex": 2, "CorrectOrder": "", "Meta": ""},
		},
	}
}

func TestNewSinkEmptyDSN(t *testing.T) {
	t.Parallel()
	if _, _, err := NewSink(context.Background(), storage.Config{}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestWriteCreatesAndLoads(t *testing.T) {
	s := testSink(t)

	total, err := s.Write(context.Background(), nil, sampleResult())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if total != 6 {
		t.Fatalf("total: got=%d want=6", total)
	}

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM qbank_options").Scan(&n); err != nil {
		t.Fatalf("count options: %v", err)
	}
	if n != 2 {
		t.Fatalf("qbank_options rows: got=%d want=2", n)
	}

	var text string
	err = s.db.QueryRow(
		"SELECT Text FROM qbank_questions WHERE QuestionKey = ?", "Q-QUIZ-IDENTITY-001",
	).Scan(&text)
	if err != nil {
		t.Fatalf("select question: %v", err)
	}
	if want := "What is Entra ID?"; text != want {
		t.Fatalf("question text: got=%q want=%q", text, want)
	}
}

func TestWriteDuplicateKeyFails(t *testing.T) {
	s := testSink(t)

	if _, err := s.Write(context.Background(), nil, sampleResult()); err != nil {
		t.Fatalf("first write: %v", err)
	}
	// Entity keys are primary keys, so a rerun into the same database
	// must refuse rather than silently double rows.
	if _, err := s.Write(context.Background(), nil, sampleResult()); err == nil {
		t.Fatalf("expected primary key violation on rerun")
	}
}

func TestWriteWithoutAutoCreateFails(t *testing.T) {
	s, closeFn, err := NewSink(context.Background(), storage.Config{
		DSN: "file:noauto?mode=memory&cache=shared",
	})
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	t.Cleanup(closeFn)

	if _, err := s.Write(context.Background(), nil, sampleResult()); err == nil {
		t.Fatalf("expected missing-table error without auto_create_table")
	}
}
