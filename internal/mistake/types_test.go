package mistake

import (
	"errors"
	"testing"
)

func TestQuestionTypeValid(t *testing.T) {
	for _, qt := range []QuestionType{TypeCalculation, TypeProof, TypeApplication, TypeChoice, TypeFillBlank, TypeComprehensive} {
		if !qt.Valid() {
			t.Errorf("%q should be valid", qt)
		}
	}
	if QuestionType("essay").Valid() {
		t.Error("unknown type accepted")
	}
	if QuestionType("").Valid() {
		t.Error("empty type accepted")
	}
}

func TestDifficultyValid(t *testing.T) {
	for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert} {
		if !d.Valid() {
			t.Errorf("%q should be valid", d)
		}
	}
	if Difficulty("brutal").Valid() {
		t.Error("unknown difficulty accepted")
	}
}

func TestCreateValidate(t *testing.T) {
	base := Create{
		QuestionContent: "q",
		WrongProcess:    "p",
		WrongAnswer:     "w",
		CorrectAnswer:   "c",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid create rejected: %v", err)
	}

	cases := []struct {
		mutate func(*Create)
		field  string
	}{
		{func(c *Create) { c.QuestionContent = "" }, "question_content"},
		{func(c *Create) { c.WrongProcess = "" }, "wrong_process"},
		{func(c *Create) { c.WrongAnswer = "" }, "wrong_answer"},
		{func(c *Create) { c.CorrectAnswer = "" }, "correct_answer"},
		{func(c *Create) { c.QuestionType = "essay" }, "question_type"},
		{func(c *Create) { c.Difficulty = "brutal" }, "difficulty"},
	}
	for _, tc := range cases {
		c := base
		tc.mutate(&c)
		err := c.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected *ValidationError for %s, got %v", tc.field, err)
		}
		if verr.Field != tc.field {
			t.Fatalf("field = %q, want %q", verr.Field, tc.field)
		}
	}
}

func TestUpdateValidate(t *testing.T) {
	if err := (Update{}).Validate(); err != nil {
		t.Fatalf("empty update rejected: %v", err)
	}

	bad := QuestionType("essay")
	err := (Update{QuestionType: &bad}).Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}

	good := DifficultyExpert
	if err := (Update{Difficulty: &good}).Validate(); err != nil {
		t.Fatalf("valid update rejected: %v", err)
	}
}
