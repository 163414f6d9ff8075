package repository

import (
	"testing"
)

func TestBuildLikeConditionByDialect(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("sqlite", []string{"users.email", " ", "users.display_name"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	want := "users.email LIKE ? OR users.display_name LIKE ?"
	if condition != want {
		t.Fatalf("sqlite condition mismatch, want %s got %s", want, condition)
	}

	condition, _ = buildLikeConditionByDialect("postgres", []string{"users.email"})
	if condition != "users.email ILIKE ?" {
		t.Fatalf("postgres condition mismatch, got %s", condition)
	}
}

func TestBuildLikeConditionNilDB(t *testing.T) {
	condition, argCount := buildLikeCondition(nil, []string{"domain"})
	if argCount != 1 || condition != "domain LIKE ?" {
		t.Fatalf("nil db should fall back to sqlite, got %s (%d)", condition, argCount)
	}
}

func TestDayExprByDialect(t *testing.T) {
	if got := dayExprByDialect("sqlite", "created_at"); got != "CAST(date(created_at) AS TEXT)" {
		t.Fatalf("sqlite day expr mismatch, got %s", got)
	}
	if got := dayExprByDialect("postgres", "created_at"); got != "to_char(created_at, 'YYYY-MM-DD')" {
		t.Fatalf("postgres day expr mismatch, got %s", got)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%test%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%test%" {
			t.Fatalf("args[%d] want %%test%% got %v", idx, arg)
		}
	}
}
