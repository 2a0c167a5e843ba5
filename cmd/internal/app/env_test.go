package app

import (
	"testing"
	"time"
)

func TestEnvStringList(t *testing.T) {
	t.Setenv("TASKLIST_TEST_LIST", " https://a.example.com , ,https://b.example.com ")

	got := EnvStringList("TASKLIST_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "https://a.example.com" || got[1] != "https://b.example.com" {
		t.Fatalf("unexpected list: %#v", got)
	}

	if def := EnvStringList("TASKLIST_TEST_LIST_UNSET", []string{"*"}); len(def) != 1 || def[0] != "*" {
		t.Fatalf("default not applied: %#v", def)
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("TASKLIST_TEST_DUR", "250ms")
	if got := EnvDuration("TASKLIST_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Fatalf("EnvDuration=%v", got)
	}

	t.Setenv("TASKLIST_TEST_DUR", "-1s")
	if got := EnvDuration("TASKLIST_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("negative duration should fall back, got %v", got)
	}
}

func TestEnvInt32(t *testing.T) {
	t.Setenv("TASKLIST_TEST_I32", "25")
	if got := EnvInt32("TASKLIST_TEST_I32", 10); got != 25 {
		t.Fatalf("EnvInt32=%d", got)
	}

	t.Setenv("TASKLIST_TEST_I32", "nope")
	if got := EnvInt32("TASKLIST_TEST_I32", 10); got != 10 {
		t.Fatalf("invalid int should fall back, got %d", got)
	}
}
