package password

import "testing"

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	if cfg.Policy.MinLength != 8 {
		t.Fatalf("MinLength = %d, want 8", cfg.Policy.MinLength)
	}
	if !cfg.Policy.RequireUppercase || !cfg.Policy.RequireDigit {
		t.Fatalf("expected uppercase and digit requirements enabled by default")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("TASKLIST_PASSWORD_MIN_LEN", "12")
	t.Setenv("TASKLIST_PASSWORD_REQUIRE_DIGIT", "false")
	t.Setenv("TASKLIST_ARGON2_ITERATIONS", "4")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	if cfg.Policy.MinLength != 12 {
		t.Fatalf("MinLength = %d, want 12", cfg.Policy.MinLength)
	}
	if cfg.Policy.RequireDigit {
		t.Fatalf("expected digit requirement disabled")
	}
	if cfg.Params.Iterations != 4 {
		t.Fatalf("Iterations = %d, want 4", cfg.Params.Iterations)
	}
}

func TestFromEnv_RejectsInvalid(t *testing.T) {
	t.Setenv("TASKLIST_PASSWORD_MIN_LEN", "300")
	t.Setenv("TASKLIST_PASSWORD_MAX_LEN", "20")

	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error for min > max")
	}
}

func TestFromEnv_RejectsGarbage(t *testing.T) {
	t.Setenv("TASKLIST_ARGON2_MEMORY_KIB", "lots")

	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error for non-numeric memory")
	}
}
