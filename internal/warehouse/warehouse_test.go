package warehouse

import "testing"

func TestSanitizeSchema(t *testing.T) {
	valid := []string{"occupancy_facts", "Facts2025", "_staging"}
	for _, value := range valid {
		if _, err := sanitizeSchema(value); err != nil {
			t.Fatalf("expected %q valid, got %v", value, err)
		}
	}
	invalid := []string{"", "  ", "1facts", "facts; DROP TABLE x", "facts-prod", "a.b"}
	for _, value := range invalid {
		if _, err := sanitizeSchema(value); err == nil {
			t.Fatalf("expected %q rejected", value)
		}
	}
	if schema, err := sanitizeSchema("  occupancy_facts  "); err != nil || schema != "occupancy_facts" {
		t.Fatalf("expected trimmed schema, got %q/%v", schema, err)
	}
}

func TestURLFromEnv(t *testing.T) {
	env := map[string]string{}
	getenv := func(key string) string { return env[key] }

	if url := URLFromEnv(getenv); url != "" {
		t.Fatalf("expected empty URL, got %q", url)
	}
	env["DATABASE_URL"] = "postgres://fallback"
	if url := URLFromEnv(getenv); url != "postgres://fallback" {
		t.Fatalf("expected fallback URL, got %q", url)
	}
	env["OCCUPANCY_FACTS_DB_URL"] = " postgres://primary "
	if url := URLFromEnv(getenv); url != "postgres://primary" {
		t.Fatalf("expected primary URL trimmed, got %q", url)
	}
}

func TestNullHelpers(t *testing.T) {
	if nullString("  ").Valid {
		t.Fatal("blank string should be null")
	}
	if !nullString("tag").Valid {
		t.Fatal("non-blank string should be valid")
	}
	if nullInt(nil).Valid {
		t.Fatal("nil int should be null")
	}
	value := 7
	if got := nullInt(&value); !got.Valid || got.Int64 != 7 {
		t.Fatalf("unexpected nullInt: %+v", got)
	}
	if nullFloat(nil).Valid {
		t.Fatal("nil float should be null")
	}
	rate := 0.5
	if got := nullFloat(&rate); !got.Valid || got.Float64 != 0.5 {
		t.Fatalf("unexpected nullFloat: %+v", got)
	}
}
