package oracle

import (
	"testing"
)

func TestParseExtraction_PlainJSON(t *testing.T) {
	got, err := ParseExtraction(`{"entities":[{"label":"Raft","type":"CONCEPT","description":"A consensus algorithm."}],"relationships":[]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Entities) != 1 || got.Entities[0].Label != "Raft" {
		t.Errorf("entities = %+v", got.Entities)
	}
}

func TestParseExtraction_FencedJSON(t *testing.T) {
	raw := "```json\n{\"entities\":[],\"relationships\":[{\"source\":\"A\",\"target\":\"B\",\"label\":\"uses\",\"sentence\":\"A uses B.\"}]}\n```"
	got, err := ParseExtraction(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Relationships) != 1 || got.Relationships[0].Label != "uses" {
		t.Errorf("relationships = %+v", got.Relationships)
	}
}

func TestParseExtraction_BareFence(t *testing.T) {
	raw := "```\n{\"entities\":[],\"relationships\":[]}\n```"
	if _, err := ParseExtraction(raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseExtraction_Garbage(t *testing.T) {
	if _, err := ParseExtraction("Sorry, I cannot help with that."); err == nil {
		t.Fatal("expected error for non-JSON reply")
	}
}

func TestConfigured(t *testing.T) {
	if New(Config{}).Configured() {
		t.Error("empty key should not be configured")
	}
	if !New(Config{APIKey: "k"}).Configured() {
		t.Error("non-empty key should be configured")
	}
}
