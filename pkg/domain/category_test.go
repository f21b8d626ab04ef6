package domain

import (
	"encoding/json"
	"testing"
)

func TestCategoryUnmarshalBothShapes(t *testing.T) {
	var got []Category
	payload := `["seo-basics", {"id": "cat_7", "name": "link building"}]`
	if err := json.Unmarshal([]byte(payload), &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(got))
	}
	if got[0].Persisted() || got[0].Name != "seo-basics" {
		t.Errorf("label shape decoded as %+v", got[0])
	}
	if !got[1].Persisted() || got[1].ID != "cat_7" || got[1].Name != "link building" {
		t.Errorf("record shape decoded as %+v", got[1])
	}
}

func TestCategoryMarshalRoundTrip(t *testing.T) {
	in := []Category{CategoryLabel("seo-basics"), PersistedCategory("cat_7", "link building")}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out []Category
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("category %d changed across round trip: %+v != %+v", i, in[i], out[i])
		}
	}
}

func TestCategoryRejectsUnsupportedShape(t *testing.T) {
	var c Category
	if err := json.Unmarshal([]byte(`42`), &c); err == nil {
		t.Error("numeric category should be rejected")
	}
}
