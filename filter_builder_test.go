package esquery

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestFilterBuilder_Build(t *testing.T) {
	got := Filter().
		Eq("status", "active").
		Gte("age", 18).
		Lt("age", 65).
		In("tags", "a", "b").
		Exists("email").
		Or(Filter().Eq("priority", "high"), Filter().Lt("due", "2024-01-01")).
		Sort("created", true).
		Limit(10).
		Select("name").
		Build()

	want := map[string]any{
		"status":  "active",
		"age":     map[string]any{"$gte": 18, "$lt": 65},
		"tags":    map[string]any{"$in": []any{"a", "b"}},
		"$exists": []any{"email"},
		"$or": []any{
			map[string]any{"priority": "high"},
			map[string]any{"due": map[string]any{"$lt": "2024-01-01"}},
		},
		"$sort":   map[string]any{"created": -1},
		"$limit":  10,
		"$select": []any{"name"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got  %#v\nwant %#v", got, want)
	}
}

func TestFilterBuilder_BuildIsACopy(t *testing.T) {
	b := Filter().Gt("n", 1)
	first := b.Build()
	b.Gt("n", 2)

	if first["n"].(map[string]any)["$gt"] != 1 {
		t.Error("Build result changed after further builder calls")
	}
}

func TestFilterBuilder_Scoped(t *testing.T) {
	got := Filter().
		Nested("comments", Filter().Match("comments.body", "go")).
		Child("answer", Filter().Eq("accepted", true)).
		Build()

	nested := got["$nested"].(map[string]any)
	if nested["$path"] != "comments" {
		t.Errorf("nested path = %v", nested["$path"])
	}
	child := got["$child"].(map[string]any)
	if child["$type"] != "answer" || child["accepted"] != true {
		t.Errorf("child = %v", child)
	}
}

func TestFilterBuilder_TranslatesEndToEnd(t *testing.T) {
	eng := New()
	q, err := eng.Translate(Filter().
		Eq("status", "active").
		Or(Filter().Eq("priority", "high"), Filter().Lt("due", "2024-01-01")).
		Build())
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	b, _ := json.Marshal(q)
	var got struct {
		Bool struct {
			Filter             []any `json:"filter"`
			Should             []any `json:"should"`
			MinimumShouldMatch int   `json:"minimum_should_match"`
		} `json:"bool"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Bool.Filter) != 1 || len(got.Bool.Should) != 2 || got.Bool.MinimumShouldMatch != 1 {
		t.Errorf("unexpected query %s", b)
	}
}

func TestFilterBuilder_SimpleQueryString(t *testing.T) {
	limits := DefaultLimits()
	limits.SearchableFields = []string{"title"}
	eng := New(WithLimits(limits), WithDefaultIndex("docs"))

	f := Filter().SimpleQueryString("go generics", "title^2").Build()
	if _, err := eng.Find(t.Context(), "", f); err != nil {
		t.Fatalf("find: %v", err)
	}

	f = Filter().SimpleQueryString("go", "body").Build()
	if _, err := eng.Find(t.Context(), "", f); err == nil {
		t.Error("expected non-searchable field to be rejected")
	}
}
