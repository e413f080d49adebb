package decompose

import (
	"testing"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

const original = domain.Query("What are the features of LangGraph and who uses it?")

func TestParseSubQueries_CleanArray(t *testing.T) {
	raw := `["What are the features of LangGraph?", "Who uses LangGraph?"]`
	d := parseSubQueries(raw, original, 15)

	if d.Outcome != domain.OutcomeParsed {
		t.Fatalf("expected parsed outcome, got %s", d.Outcome)
	}
	if len(d.SubQueries) != 2 {
		t.Fatalf("expected 2 sub-queries, got %d", len(d.SubQueries))
	}
	if d.SubQueries[0] != "What are the features of LangGraph?" {
		t.Errorf("unexpected first sub-query %q", d.SubQueries[0])
	}
}

func TestParseSubQueries_FencedReply(t *testing.T) {
	raw := "```json\n[\"What is LangGraph?\"]\n```"
	d := parseSubQueries(raw, original, 15)

	if d.Outcome != domain.OutcomeParsed {
		t.Fatalf("expected parsed outcome, got %s", d.Outcome)
	}
	if len(d.SubQueries) != 1 || d.SubQueries[0] != "What is LangGraph?" {
		t.Errorf("unexpected sub-queries %v", d.SubQueries)
	}
}

func TestParseSubQueries_ProseAroundArray(t *testing.T) {
	raw := `Sure! Here are the sub-queries:
["first question", "second question"]
Hope that helps.`
	d := parseSubQueries(raw, original, 15)

	if d.Outcome != domain.OutcomeParsed {
		t.Fatalf("expected parsed outcome, got %s", d.Outcome)
	}
	if len(d.SubQueries) != 2 {
		t.Errorf("expected 2 sub-queries, got %d", len(d.SubQueries))
	}
}

func TestParseSubQueries_MalformedFallsBack(t *testing.T) {
	for _, raw := range []string{
		"I could not split this query.",
		`{"queries": "not an array"}`,
		`[1, 2, 3]`,
		`["unterminated`,
		"",
	} {
		d := parseSubQueries(raw, original, 15)
		if d.Outcome != domain.OutcomeFallback {
			t.Errorf("reply %q: expected fallback, got %s", raw, d.Outcome)
			continue
		}
		if len(d.SubQueries) != 1 || d.SubQueries[0] != domain.SubQuery(original) {
			t.Errorf("reply %q: fallback should carry the query verbatim, got %v", raw, d.SubQueries)
		}
	}
}

func TestParseSubQueries_EmptyArrayFallsBack(t *testing.T) {
	d := parseSubQueries(`[]`, original, 15)
	if d.Outcome != domain.OutcomeFallback {
		t.Fatalf("expected fallback for empty array, got %s", d.Outcome)
	}
}

func TestParseSubQueries_DropsBlankItems(t *testing.T) {
	d := parseSubQueries(`["  ", "real question", ""]`, original, 15)
	if d.Outcome != domain.OutcomeParsed {
		t.Fatalf("expected parsed outcome, got %s", d.Outcome)
	}
	if len(d.SubQueries) != 1 || d.SubQueries[0] != "real question" {
		t.Errorf("expected blanks dropped, got %v", d.SubQueries)
	}
}

func TestParseSubQueries_CapsAtMax(t *testing.T) {
	raw := `["a", "b", "c", "d", "e"]`
	d := parseSubQueries(raw, original, 3)
	if len(d.SubQueries) != 3 {
		t.Fatalf("expected cap at 3, got %d", len(d.SubQueries))
	}
	if d.SubQueries[2] != "c" {
		t.Errorf("expected first three kept in order, got %v", d.SubQueries)
	}
}
