package agentclient

import "testing"

func TestExtractJSONObjectOnly(t *testing.T) {
	got := ExtractJSON(`{"a":1,"b":[1,2]}`)
	want := `{"a":1,"b":[1,2]}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractJSONWithBannerText(t *testing.T) {
	out := "Welcome to devbox!\nLast login: Tue\n" + `{"status":"ok"}` + "\n"
	got := ExtractJSON(out)
	if got != `{"status":"ok"}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONArray(t *testing.T) {
	out := "banner\n" + `[{"pid":1},{"pid":2}]` + "\ntrailer"
	got := ExtractJSON(out)
	if got != `[{"pid":1},{"pid":2}]` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONArrayBeforeObject(t *testing.T) {
	out := `[1,2,3] then some {"unrelated":true}`
	got := ExtractJSON(out)
	if got != `[1,2,3]` {
		t.Errorf("expected the earlier array to win, got %q", got)
	}
}

func TestExtractJSONSkipsANSIEscapedBracket(t *testing.T) {
	out := "\x1b[31merror\x1b[0m " + `{"ok":false}`
	got := ExtractJSON(out)
	if got != `{"ok":false}` {
		t.Errorf("expected ANSI color codes to be skipped, got %q", got)
	}
}

func TestExtractJSONNoJSONFallsBackToTrimmed(t *testing.T) {
	got := ExtractJSON("  plain text output  ")
	if got != "plain text output" {
		t.Errorf("got %q", got)
	}
}

func TestFindJSONArrayStartIgnoresBareBracketInProse(t *testing.T) {
	// A `[` not followed by an object/string/digit/close-bracket isn't
	// treated as the start of a JSON array (e.g. a markdown-style link).
	_, ok := findJSONArrayStart("see [here] for details")
	if ok {
		t.Error("expected no JSON array match in prose brackets")
	}
}
