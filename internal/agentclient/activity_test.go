package agentclient

import "testing"

func strPtr(s string) *string { return &s }

func TestActivityCursorFirstCallEmitsEverything(t *testing.T) {
	c := NewActivityCursor()
	// Agent responses arrive newest-first.
	resp := []ActivityEntry{
		{Timestamp: "2026-07-31T10:00:02Z", Event: "exec"},
		{Timestamp: "2026-07-31T10:00:01Z", Event: "exec"},
		{Timestamp: "2026-07-31T10:00:00Z", Event: "login"},
	}
	fresh := c.Advance(resp)
	if len(fresh) != 3 {
		t.Fatalf("expected 3 entries on first call, got %d", len(fresh))
	}
	if fresh[0].Event != "login" || fresh[2].Event != "exec" {
		t.Errorf("expected chronological order oldest-first, got %+v", fresh)
	}
}

func TestActivityCursorSkipsAlreadySeen(t *testing.T) {
	c := NewActivityCursor()
	first := []ActivityEntry{
		{Timestamp: "2026-07-31T10:00:01Z", Event: "b"},
		{Timestamp: "2026-07-31T10:00:00Z", Event: "a"},
	}
	c.Advance(first)

	// Next poll returns the same window plus one new entry appended.
	second := []ActivityEntry{
		{Timestamp: "2026-07-31T10:00:02Z", Event: "c"},
		{Timestamp: "2026-07-31T10:00:01Z", Event: "b"},
		{Timestamp: "2026-07-31T10:00:00Z", Event: "a"},
	}
	fresh := c.Advance(second)
	if len(fresh) != 1 || fresh[0].Event != "c" {
		t.Errorf("expected only the new entry, got %+v", fresh)
	}
}

func TestActivityCursorHandlesDuplicateTimestamps(t *testing.T) {
	c := NewActivityCursor()
	first := []ActivityEntry{
		{Timestamp: "2026-07-31T10:00:00Z", Event: "second"},
		{Timestamp: "2026-07-31T10:00:00Z", Event: "first"},
	}
	c.Advance(first)

	second := []ActivityEntry{
		{Timestamp: "2026-07-31T10:00:01Z", Event: "third"},
		{Timestamp: "2026-07-31T10:00:00Z", Event: "second"},
		{Timestamp: "2026-07-31T10:00:00Z", Event: "first"},
	}
	fresh := c.Advance(second)
	if len(fresh) != 1 || fresh[0].Event != "third" {
		t.Errorf("expected only the genuinely new entry despite shared timestamps, got %+v", fresh)
	}
}

func TestActivityCursorNoNewEntries(t *testing.T) {
	c := NewActivityCursor()
	resp := []ActivityEntry{{Timestamp: "2026-07-31T10:00:00Z", Event: "a"}}
	c.Advance(resp)
	fresh := c.Advance(resp)
	if len(fresh) != 0 {
		t.Errorf("expected no new entries on an unchanged poll, got %+v", fresh)
	}
}
