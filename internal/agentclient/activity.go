package agentclient

// ActivityCursor tracks how far a caller has consumed the agent's activity
// log when polling it repeatedly (spuff activity --follow).
//
// The agent returns its most recent N entries on every call with no
// continuation token, so a naive "timestamp greater than last seen" filter
// drops entries that share a timestamp with one already printed. Cursor
// instead remembers the (timestamp, position-in-response) pair of the last
// entry it emitted and only emits entries strictly after it in the
// response's chronological order (response entries arrive newest-first, so
// "position" here counts from the oldest end once reversed).
type ActivityCursor struct {
	timestamp string
	seq       int
	started   bool
}

// NewActivityCursor returns a cursor that has not yet seen any entries.
func NewActivityCursor() *ActivityCursor {
	return &ActivityCursor{}
}

// Advance filters response entries (as returned by the agent, newest-first)
// down to those not yet emitted, oldest first, and advances the cursor past
// them. Call once per poll.
func (c *ActivityCursor) Advance(entries []ActivityEntry) []ActivityEntry {
	chronological := make([]ActivityEntry, len(entries))
	for i, e := range entries {
		chronological[len(entries)-1-i] = e
	}

	if !c.started {
		c.advanceCursor(chronological)
		return chronological
	}

	seenAtCursor := c.seq
	var fresh []ActivityEntry
	for _, e := range chronological {
		switch {
		case e.Timestamp > c.timestamp:
			fresh = append(fresh, e)
		case e.Timestamp == c.timestamp && seenAtCursor > 0:
			seenAtCursor--
		case e.Timestamp == c.timestamp:
			fresh = append(fresh, e)
		}
	}

	c.advanceCursor(chronological)
	return fresh
}

// advanceCursor sets the cursor to the last entry in chronological and
// remembers how many entries share its timestamp, so a later call can skip
// exactly the ones already seen.
func (c *ActivityCursor) advanceCursor(chronological []ActivityEntry) {
	if len(chronological) == 0 {
		return
	}
	last := chronological[len(chronological)-1]
	count := 0
	for _, e := range chronological {
		if e.Timestamp == last.Timestamp {
			count++
		}
	}
	c.timestamp = last.Timestamp
	c.seq = count
	c.started = true
}
