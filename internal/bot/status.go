// internal/bot/status.go
//
// Read-only view of the machine for the status API.
// Responsibilities:
//   - Snapshot: state, clue progress, active posts and timestamps under the machine lock.

package bot

import "time"

// Status is a point-in-time view of the machine for the status API.
// The solution is deliberately absent.
type Status struct {
	State          string     `json:"state"`
	RoundActive    bool       `json:"roundActive"`
	CluesPublished int        `json:"cluesPublished"`
	CluesTotal     int        `json:"cluesTotal"`
	ActivePosts    int        `json:"activePosts"`
	RoundStartedAt *time.Time `json:"roundStartedAt,omitempty"`
	LastClueAt     *time.Time `json:"lastClueAt,omitempty"`
}

// Snapshot returns the current status.
func (m *Machine) Snapshot() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{State: m.state.String(), ActivePosts: len(m.active)}
	if m.round != nil {
		st.RoundActive = true
		st.CluesPublished = m.round.Published()
		st.CluesTotal = m.round.Total()
		started := m.roundStartedAt
		st.RoundStartedAt = &started
	}
	if !m.lastClueAt.IsZero() {
		last := m.lastClueAt
		st.LastClueAt = &last
	}
	return st
}
