package monitoring

// GetSnapshot returns a copy of the headline numbers with the average
// request duration computed in milliseconds.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	if snap.RequestCount > 0 {
		snap.AvgDurationMS = snap.TotalDuration / float64(snap.RequestCount) * 1000
	}
	return snap
}
