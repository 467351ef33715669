// internal/lock/export_test.go
package lock

func (m *Manager) waiting(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.keys[key]; ok {
		return len(q.waiters)
	}
	return 0
}
