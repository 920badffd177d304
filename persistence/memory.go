// persistence/memory.go
package persistence

import (
	"sort"
	"sync"

	"github.com/wfunc/tetris/models"
)

// Memory keeps records in process. It is the default store and the one the
// tests use.
type Memory struct {
	mutex   sync.RWMutex
	records map[string]models.GameRecord
	order   []string
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]models.GameRecord)}
}

func (m *Memory) SaveGameRecord(r *models.GameRecord) error {
	if err := validateRecord(r); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.records[r.ID]; !exists {
		m.order = append(m.order, r.ID)
	}
	m.records[r.ID] = *r
	return nil
}

func (m *Memory) LoadGameRecord(id string) (*models.GameRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &r, nil
}

func (m *Memory) TopScores(limit int) ([]models.GameRecord, error) {
	m.mutex.RLock()
	records := make([]models.GameRecord, 0, len(m.order))
	for _, id := range m.order {
		records = append(records, m.records[id])
	}
	m.mutex.RUnlock()

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].EndedAt.Before(records[j].EndedAt)
	})
	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (m *Memory) GetPlayerStats(player string) (*models.PlayerStats, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := models.PlayerStats{Player: player}
	for _, r := range m.records {
		if r.Player != player {
			continue
		}
		stats.TotalGames++
		stats.TotalLines += r.Score
		stats.TotalPieces += r.Locked
		stats.PlayTime += int(r.Duration().Seconds())
		if r.Score > stats.BestScore {
			stats.BestScore = r.Score
		}
	}
	if stats.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}
	return &stats, nil
}

func (m *Memory) Close() error { return nil }
