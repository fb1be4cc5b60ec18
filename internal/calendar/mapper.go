package calendar

import (
	"encoding/json"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
)

// MapActivitiesToWeeks assigns every activity to each week it overlaps.
// Activities without a start date land only in their declared reference week.
// Every week id is present in the result, possibly with an empty list.
func MapActivitiesToWeeks(weeks []WeekBucket, activities []Activity) map[string][]Activity {
	out := make(map[string][]Activity, len(weeks))
	for _, w := range weeks {
		list := []Activity{}
		for _, a := range activities {
			if a.Overlaps(w) {
				list = append(list, a)
			}
		}
		out[w.ID] = list
	}
	return out
}

// Mapper memoizes MapActivitiesToWeeks for the last (weeks, activities) pair.
type Mapper struct {
	mu     sync.Mutex
	key    string
	result map[string][]Activity
	hits   int
}

// Map returns the mapping, recomputing only when the inputs changed.
func (m *Mapper) Map(weeks []WeekBucket, activities []Activity) map[string][]Activity {
	key := fingerprint(weeks, activities)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.result != nil && key == m.key {
		m.hits++
		return m.result
	}
	log.Debug().Int("weeks", len(weeks)).Int("activities", len(activities)).Msg("Remapping activities to weeks")
	m.key = key
	m.result = MapActivitiesToWeeks(weeks, activities)
	return m.result
}

// Hits reports how many calls were served from the memo.
func (m *Mapper) Hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits
}

func fingerprint(weeks []WeekBucket, activities []Activity) string {
	h := fnv.New64a()
	enc := json.NewEncoder(h)
	// Encoding errors are impossible for these plain structs.
	_ = enc.Encode(weeks)
	_ = enc.Encode(activities)
	return strconv.FormatUint(h.Sum64(), 16)
}
