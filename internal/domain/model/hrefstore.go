package model

import "time"

// NegativeTTL is how long a NotProfile record is retained before it may be
// re-resolved on a later visit.
const NegativeTTL = 10 * time.Minute

// HrefStore is an insertion-ordered mapping from rel=me href to HrefRecord.
// Updating an existing key keeps its position; new keys are appended, so
// Records returns observations oldest first.
//
// The zero value is an empty store ready to use.
type HrefStore struct {
	keys    []string
	records map[string]HrefRecord
}

// NewHrefStore builds a store from records in order. A later record with a
// duplicate RelMeHref replaces the earlier value without moving it.
func NewHrefStore(records ...HrefRecord) *HrefStore {
	s := &HrefStore{}
	for _, r := range records {
		s.Put(r)
	}
	return s
}

// Len returns the number of records.
func (s *HrefStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Get returns the record for relMeHref.
func (s *HrefStore) Get(relMeHref string) (HrefRecord, bool) {
	if s == nil {
		return HrefRecord{}, false
	}
	r, ok := s.records[relMeHref]
	return r, ok
}

// Has reports whether a record exists for relMeHref.
func (s *HrefStore) Has(relMeHref string) bool {
	_, ok := s.Get(relMeHref)
	return ok
}

// Put inserts r, or replaces the existing record with the same RelMeHref in place.
func (s *HrefStore) Put(r HrefRecord) {
	if s.records == nil {
		s.records = make(map[string]HrefRecord)
	}
	if _, ok := s.records[r.RelMeHref]; !ok {
		s.keys = append(s.keys, r.RelMeHref)
	}
	s.records[r.RelMeHref] = r
}

// Update applies fn to the record for relMeHref in place. It returns false
// when no such record exists. fn must not change RelMeHref.
func (s *HrefStore) Update(relMeHref string, fn func(r *HrefRecord)) bool {
	r, ok := s.Get(relMeHref)
	if !ok {
		return false
	}
	fn(&r)
	r.RelMeHref = relMeHref
	s.records[relMeHref] = r
	return true
}

// Records returns a copy of all records in insertion order (most recent last).
func (s *HrefStore) Records() []HrefRecord {
	out := make([]HrefRecord, 0, s.Len())
	if s == nil {
		return out
	}
	for _, k := range s.keys {
		out = append(out, s.records[k])
	}
	return out
}

// PurgeExpiredNegatives removes every NotProfile record older than ttl and
// returns how many were removed.
func (s *HrefStore) PurgeExpiredNegatives(now time.Time, ttl time.Duration) int {
	if s.Len() == 0 {
		return 0
	}
	removed := 0
	kept := s.keys[:0]
	for _, k := range s.keys {
		if s.records[k].IsExpiredNegative(now, ttl) {
			delete(s.records, k)
			removed++
			continue
		}
		kept = append(kept, k)
	}
	s.keys = kept
	return removed
}
