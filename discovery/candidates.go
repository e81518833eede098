package discovery

// Confidence grades how a candidate was found.
type Confidence string

const (
	// ConfidenceHigh marks URLs accepted by the strict classifier.
	ConfidenceHigh Confidence = "high"
	// ConfidenceLow marks URLs from the permissive fallback pass, whose
	// false-positive rate is unknown.
	ConfidenceLow Confidence = "low"
)

// Candidate is one discovered URL.
type Candidate struct {
	URL        string     `json:"url"`
	Confidence Confidence `json:"confidence"`
	Source     string     `json:"source"` // listing page or feed it came from
}

// CandidateSet is a set of canonical URLs. Iteration follows insertion
// order so runs are reproducible.
type CandidateSet struct {
	order []string
	items map[string]Candidate
}

// NewCandidateSet creates an empty set.
func NewCandidateSet() *CandidateSet {
	return &CandidateSet{items: make(map[string]Candidate)}
}

// Add inserts c and reports whether its URL was new. Re-adding a known URL
// with high confidence upgrades a low-confidence entry.
func (s *CandidateSet) Add(c Candidate) bool {
	if existing, ok := s.items[c.URL]; ok {
		if existing.Confidence == ConfidenceLow && c.Confidence == ConfidenceHigh {
			s.items[c.URL] = c
		}
		return false
	}

	s.items[c.URL] = c
	s.order = append(s.order, c.URL)
	return true
}

// Contains reports whether url is in the set.
func (s *CandidateSet) Contains(url string) bool {
	_, ok := s.items[url]
	return ok
}

// Len returns the number of URLs.
func (s *CandidateSet) Len() int {
	return len(s.order)
}

// URLs returns the URLs in insertion order.
func (s *CandidateSet) URLs() []string {
	return append([]string(nil), s.order...)
}

// Candidates returns the entries in insertion order.
func (s *CandidateSet) Candidates() []Candidate {
	out := make([]Candidate, 0, len(s.order))
	for _, u := range s.order {
		out = append(out, s.items[u])
	}
	return out
}
