package taxonomy

import "strings"

// SynonymIndex maps a term to the clusters it belongs to.
type SynonymIndex struct {
	clusters map[string][]int
}

func NewSynonymIndex(clusters []Cluster) *SynonymIndex {
	idx := &SynonymIndex{clusters: make(map[string][]int)}
	for id, cluster := range clusters {
		for _, term := range cluster.Terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				continue
			}
			idx.clusters[term] = append(idx.clusters[term], id)
		}
	}
	return idx
}

// SameCluster reports whether a and b share at least one cluster.
func (s *SynonymIndex) SameCluster(a, b string) bool {
	if s == nil {
		return false
	}

	left := s.clusters[strings.ToLower(strings.TrimSpace(a))]
	if len(left) == 0 {
		return false
	}
	right := s.clusters[strings.ToLower(strings.TrimSpace(b))]

	for _, l := range left {
		for _, r := range right {
			if l == r {
				return true
			}
		}
	}
	return false
}
