package catalog

// Keyword is a plot keyword with the community's relevance votes.
type Keyword struct {
	Text    string `json:"text"    bson:"text"`
	Helpful int    `json:"helpful" bson:"helpful"`
	Total   int    `json:"total"   bson:"total"`
}

// Relevance is the fraction of voters who found the keyword relevant, in
// [0, 1]. A keyword with no votes has relevance 0.
func (k Keyword) Relevance() float64 {
	if k.Total <= 0 || k.Helpful <= 0 {
		return 0
	}
	if k.Helpful >= k.Total {
		return 1
	}
	return float64(k.Helpful) / float64(k.Total)
}
