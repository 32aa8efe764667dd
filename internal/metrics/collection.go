package metrics

// CollectionSummary is the slice of collection state the gauges report.
type CollectionSummary interface {
	TotalCount() int
	UniqueCount() int
	TotalValueFloat() float64
}

// UpdateCollectionMetrics refreshes the collection gauges from a committed snapshot.
func UpdateCollectionMetrics(s CollectionSummary) {
	CollectionCardsTotal.Set(float64(s.TotalCount()))
	CollectionUniqueCards.Set(float64(s.UniqueCount()))
	CollectionValueUSD.Set(s.TotalValueFloat())
}
