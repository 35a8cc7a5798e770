package growth

// ExplorationRate widens exploration when recent rewards are noisy, and
// narrows it toward exploitation when they are stable. Always in [0.1, 0.3].
func ExplorationRate(variance float64) float64 {
	switch {
	case variance > 100:
		return 0.3
	case variance > 50:
		return 0.2
	default:
		return 0.1
	}
}
