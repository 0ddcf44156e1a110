package domain

// TargetMix maps categories to target percentages of the catalog.
// A valid mix sums to (approximately) 100.
type TargetMix map[Category]float64

// Categories returns the target's category keys.
func (t TargetMix) Categories() []Category {
	cats := make([]Category, 0, len(t))
	for cat := range t {
		cats = append(cats, cat)
	}
	return cats
}

// Sum returns the total of all target percentages.
func (t TargetMix) Sum() float64 {
	var sum float64
	for _, pct := range t {
		sum += pct
	}
	return sum
}

// CategoryAnalysis describes one category's position against its target.
type CategoryAnalysis struct {
	Category       Category `json:"category"`
	Current        int      `json:"current"`
	CurrentPercent float64  `json:"current_percent"`
	TargetPercent  float64  `json:"target_percent"`
	Required       float64  `json:"required"`
	UploadsNeeded  int      `json:"uploads_needed"`
}

// MixReport is the outcome of analyzing a snapshot against a target mix.
// Entries contains only categories below target (UploadsNeeded > 0),
// sorted by category name for stable output.
type MixReport struct {
	StoreID  StoreID            `json:"store_id"`
	Date     string             `json:"date"`
	Total    int                `json:"total"`
	Entries  []CategoryAnalysis `json:"entries"`
	Balanced bool               `json:"balanced"`
}

// MaxDeviation returns the largest |current% - target%| across entries.
func (r *MixReport) MaxDeviation() float64 {
	var maxDev float64
	for _, e := range r.Entries {
		dev := e.TargetPercent - e.CurrentPercent
		if dev < 0 {
			dev = -dev
		}
		if dev > maxDev {
			maxDev = dev
		}
	}
	return maxDev
}
