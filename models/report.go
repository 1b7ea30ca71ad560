package models

// InsightReport holds computed analytics from a loaded gallery
type InsightReport struct {
	TotalMasterclasses int
	Available          int
	SoldOut            int
	OnWeekend          int
	AveragePrice       float64
	MinPrice           float64
	MaxPrice           float64
	MostExpensive      *Masterclass
	MostComplex        []*Masterclass
	ByLocation         map[string]int
}
