package profile

import "github.com/spigell/jobrec/internal/posting"

// Salary band heuristic keyed by total years of experience. The numbers
// are a product default, not market data.
const (
	juniorYears = 2
	midYears    = 5
	seniorYears = 8
)

var (
	juniorBand = posting.SalaryRange{Min: 50000, Max: 70000}
	midBand    = posting.SalaryRange{Min: 70000, Max: 100000}
	seniorBand = posting.SalaryRange{Min: 100000, Max: 130000}
	leadBand   = posting.SalaryRange{Min: 130000, Max: 180000}
)

func EstimateSalary(totalYears float64) posting.SalaryRange {
	switch {
	case totalYears < juniorYears:
		return juniorBand
	case totalYears < midYears:
		return midBand
	case totalYears < seniorYears:
		return seniorBand
	default:
		return leadBand
	}
}
