package symex

import "symex/src/equation"

// GetTotalVccs implements get_total_vccs: the number of Assert
// steps the finished equation carries.
func GetTotalVccs(eq *equation.Equation) int { return eq.Stats().TotalVCCs }

// GetRemainingVccs implements get_remaining_vccs. This engine
// never discharges a verification condition itself, so it always equals
// GetTotalVccs; the distinction exists for a downstream decision procedure
// that marks VCCs resolved as it works through them.
func GetRemainingVccs(eq *equation.Equation) int { return eq.Stats().RemainingVCCs }
