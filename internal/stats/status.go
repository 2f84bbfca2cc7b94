package stats

// Qualitative status labels shown on the stats screen.
const (
	StatusGhost          = "Fantôme"
	StatusProcrastinator = "Procrastinateur"
	StatusProductive     = "Productif"
	StatusBalanced       = "Équilibré"
)

// Status maps a (completion rate, charge) pair to a label. It is total: every
// input pair, including zeros, lands on exactly one label.
func Status(completionRate, charge float64) string {
	switch {
	case charge == 0:
		return StatusGhost
	case completionRate < 40:
		return StatusProcrastinator
	case completionRate >= 70 && charge >= 3:
		return StatusProductive
	default:
		return StatusBalanced
	}
}
