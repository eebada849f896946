package game

import (
	"github.com/aaronzipp/catch-mister-x/internal/graph"
	"github.com/aaronzipp/catch-mister-x/internal/models"
)

// Evaluate checks the termination rules in order after the turn cursor has
// settled. roundOverflow is set when the last detective of the final round
// has moved or forfeited.
func Evaluate(st *models.Game, g *graph.Graph, roundOverflow bool) *models.Verdict {
	if captured(st) {
		return &models.Verdict{Winner: models.WinnerDetectives, Reason: models.ReasonCapture}
	}
	if roundOverflow {
		return &models.Verdict{Winner: models.WinnerMrX, Reason: models.ReasonEscaped}
	}
	// The remaining rules apply at the start of Mr. X's turn.
	if st.Turn != 0 || st.DoubleMove.Active {
		return nil
	}
	if allDetectivesStuck(st, g) {
		return &models.Verdict{Winner: models.WinnerMrX, Reason: models.ReasonDetectivesStuck}
	}
	if mrx := st.MrX(); mrx != nil && !HasLegalMove(st, g, mrx) {
		return &models.Verdict{Winner: models.WinnerDetectives, Reason: models.ReasonMrXCornered}
	}
	return nil
}

func captured(st *models.Game) bool {
	mrx := st.MrX()
	if mrx == nil {
		return false
	}
	for _, d := range st.Detectives() {
		if d.Position == mrx.Position {
			return true
		}
	}
	return false
}

func allDetectivesStuck(st *models.Game, g *graph.Graph) bool {
	for _, d := range st.Detectives() {
		if HasLegalMove(st, g, d) {
			return false
		}
	}
	return true
}
