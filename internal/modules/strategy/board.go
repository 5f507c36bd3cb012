package strategy

import (
	"strings"

	"github.com/wuxing-lab/tianji/internal/domain"
)

// techBoardPrefixes are the instrument-code prefixes that classify as tech
// board: STAR market (688), ChiNext (300) and NEEQ listings (4xx, 8xx).
// Order matters only for readability; matching is first-hit.
var techBoardPrefixes = []string{"688", "300", "4", "8"}

// ClassifyBoard maps an instrument code to its listing board.
// Pure and total: any input, including an empty or malformed code,
// classifies as main board unless a tech prefix matches.
func ClassifyBoard(code string) domain.Board {
	for _, prefix := range techBoardPrefixes {
		if strings.HasPrefix(code, prefix) {
			return domain.BoardTech
		}
	}
	return domain.BoardMain
}
