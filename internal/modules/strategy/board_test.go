package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wuxing-lab/tianji/internal/domain"
)

func TestClassifyBoard(t *testing.T) {
	testCases := []struct {
		name     string
		code     string
		expected domain.Board
	}{
		{"Shanghai main board", "600519", domain.BoardMain},
		{"Shenzhen main board", "000001", domain.BoardMain},
		{"Shenzhen SME legacy", "002594", domain.BoardMain},
		{"STAR market", "688981", domain.BoardTech},
		{"ChiNext", "300750", domain.BoardTech},
		{"NEEQ 4-prefix", "430047", domain.BoardTech},
		{"NEEQ 8-prefix", "830799", domain.BoardTech},
		{"Shanghai fund 5-prefix", "510300", domain.BoardMain},
		{"Empty code", "", domain.BoardMain},
		{"Short code", "68", domain.BoardMain},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClassifyBoard(tc.code))
		})
	}
}

func TestClassifyBoard_IsTotal(t *testing.T) {
	// Non-numeric garbage must still classify, never panic
	assert.Equal(t, domain.BoardMain, ClassifyBoard("not-a-code"))
	assert.Equal(t, domain.BoardTech, ClassifyBoard("8whatever"))
}
