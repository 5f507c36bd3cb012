package gemini

import (
	"fmt"
	"strings"

	"github.com/wuxing-lab/tianji/internal/domain"
)

// PlanReviewPrompt asks for a stress-test of a single buy thesis before the
// plan is confirmed.
func PlanReviewPrompt(code, name string, price float64, category domain.RationaleCategory, rationale string) string {
	return fmt.Sprintf(`你是一个专业A股交易员。用户计划买入 %s(%s) 价格%.2f。
核心逻辑：%s。
详细理由：%s。

请用中文(200字以内)进行逻辑压测：
1. **风险提示**：指出该逻辑最大的潜在风险点。
2. **止盈建议**：根据该逻辑属性（短线情绪或长线价值），给出具体的止盈思路。
3. **结论**：批准执行 / 需再观察。`,
		name, code, price, category.Info().Label, rationale)
}

// HoldingsReviewPrompt asks for a risk review of the current open positions
// (concentration, style overlap).
func HoldingsReviewPrompt(open []domain.Position) string {
	holdings := make([]string, 0, len(open))
	for i := range open {
		holdings = append(holdings, fmt.Sprintf("%s(%s)", open[i].Name, open[i].RationaleCategory.Info().Label))
	}

	return fmt.Sprintf(`我是投资经理。目前持仓：%s。
请分析该组合的风险敞口（行业集中度、风格重叠度）。
请用中文，200字以内，给出调仓或风控建议。`,
		strings.Join(holdings, ", "))
}

// HistoryReviewPrompt asks for a retrospective over the closed-trade archive:
// which thesis categories win, which lose.
func HistoryReviewPrompt(closed []domain.ClosedPosition) string {
	records := make([]string, 0, len(closed))
	for i := range closed {
		cp := &closed[i]
		records = append(records, fmt.Sprintf("%s(盈亏%.0f,逻辑%s)", cp.Name, cp.RealizedPL, cp.RationaleCategory.Info().Label))
	}

	return fmt.Sprintf(`根据以下A股交易记录生成复盘报告：%s。
请分析该交易员在不同逻辑（技术/基本面等）下的胜率表现。
指出他最擅长的模式和最容易亏钱的模式。
200字以内，中文。`,
		strings.Join(records, ", "))
}
