package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"VCPSentinel/internal/model"
	"VCPSentinel/internal/scanner"
)

const dateLayout = "2006-01-02"

func kindLabel(k model.EventKind) string {
	switch k {
	case model.EventBuy:
		return "🟢 <b>买入信号</b>"
	case model.EventSell:
		return "🔴 <b>卖出信号</b>"
	default:
		return html.EscapeString(string(k))
	}
}

func stateLabel(s model.SignalState) string {
	if s == model.StateHolding {
		return "持仓中"
	}
	return "待触发"
}

// FormatEvent formats one buy or sell event.
func FormatEvent(ev model.Event) string {
	return fmt.Sprintf("%s | <b>%s</b>\n日期: %s\n价格: %.2f\n%s\n",
		kindLabel(ev.Kind), html.EscapeString(ev.Symbol), ev.Date.Format(dateLayout),
		ev.Price, html.EscapeString(ev.Description))
}

// FormatScanReport summarizes a scan: events first, then near-complete
// patterns, then failures.
func FormatScanReport(rep *scanner.Report) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>VCP 扫描报告</b> | %s\n", rep.Started.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("标的数: %d | 信号: %d | 失败: %d\n\n", len(rep.Results), len(rep.Events()), rep.Failed()))

	if events := rep.Events(); len(events) > 0 {
		for _, ev := range events {
			b.WriteString(FormatEvent(ev))
			b.WriteString("\n")
		}
	} else {
		b.WriteString("今日无新信号\n\n")
	}

	var watch []scanner.SymbolResult
	for _, r := range rep.Results {
		if r.Err == nil && r.Output != nil && r.Output.Ready && r.Output.Progress >= 0.5 && len(r.Events) == 0 {
			watch = append(watch, r)
		}
	}
	if len(watch) > 0 {
		b.WriteString("👀 <b>观察名单:</b>\n")
		for _, r := range watch {
			o := r.Output
			b.WriteString(fmt.Sprintf("  %s 进度 %.0f%% | 收缩 %d 次 (%.1f%% → %.1f%%) | %s\n",
				html.EscapeString(r.Symbol), o.Progress*100, o.ContractionCount,
				o.MaxContractionPct, o.MinContractionPct, stateLabel(r.State)))
		}
		b.WriteString("\n")
	}

	if rep.Failed() > 0 {
		b.WriteString("⚠️ <b>失败:</b>\n")
		for _, r := range rep.Results {
			if r.Err != nil {
				b.WriteString(fmt.Sprintf("  %s: %s\n", html.EscapeString(r.Symbol), html.EscapeString(r.Err.Error())))
			}
		}
	}
	return b.String()
}

// FormatStatus formats the stored symbol states.
func FormatStatus(states []model.SymbolState) string {
	var b strings.Builder
	b.WriteString("📦 <b>信号状态</b>\n\n")
	if len(states) == 0 {
		b.WriteString("暂无记录, 请先执行 /scan\n")
		return b.String()
	}
	holding := 0
	for _, s := range states {
		line := fmt.Sprintf("%s: %s | 最新K线 %s", html.EscapeString(s.Symbol), stateLabel(s.State), s.LastDate.Format(dateLayout))
		if s.State == model.StateHolding {
			holding++
			line += fmt.Sprintf(" | 入场 %.2f @ %s", s.EntryPrice, s.EntryDate.Format(dateLayout))
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(fmt.Sprintf("\n持仓 %d / 共 %d\n", holding, len(states)))
	return b.String()
}

// FormatRecentEvents lists recorded events, newest first.
func FormatRecentEvents(events []model.Event) string {
	var b strings.Builder
	b.WriteString("🗂 <b>最近信号</b>\n\n")
	if len(events) == 0 {
		b.WriteString("暂无信号记录\n")
		return b.String()
	}
	for _, ev := range events {
		verb := "买入"
		if ev.Kind == model.EventSell {
			verb = "卖出"
		}
		b.WriteString(fmt.Sprintf("%s %s %s @ %.2f\n", ev.Date.Format(dateLayout), verb, html.EscapeString(ev.Symbol), ev.Price))
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "可用命令:\n" +
		"• /scan 立即扫描全部标的\n" +
		"• /scan AAPL MSFT 扫描指定标的\n" +
		"• /status 查看信号状态\n" +
		"• /events 查看最近信号\n" +
		"• /help 显示本帮助"
}

// FormatError formats a task failure.
func FormatError(task string, err error) string {
	return fmt.Sprintf("❌ %s失败: %s\n时间: %s", task, html.EscapeString(err.Error()), time.Now().Format("2006-01-02 15:04"))
}
