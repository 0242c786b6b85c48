// Package telegram exposes the scanner through a Telegram chat bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/fd1az/product-scout/business/opportunity/domain"
	"github.com/fd1az/product-scout/internal/apperror"
	"github.com/fd1az/product-scout/internal/logger"
	"github.com/fd1az/product-scout/internal/money"
)

const (
	defaultTop   = 5
	maxTop       = 20
	replyTimeout = 30 * time.Second
)

// Scout is what the bot needs from the opportunity scanner.
type Scout interface {
	Analyze(ctx context.Context, item domain.WatchItem) (*domain.Verdict, error)
	Latest() *domain.Snapshot
}

// Config holds the bot settings.
type Config struct {
	Token              string
	PollTimeout        time.Duration
	AlertMinConfidence float64
}

// Bot answers chat commands and owns the alert dispatcher.
type Bot struct {
	bot    *tele.Bot
	scout  Scout
	alerts *AlertDispatcher
	log    logger.LoggerInterface
}

// NewBot creates the bot and registers its commands.
func NewBot(cfg Config, scout Scout, log logger.LoggerInterface) (*Bot, error) {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 10 * time.Second
	}
	if log == nil {
		log = logger.NewDiscard()
	}

	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeNotifierFailed,
			apperror.WithCause(err),
			apperror.WithContext("create telegram bot"))
	}

	bot := &Bot{
		bot:    b,
		scout:  scout,
		alerts: NewAlertDispatcher(b, cfg.AlertMinConfidence),
		log:    log,
	}
	bot.register()
	return bot, nil
}

// Alerts returns the dispatcher to register with the scanner.
func (b *Bot) Alerts() *AlertDispatcher {
	return b.alerts
}

// Start begins long polling in the background.
func (b *Bot) Start(ctx context.Context) {
	b.log.Info(ctx, "telegram bot started", "bot", b.bot.Me.Username)
	go b.bot.Start()
}

// Stop stops polling.
func (b *Bot) Stop() error {
	b.bot.Stop()
	return nil
}

func (b *Bot) register() {
	b.bot.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.bot.Handle("/analyze", func(c tele.Context) error {
		item, err := parseAnalyzeArgs(c.Args())
		if err != nil {
			return c.Send("Usage: /analyze <keyword> <base_price> [resale_price]\nExample: /analyze wireless earbuds 20")
		}

		ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
		defer cancel()

		_ = c.Notify(tele.Typing)
		verdict, err := b.scout.Analyze(ctx, item)
		if err != nil {
			if apperror.IsInvalidInput(err) {
				return c.Send(fmt.Sprintf("Invalid input: %v", err))
			}
			b.log.Error(ctx, "analyze failed", "keyword", item.Keyword, "error", err)
			return c.Send("Sorry, the analysis failed. Try again in a moment.")
		}
		return c.Send(formatVerdict(verdict))
	})

	b.bot.Handle("/top", func(c tele.Context) error {
		n, err := parseTopArgs(c.Args())
		if err != nil {
			return c.Send(fmt.Sprintf("Usage: /top [n] (1-%d)", maxTop))
		}
		return c.Send(formatTop(b.scout.Latest(), n))
	})

	b.bot.Handle("/alerts", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}

		mode, err := parseAlertMode(c.Args())
		if err != nil {
			return c.Send("Usage: /alerts on | /alerts off | /alerts status")
		}

		switch mode {
		case "on":
			if b.alerts.Subscribe(chat.ID) {
				return c.Send("Opportunity alerts enabled for this chat.")
			}
			return c.Send("Opportunity alerts are already enabled for this chat.")
		case "off":
			if b.alerts.Unsubscribe(chat.ID) {
				return c.Send("Opportunity alerts disabled for this chat.")
			}
			return c.Send("Opportunity alerts are already disabled for this chat.")
		default:
			if b.alerts.IsSubscribed(chat.ID) {
				return c.Send("Alerts status: ON")
			}
			return c.Send("Alerts status: OFF")
		}
	})
}

// parseAnalyzeArgs reads "<keyword...> <base_price> [resale_price]". The
// keyword may span several words; prices are taken from the end.
func parseAnalyzeArgs(args []string) (domain.WatchItem, error) {
	fields := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			fields = append(fields, a)
		}
	}
	if len(fields) < 2 {
		return domain.WatchItem{}, errors.New("missing arguments")
	}

	last, err := money.Parse(fields[len(fields)-1])
	if err != nil {
		return domain.WatchItem{}, errors.New("missing base price")
	}
	fields = fields[:len(fields)-1]

	var item domain.WatchItem
	if len(fields) >= 2 {
		if base, err := money.Parse(fields[len(fields)-1]); err == nil {
			resale := last
			item.BasePrice = base
			item.ResalePrice = &resale
			fields = fields[:len(fields)-1]
		}
	}
	if item.ResalePrice == nil {
		item.BasePrice = last
	}

	item.Keyword = strings.Join(fields, " ")
	return item, nil
}

func parseTopArgs(args []string) (int, error) {
	if len(args) == 0 {
		return defaultTop, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, err
	}
	if n < 1 || n > maxTop {
		return 0, errors.New("out of range")
	}
	return n, nil
}

func formatVerdict(v *domain.Verdict) string {
	o := v.Opportunity
	p := o.Profit
	r := o.Risk

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s]\n", p.ProductName, o.Profile.Category)
	fmt.Fprintf(&sb, "Trend: %.0f/100, growth %+.1f%%\n", o.Profile.TrendScore, o.Profile.GrowthRate)
	fmt.Fprintf(&sb, "Buy %s, sell %s", money.Format(p.BasePrice), money.Format(p.ResalePrice))
	if p.ResaleEstimated {
		sb.WriteString(" (estimated)")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Net profit %s, margin %.2f%%, ROI %.2f%%\n", money.Format(p.NetProfit), p.MarginPct, p.ROIPct)
	fmt.Fprintf(&sb, "Break-even after %d units\n", p.BreakEvenQty)
	fmt.Fprintf(&sb, "Risk %s (%.2f), max investment %s, stop loss %s\n",
		strings.ToUpper(string(r.RiskLevel)), r.OverallRiskScore, money.Format(r.MaxInvestment), money.Format(r.StopLossPrice))
	for _, f := range r.RiskFactors {
		fmt.Fprintf(&sb, "- %s\n", f)
	}
	if len(r.Mitigations) > 0 {
		sb.WriteString("Mitigations:\n")
		for _, m := range r.Mitigations {
			fmt.Fprintf(&sb, "- %s\n", m)
		}
	}
	if len(o.ViralSignals) > 0 {
		fmt.Fprintf(&sb, "Signals: %s\n", strings.Join(o.ViralSignals, ", "))
	}
	fmt.Fprintf(&sb, "Confidence: %.1f\n", o.Confidence)
	if v.Accepted {
		sb.WriteString("Verdict: OPPORTUNITY")
	} else {
		fmt.Fprintf(&sb, "Verdict: REJECTED (%s)", v.Reason)
	}
	return sb.String()
}

func formatTop(snap *domain.Snapshot, n int) string {
	if snap == nil {
		return "No scan has completed yet."
	}
	top := snap.Top(n)
	if len(top) == 0 {
		return fmt.Sprintf("Scan #%d found no opportunities.", snap.Scan)
	}

	lines := make([]string, 0, len(top)+1)
	lines = append(lines, fmt.Sprintf("Top %d of scan #%d:", len(top), snap.Scan))
	for i := range top {
		lines = append(lines, formatOpportunityLine(i+1, &top[i]))
	}
	return strings.Join(lines, "\n")
}

func formatOpportunityLine(rank int, o *domain.Opportunity) string {
	return fmt.Sprintf("#%d %s: %s -> %s, margin %.1f%%, %s risk, confidence %.1f",
		rank,
		o.ProductName(),
		money.Format(o.Profit.BasePrice),
		money.Format(o.Profit.ResalePrice),
		o.Profit.MarginPct,
		o.Risk.RiskLevel,
		o.Confidence,
	)
}
