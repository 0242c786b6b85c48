package telegram

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v3"

	"github.com/fd1az/product-scout/business/opportunity/domain"
	profitDomain "github.com/fd1az/product-scout/business/profit/domain"
	riskDomain "github.com/fd1az/product-scout/business/risk/domain"
	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
)

func testOpportunity(name string, confidence float64) domain.Opportunity {
	return domain.Opportunity{
		Profile: trendDomain.TrendProfile{Keyword: strings.ToLower(name), Category: "tech", TrendScore: 85, GrowthRate: 30},
		Profit: profitDomain.ProfitAnalysis{
			ProductName: name,
			BasePrice:   decimal.RequireFromString("20"),
			ResalePrice: decimal.RequireFromString("48"),
			NetProfit:   decimal.RequireFromString("20.02"),
			MarginPct:   71.55,
		},
		Risk:       riskDomain.RiskAssessment{RiskLevel: trendDomain.TierMedium, OverallRiskScore: 38},
		Confidence: confidence,
	}
}

func TestParseAlertMode(t *testing.T) {
	mode, err := parseAlertMode(nil)
	if err != nil || mode != "status" {
		t.Fatalf("expected default status mode, got mode=%q err=%v", mode, err)
	}

	mode, err = parseAlertMode([]string{"on"})
	if err != nil || mode != "on" {
		t.Fatalf("expected on mode, got mode=%q err=%v", mode, err)
	}

	mode, err = parseAlertMode([]string{"OFF"})
	if err != nil || mode != "off" {
		t.Fatalf("expected off mode, got mode=%q err=%v", mode, err)
	}

	if _, err := parseAlertMode([]string{"nope"}); err == nil {
		t.Fatal("expected invalid mode error")
	}
}

func TestAlertDispatcherNotifyOpportunities(t *testing.T) {
	sender := &fakeSender{}
	dispatcher := NewAlertDispatcher(sender, 70)

	if !dispatcher.Subscribe(10) {
		t.Fatal("expected initial subscribe to return true")
	}
	if !dispatcher.Subscribe(20) {
		t.Fatal("expected initial subscribe to return true")
	}
	if dispatcher.Subscribe(10) {
		t.Fatal("expected duplicate subscribe to return false")
	}

	opps := []domain.Opportunity{
		testOpportunity("Wireless Earbuds", 75.8),
		testOpportunity("Phone Stand", 52),
	}
	if err := dispatcher.NotifyOpportunities(context.Background(), opps); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(sender.messages[10]) != 1 || len(sender.messages[20]) != 1 {
		t.Fatalf("expected one message per subscriber, got %+v", sender.messages)
	}
	body := sender.messages[10][0]
	if !strings.Contains(body, "#1 Wireless Earbuds: $20.00 -> $48.00") {
		t.Fatalf("unexpected alert body: %s", body)
	}
	if strings.Contains(body, "Phone Stand") {
		t.Fatalf("low confidence opportunity should not be alerted: %s", body)
	}
}

func TestAlertDispatcherSkipsBelowThreshold(t *testing.T) {
	sender := &fakeSender{}
	dispatcher := NewAlertDispatcher(sender, 90)
	dispatcher.Subscribe(10)

	snap := &domain.Snapshot{Opportunities: []domain.Opportunity{testOpportunity("Wireless Earbuds", 75.8)}}
	if err := dispatcher.Report(context.Background(), snap); err != nil {
		t.Fatalf("unexpected report error: %v", err)
	}
	if len(sender.messages) != 0 {
		t.Fatalf("expected zero outgoing messages, got %+v", sender.messages)
	}
}

func TestAlertDispatcherUnsubscribe(t *testing.T) {
	sender := &fakeSender{}
	dispatcher := NewAlertDispatcher(sender, 0)

	dispatcher.Subscribe(10)
	if !dispatcher.Unsubscribe(10) {
		t.Fatal("expected unsubscribe to return true")
	}
	if dispatcher.Unsubscribe(10) {
		t.Fatal("expected second unsubscribe to return false")
	}
	if dispatcher.SubscriberCount() != 0 {
		t.Fatalf("subscribers = %d", dispatcher.SubscriberCount())
	}

	opps := []domain.Opportunity{testOpportunity("Wireless Earbuds", 75.8)}
	if err := dispatcher.NotifyOpportunities(context.Background(), opps); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(sender.messages) != 0 {
		t.Fatalf("expected zero outgoing messages, got %+v", sender.messages)
	}
}

func TestAlertDispatcherSendFailure(t *testing.T) {
	sender := &fakeSender{fail: map[int64]bool{20: true}}
	dispatcher := NewAlertDispatcher(sender, 0)
	dispatcher.Subscribe(10)
	dispatcher.Subscribe(20)

	err := dispatcher.NotifyOpportunities(context.Background(), []domain.Opportunity{testOpportunity("Wireless Earbuds", 75.8)})
	if err == nil || !strings.Contains(err.Error(), "chat 20") {
		t.Fatalf("expected failure for chat 20, got %v", err)
	}
	if len(sender.messages[10]) != 1 {
		t.Fatal("healthy chat should still receive the alert")
	}
}

type fakeSender struct {
	messages map[int64][]string
	fail     map[int64]bool
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.messages == nil {
		f.messages = make(map[int64][]string)
	}

	chat, ok := to.(*tele.Chat)
	if !ok {
		return nil, fmt.Errorf("unexpected recipient type %T", to)
	}
	if f.fail[chat.ID] {
		return nil, fmt.Errorf("blocked by user")
	}
	f.messages[chat.ID] = append(f.messages[chat.ID], fmt.Sprint(what))
	return &tele.Message{}, nil
}
