package telegram

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v3"

	"github.com/fd1az/product-scout/business/opportunity/domain"
	"github.com/fd1az/product-scout/internal/apperror"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// AlertDispatcher pushes high-confidence opportunities to subscribed chats.
// It implements the scanner's Reporter.
type AlertDispatcher struct {
	sender        messageSender
	minConfidence float64
	maxItems      int

	mu          sync.RWMutex
	subscribers map[int64]struct{}
}

// NewAlertDispatcher creates a dispatcher alerting on opportunities with at
// least minConfidence.
func NewAlertDispatcher(sender messageSender, minConfidence float64) *AlertDispatcher {
	return &AlertDispatcher{
		sender:        sender,
		minConfidence: minConfidence,
		maxItems:      5,
		subscribers:   make(map[int64]struct{}),
	}
}

func (d *AlertDispatcher) Subscribe(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.subscribers[chatID]; exists {
		return false
	}
	d.subscribers[chatID] = struct{}{}
	return true
}

func (d *AlertDispatcher) Unsubscribe(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.subscribers[chatID]; !exists {
		return false
	}
	delete(d.subscribers, chatID)
	return true
}

func (d *AlertDispatcher) IsSubscribed(chatID int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, exists := d.subscribers[chatID]
	return exists
}

func (d *AlertDispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}

// Start is a no-op; the bot owns the connection.
func (d *AlertDispatcher) Start(context.Context) error { return nil }

// Stop is a no-op; the bot owns the connection.
func (d *AlertDispatcher) Stop() error { return nil }

// Report alerts subscribers about the qualifying opportunities of snap.
func (d *AlertDispatcher) Report(ctx context.Context, snap *domain.Snapshot) error {
	return d.NotifyOpportunities(ctx, snap.Opportunities)
}

// NotifyOpportunities sends one message listing the opportunities at or above
// the confidence threshold to every subscriber.
func (d *AlertDispatcher) NotifyOpportunities(ctx context.Context, opps []domain.Opportunity) error {
	_ = ctx
	if d == nil || d.sender == nil || len(opps) == 0 {
		return nil
	}

	hot := make([]domain.Opportunity, 0, len(opps))
	for _, o := range opps {
		if o.Confidence >= d.minConfidence {
			hot = append(hot, o)
		}
	}
	if len(hot) == 0 {
		return nil
	}
	if len(hot) > d.maxItems {
		hot = hot[:d.maxItems]
	}

	chatIDs := d.snapshotSubscribers()
	if len(chatIDs) == 0 {
		return nil
	}

	msg := formatAlertMessage(hot)
	var failures []string
	for _, chatID := range chatIDs {
		if _, err := d.sender.Send(&tele.Chat{ID: chatID}, msg); err != nil {
			failures = append(failures, fmt.Sprintf("chat %d: %v", chatID, err))
		}
	}
	if len(failures) > 0 {
		return apperror.New(apperror.CodeNotifierFailed,
			apperror.WithContext(fmt.Sprintf("failed sending %d alerts: %s", len(failures), strings.Join(failures, "; "))))
	}
	return nil
}

func (d *AlertDispatcher) snapshotSubscribers() []int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	chatIDs := make([]int64, 0, len(d.subscribers))
	for chatID := range d.subscribers {
		chatIDs = append(chatIDs, chatID)
	}
	sort.Slice(chatIDs, func(i, j int) bool { return chatIDs[i] < chatIDs[j] })
	return chatIDs
}

func parseAlertMode(args []string) (string, error) {
	if len(args) == 0 {
		return "status", nil
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "on":
		return "on", nil
	case "off":
		return "off", nil
	case "status":
		return "status", nil
	default:
		return "", fmt.Errorf("invalid mode")
	}
}

func formatAlertMessage(opps []domain.Opportunity) string {
	lines := make([]string, 0, len(opps)+1)
	lines = append(lines, "New product opportunities:")
	for i := range opps {
		lines = append(lines, formatOpportunityLine(i+1, &opps[i]))
	}
	return strings.Join(lines, "\n")
}
