package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultListLimit is used when a caller asks for a non-positive number of threads
const DefaultListLimit = 10

// OutreachService owns thread and brand operations shared by the tools and the HTTP API
type OutreachService struct {
	threads ThreadRepository
	brands  BrandRepository
	locker  Locker
	mailer  Mailer
	logger  *zap.Logger
	now     func() time.Time
}

// NewOutreachService creates a new outreach service
func NewOutreachService(
	threads ThreadRepository,
	brands BrandRepository,
	locker Locker,
	mailer Mailer,
	logger *zap.Logger,
) *OutreachService {
	return &OutreachService{
		threads: threads,
		brands:  brands,
		locker:  locker,
		mailer:  mailer,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetThread returns a thread by id
func (s *OutreachService) GetThread(ctx context.Context, threadID string) (*EmailThread, error) {
	return s.threads.Get(ctx, threadID)
}

// GetBrand returns a brand profile by id
func (s *OutreachService) GetBrand(ctx context.Context, brandID string) (*BrandProfile, error) {
	return s.brands.Get(ctx, brandID)
}

// ListRecentThreads returns thread summaries ordered by latest message time, newest first
func (s *OutreachService) ListRecentThreads(ctx context.Context, limit int) ([]ThreadSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	threads, err := s.threads.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].LatestMessageTime().After(threads[j].LatestMessageTime())
	})
	if len(threads) > limit {
		threads = threads[:limit]
	}

	summaries := make([]ThreadSummary, 0, len(threads))
	for _, t := range threads {
		summaries = append(summaries, ThreadSummary{
			ThreadID:          t.ID,
			InfluencerName:    t.InfluencerName,
			Brand:             t.Brand,
			Category:          t.Category,
			Status:            t.Status,
			LatestMessageTime: t.LatestMessageTime(),
		})
	}
	return summaries, nil
}

// SendReply delivers a reply and appends it to the thread
func (s *OutreachService) SendReply(ctx context.Context, threadID, body string) (*Message, error) {
	var sent *Message
	err := s.withThread(ctx, threadID, func(t *EmailThread) error {
		domain := BrandMailDomain(t.Brand)
		msg := Message{
			ID:        NewMessageID(t.ID, domain),
			From:      "outreach@" + domain,
			To:        t.InfluencerEmail,
			Subject:   ReplySubject(t.Subject()),
			Body:      body,
			Timestamp: s.now(),
		}

		if s.mailer != nil {
			if err := s.mailer.Send(ctx, &OutboundEmail{
				MessageID: msg.ID,
				ThreadID:  t.ID,
				From:      msg.From,
				To:        msg.To,
				Subject:   msg.Subject,
				Body:      msg.Body,
				SentAt:    msg.Timestamp,
			}); err != nil {
				return fmt.Errorf("failed to deliver reply: %w", err)
			}
		}

		t.Messages = append(t.Messages, msg)
		sent = &msg
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reply sent", zap.String("thread_id", threadID), zap.String("message_id", sent.ID))
	return sent, nil
}

// MarkProcessed sets the thread status to processed
func (s *OutreachService) MarkProcessed(ctx context.Context, threadID string) (*EmailThread, error) {
	var updated *EmailThread
	err := s.withThread(ctx, threadID, func(t *EmailThread) error {
		at := s.now()
		t.Status = ThreadStatusProcessed
		t.ProcessedAt = &at
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Thread marked as processed", zap.String("thread_id", threadID))
	return updated, nil
}

// AppendInbound records an influencer reply and reopens the thread
func (s *OutreachService) AppendInbound(ctx context.Context, threadID string, msg Message) error {
	return s.withThread(ctx, threadID, func(t *EmailThread) error {
		if msg.Timestamp.IsZero() {
			msg.Timestamp = s.now()
		}
		t.Messages = append(t.Messages, msg)
		t.Status = ThreadStatusOpen
		t.ProcessedAt = nil
		return nil
	})
}

// withThread runs a read-modify-write on one thread under its lock
func (s *OutreachService) withThread(ctx context.Context, threadID string, fn func(t *EmailThread) error) error {
	unlock, err := s.locker.Lock(ctx, "thread:"+threadID)
	if err != nil {
		return fmt.Errorf("failed to lock thread %s: %w", threadID, err)
	}
	defer unlock()

	t, err := s.threads.Get(ctx, threadID)
	if err != nil {
		return err
	}
	if err := fn(t); err != nil {
		return err
	}
	if err := s.threads.Save(ctx, t); err != nil {
		return fmt.Errorf("failed to save thread %s: %w", threadID, err)
	}
	return nil
}

// BrandMailDomain is the sending domain used for a brand
func BrandMailDomain(brand string) string {
	brand = strings.ToLower(strings.TrimSpace(brand))
	if brand == "" {
		brand = "outreach"
	}
	return brand + ".ai"
}

// ReplySubject prefixes a subject with "Re: " once
func ReplySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

// NewMessageID builds an RFC 5322 Message-ID that encodes the thread id
func NewMessageID(threadID, domain string) string {
	return fmt.Sprintf("<%s.%s@%s>", uuid.NewString(), threadID, domain)
}

// ThreadIDFromMessageID recovers the thread id from a Message-ID built by NewMessageID
func ThreadIDFromMessageID(messageID string) (string, bool) {
	id := strings.TrimSpace(messageID)
	id = strings.TrimPrefix(id, "<")
	id = strings.TrimSuffix(id, ">")

	at := strings.LastIndex(id, "@")
	if at <= 0 {
		return "", false
	}
	local := id[:at]

	dot := strings.Index(local, ".")
	if dot < 0 || dot == len(local)-1 {
		return "", false
	}
	if _, err := uuid.Parse(local[:dot]); err != nil {
		return "", false
	}
	return local[dot+1:], true
}
