package mailer

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// LocalSender logs messages instead of delivering them and keeps a copy
// of everything sent, which tests read back through Sent.
type LocalSender struct {
	mu   sync.Mutex
	sent []Message
}

func NewLocalSender() *LocalSender {
	return &LocalSender{}
}

func (s *LocalSender) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("mailer.local: message captured")
	return nil
}

func (s *LocalSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
