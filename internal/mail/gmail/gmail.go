// Package gmail adapts the Gmail API to the mail.Store port. Threads come
// back from search with their metadata preloaded; message bodies are fetched
// lazily when a thread is enumerated.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tally/internal/forward"
	"tally/internal/mail"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const user = "me"

type Store struct {
	svc            *gmailapi.Service
	processedLabel string
	archiveLabel   string

	// label name -> id, resolved once per store lifetime
	labelIDs map[string]string
}

var _ mail.Store = (*Store)(nil)

// New builds a Gmail-backed mail store. processedLabel and archiveLabel are
// the two labels MarkProcessed applies.
func New(ctx context.Context, httpClient *http.Client, processedLabel, archiveLabel string) (*Store, error) {
	svc, err := gmailapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	return &Store{
		svc:            svc,
		processedLabel: processedLabel,
		archiveLabel:   archiveLabel,
	}, nil
}

func (s *Store) Search(ctx context.Context, query string, start, max int64) ([]mail.Thread, error) {
	call := s.svc.Users.Threads.List(user).Q(query).Context(ctx)
	if max > 0 {
		call = call.MaxResults(start + max)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("search threads %q: %w", query, err)
	}

	listed := resp.Threads
	if start > 0 {
		if start >= int64(len(listed)) {
			return nil, nil
		}
		listed = listed[start:]
	}

	threads := make([]mail.Thread, 0, len(listed))
	for _, t := range listed {
		meta, err := s.svc.Users.Threads.Get(user, t.Id).Format("minimal").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("thread %s metadata: %w", t.Id, err)
		}
		last := time.Time{}
		for _, m := range meta.Messages {
			if d := time.UnixMilli(m.InternalDate); d.After(last) {
				last = d
			}
		}
		threads = append(threads, &thread{store: s, id: t.Id, lastActivity: last})
	}
	return threads, nil
}

func (s *Store) MarkProcessed(ctx context.Context, threadID string) error {
	ids, err := s.resolveLabels(ctx)
	if err != nil {
		return err
	}
	_, err = s.svc.Users.Threads.Modify(user, threadID, &gmailapi.ModifyThreadRequest{
		AddLabelIds:    ids,
		RemoveLabelIds: []string{"INBOX", "UNREAD"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("mark thread %s processed: %w", threadID, err)
	}
	return nil
}

func (s *Store) resolveLabels(ctx context.Context) ([]string, error) {
	if s.labelIDs == nil {
		resp, err := s.svc.Users.Labels.List(user).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("list labels: %w", err)
		}
		s.labelIDs = make(map[string]string, len(resp.Labels))
		for _, l := range resp.Labels {
			s.labelIDs[l.Name] = l.Id
		}
	}

	var ids []string
	for _, name := range []string{s.processedLabel, s.archiveLabel} {
		id, ok := s.labelIDs[name]
		if !ok {
			return nil, fmt.Errorf("label %q not found in mailbox", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type thread struct {
	store        *Store
	id           string
	lastActivity time.Time
}

func (t *thread) ID() string              { return t.id }
func (t *thread) LastActivity() time.Time { return t.lastActivity }

func (t *thread) Messages(ctx context.Context) ([]mail.Message, error) {
	full, err := t.store.svc.Users.Threads.Get(user, t.id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch thread %s: %w", t.id, err)
	}
	msgs := make([]mail.Message, 0, len(full.Messages))
	for _, m := range full.Messages {
		msgs = append(msgs, toMessage(t.id, m))
	}
	return msgs, nil
}

func toMessage(threadID string, m *gmailapi.Message) mail.Message {
	msg := mail.Message{
		ID:       m.Id,
		ThreadID: threadID,
		Date:     time.UnixMilli(m.InternalDate),
	}
	if m.Payload == nil {
		return msg
	}
	for _, h := range m.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			msg.Sender = forward.NormalizeAddress(h.Value)
		case "to", "delivered-to":
			if msg.Destination == "" {
				msg.Destination = forward.NormalizeAddress(h.Value)
			}
		case "subject":
			msg.Subject = h.Value
		}
	}
	msg.Body = extractText(m.Payload)
	return msg
}

// extractText walks the MIME tree and returns the first text/plain body,
// falling back to whatever body data the root part carries.
func extractText(part *gmailapi.MessagePart) string {
	if part == nil {
		return ""
	}
	if strings.HasPrefix(part.MimeType, "text/plain") && part.Body != nil && part.Body.Data != "" {
		return decodeBody(part.Body.Data)
	}
	for _, child := range part.Parts {
		if text := extractText(child); text != "" {
			return text
		}
	}
	if part.Body != nil && part.Body.Data != "" {
		return decodeBody(part.Body.Data)
	}
	return ""
}

func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(data)
	if err != nil {
		return ""
	}
	return string(decoded)
}
