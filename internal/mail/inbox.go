package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/valora-app/order-invoicer/internal/common"
)

// Message is what the pipeline consumes from one inbox entry: the sender
// identity and the extracted plain-text body.
type Message struct {
	SenderName string
	SenderAddr string
	Body       string
}

// InboxReader yields raw order messages, newest first.
type InboxReader interface {
	Fetch(ctx context.Context) ([]Message, error)
}

// IMAPConfig configures the inbox connection and the search filter.
type IMAPConfig struct {
	Addr         string // host:port, TLS
	Username     string
	Password     string
	SearchHeader string // e.g. "Subject"
	SearchValue  string // e.g. "orden de pedido"
	Mailbox      string // default INBOX
}

// Inbox reads order messages over IMAP. A fresh session is used per
// Fetch; the connection is released on every exit path.
type Inbox struct {
	cfg    IMAPConfig
	logger *slog.Logger
}

func NewInbox(cfg IMAPConfig, logger *slog.Logger) *Inbox {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.SearchHeader == "" {
		cfg.SearchHeader = "Subject"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{cfg: cfg, logger: logger}
}

// Fetch connects, searches for matching messages in the configured
// mailbox, and returns them newest first. Connection or authentication
// failures wrap common.ErrConnection so the orchestrator can abort the
// cycle without failing the process.
func (in *Inbox) Fetch(ctx context.Context) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch: %w: %v", common.ErrConnection, err)
	}
	start := time.Now()

	c, err := client.DialTLS(in.cfg.Addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w: %v", in.cfg.Addr, common.ErrConnection, err)
	}
	defer func() {
		if err := c.Logout(); err != nil {
			in.logger.Warn("inbox.logout_error", "error", err)
		}
	}()

	if err := c.Login(in.cfg.Username, in.cfg.Password); err != nil {
		return nil, fmt.Errorf("login %s: %w: %v", in.cfg.Username, common.ErrConnection, err)
	}
	if _, err := c.Select(in.cfg.Mailbox, true); err != nil {
		return nil, fmt.Errorf("select %s: %w: %v", in.cfg.Mailbox, common.ErrConnection, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Header.Add(in.cfg.SearchHeader, in.cfg.SearchValue)
	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search %s=%q: %w: %v",
			in.cfg.SearchHeader, in.cfg.SearchValue, common.ErrConnection, err)
	}
	if len(ids) == 0 {
		in.logger.Info("inbox.empty",
			"filter", in.cfg.SearchHeader+"="+in.cfg.SearchValue,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem()}

	ch := make(chan *imap.Message, len(ids))
	if err := c.Fetch(seqset, items, ch); err != nil {
		return nil, fmt.Errorf("fetch %d messages: %w: %v", len(ids), common.ErrConnection, err)
	}

	msgs := make([]Message, 0, len(ids))
	for raw := range ch {
		body := raw.GetBody(section)
		if body == nil {
			in.logger.Warn("inbox.no_body_section", "seq", raw.SeqNum)
			continue
		}
		m, err := ParseMessage(body)
		if err != nil {
			in.logger.Warn("inbox.parse_error", "seq", raw.SeqNum, "error", err)
			continue
		}
		msgs = append(msgs, m)
	}

	// IMAP sequence numbers ascend; reverse so the newest message is first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	in.logger.Info("inbox.fetched",
		"matched", len(ids),
		"parsed", len(msgs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return msgs, nil
}
