package queue

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/k3a/html2text"

	"github.com/mailops/postq/config"
	"github.com/mailops/postq/consts"
	"github.com/mailops/postq/logger"
)

// Queue file dumps are line oriented with recognizable key prefixes.
const (
	sizePrefix   = "message_size: "
	datePrefix   = "create_time: "
	senderPrefix = "sender: "
	bodyPrefix   = "regular_text: "

	contentDateLayout = "Mon Jan _2 15:04:05 2006"
)

// ContentResolver populates a record's remaining fields and headers from
// the content dump of its queue file.
type ContentResolver struct {
	runner Runner
	catCmd []string
}

// NewContentResolver returns a resolver using the configured content
// dump command.
func NewContentResolver(cfg *config.QueueConfig, runner Runner) *ContentResolver {
	return &ContentResolver{
		runner: runner,
		catCmd: cfg.CatCommand,
	}
}

// queueFileContent is the parsed content dump of one queue file.
type queueFileContent struct {
	size    int64
	created time.Time
	sender  string
	body    string
}

func (r *ContentResolver) fetch(ctx context.Context, id string) (*queueFileContent, error) {
	if id == "" {
		return nil, consts.ErrMissingQueueID
	}

	args := append(append([]string(nil), r.catCmd[1:]...), id)
	out, err := r.runner.Output(ctx, r.catCmd[0], args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", consts.ErrContentUnavailable, err)
	}

	content := &queueFileContent{}
	var bodyLines []string
	for _, line := range strings.Split(string(out), "\n") {
		switch {
		case strings.HasPrefix(line, sizePrefix):
			sizeFields := strings.Fields(line[len(sizePrefix):])
			if len(sizeFields) > 0 {
				if size, err := strconv.ParseInt(sizeFields[0], 10, 64); err == nil && size >= 0 {
					content.size = size
				}
			}
		case strings.HasPrefix(line, datePrefix):
			datestr := strings.TrimSpace(line[len(datePrefix):])
			if date, err := time.ParseInLocation(contentDateLayout, datestr, time.Local); err == nil {
				content.created = date
			} else {
				logger.Debug("Unparseable create time in queue file", "id", id, "date", datestr)
			}
		case strings.HasPrefix(line, senderPrefix):
			if content.sender == "" {
				content.sender = strings.TrimSpace(line[len(senderPrefix):])
			}
		case strings.HasPrefix(line, bodyPrefix):
			bodyLines = append(bodyLines, line[len(bodyPrefix):])
		}
	}
	content.body = strings.Join(bodyLines, "\n")

	return content, nil
}

// Resolve fills the record's size, arrival time, sender and headers from
// its queue file content and marks it resolved. Fields already known
// from the listing are kept as-is.
func (r *ContentResolver) Resolve(ctx context.Context, rec *Record) error {
	content, err := r.fetch(ctx, rec.ID)
	if err != nil {
		rec.ResolveError = err.Error()
		return err
	}

	if rec.Size == 0 {
		rec.Size = content.size
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = content.created
	}
	if rec.Sender == "" {
		rec.Sender = content.sender
	}

	headers, err := parseHeaders(content.body)
	if err != nil {
		rec.ResolveError = err.Error()
		return err
	}
	rec.Headers = headers
	rec.ContentResolved = true
	rec.ResolveError = ""

	return nil
}

// BodyPreview returns a plaintext rendering of the message body: the
// first text/plain part, falling back to the first text/html part
// converted to text.
func (r *ContentResolver) BodyPreview(ctx context.Context, rec *Record) (string, error) {
	content, err := r.fetch(ctx, rec.ID)
	if err != nil {
		return "", err
	}

	entity, err := message.Read(strings.NewReader(content.body))
	if err != nil && !message.IsUnknownCharset(err) {
		return "", fmt.Errorf("failed to parse message content: %w", err)
	}

	return plaintextBody(entity)
}

// parseHeaders hands the raw message to go-message and collects the
// header fields in message order, preserving name case and repeated
// fields.
func parseHeaders(body string) (map[string][]string, error) {
	entity, err := message.Read(strings.NewReader(body))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to parse message content: %w", err)
	}

	headers := make(map[string][]string)
	fields := entity.Header.Fields()
	for fields.Next() {
		value, err := fields.Text()
		if err != nil {
			// Keep the raw value when encoded words cannot be decoded.
			value = fields.Value()
		}
		headers[fields.Key()] = append(headers[fields.Key()], value)
	}

	return headers, nil
}

// plaintextBody traverses the MIME structure collecting the first
// text/plain and text/html bodies, preferring plain text.
func plaintextBody(entity *message.Entity) (string, error) {
	var plainBody, htmlBody *string

	var walk func(*message.Entity) error
	walk = func(e *message.Entity) error {
		mediaType, _, _ := e.Header.ContentType()

		if strings.HasPrefix(mediaType, "multipart/") {
			mr := e.MultipartReader()
			if mr == nil {
				return nil
			}
			for {
				part, err := mr.NextPart()
				if err == io.EOF {
					break
				}
				if err != nil {
					return fmt.Errorf("error reading multipart: %v", err)
				}
				if err := walk(part); err != nil {
					return err
				}
			}
			return nil
		}

		body, err := io.ReadAll(e.Body)
		if err != nil {
			return fmt.Errorf("error reading entity body: %v", err)
		}

		switch mediaType {
		case "text/plain", "":
			if plainBody == nil {
				s := string(body)
				plainBody = &s
			}
		case "text/html":
			if htmlBody == nil {
				s := string(body)
				htmlBody = &s
			}
		}
		return nil
	}

	if err := walk(entity); err != nil {
		return "", err
	}

	if plainBody == nil && htmlBody != nil {
		plaintext := html2text.HTML2Text(*htmlBody)
		plainBody = &plaintext
	}
	if plainBody == nil {
		return "", nil
	}
	return *plainBody, nil
}
