package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/webmail/internal/model"
)

// maxSlug caps the subject part of exported file names.
const maxSlug = 40

// Exporter writes messages as RFC 5322 .eml files.
type Exporter struct {
	dir    string
	domain string
	write  func(io.Writer, model.Message, string) error
}

// NewExporter writes into dir. Backend users have no mail addresses, so
// usernames are placed under domain.
func NewExporter(dir, domain string) *Exporter {
	if domain == "" {
		domain = "webmail.local"
	}
	return &Exporter{dir: dir, domain: domain, write: Write}
}

// Export writes m to a new file and returns its path. A file that could
// not be written completely is removed.
func (e *Exporter) Export(m model.Message) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(e.dir, FileName(m))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}

	if err := e.write(f, m, e.domain); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

// Write renders m as a single-part text/plain message.
func Write(w io.Writer, m model.Message, domain string) error {
	var h mail.Header
	h.SetAddressList("From", []*mail.Address{address(m.Sender, domain)})
	h.SetAddressList("To", []*mail.Address{address(m.Receiver, domain)})
	h.SetSubject(m.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	date := m.CreatedAt.Time
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)
	h.SetMessageID(fmt.Sprintf("%d@%s", m.ID, domain))

	body, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return fmt.Errorf("writing message %d header: %w", m.ID, err)
	}
	if _, err := io.WriteString(body, m.Message); err != nil {
		body.Close()
		return fmt.Errorf("writing message %d body: %w", m.ID, err)
	}
	if err := body.Close(); err != nil {
		return fmt.Errorf("finishing message %d: %w", m.ID, err)
	}
	return nil
}

// FileName returns "<id>-<subject-slug>.eml".
func FileName(m model.Message) string {
	slug := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return '-'
	}, m.Subject)
	slug = strings.Trim(collapseDashes(slug), "-")
	if runes := []rune(slug); len(runes) > maxSlug {
		slug = strings.TrimRight(string(runes[:maxSlug]), "-")
	}
	if slug == "" {
		return fmt.Sprintf("%d.eml", m.ID)
	}
	return fmt.Sprintf("%d-%s.eml", m.ID, slug)
}

func collapseDashes(s string) string {
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return s
}

func address(u model.User, domain string) *mail.Address {
	return &mail.Address{Name: u.Username, Address: u.Username + "@" + domain}
}
