// Package feed renders the public Media RSS document. Rendering is a pure
// function of a Channel and a typed list of Items; no store access happens
// here.
package feed

import (
	"bytes"
	"embed"
	"encoding/xml"
	"io"
	"strings"
	"text/template"
	"time"
)

// ContentType is the media type of the rendered document.
const ContentType = "application/rss+xml; charset=utf-8"

// PubDateLayout is the RFC 2822 date layout used for pubDate. Times are
// formatted in UTC, which yields a "+0000" zone.
const PubDateLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

//go:embed templates/mrss.xml.tmpl
var templateFS embed.FS

var mrss = template.Must(
	template.New("mrss.xml.tmpl").
		Funcs(template.FuncMap{"xml": escape}).
		ParseFS(templateFS, "templates/mrss.xml.tmpl"),
)

// Channel is the feed-level metadata.
type Channel struct {
	Title       string
	Link        string
	Description string
}

// Item is one public feed entry.
type Item struct {
	Title        string
	Body         string
	GUID         string
	PubDate      string
	Link         string
	VideoURL     string
	ThumbnailURL string
}

// FormatPubDate formats t as an RFC 2822 date in UTC, truncated to seconds.
func FormatPubDate(t time.Time) string {
	return t.UTC().Format(PubDateLayout)
}

// Render writes the MRSS document for ch and items to w. Items are written in
// the order given.
func Render(w io.Writer, ch Channel, items []Item) error {
	// Buffer so a template error never leaves a half-written document.
	var buf bytes.Buffer
	err := mrss.Execute(&buf, struct {
		Channel Channel
		Items   []Item
	}{ch, items})
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
