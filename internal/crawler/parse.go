package crawler

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"talkpress/internal/record"
	"talkpress/internal/textutil"
)

// ParseVideoPage extracts a record from a session page. pageURL resolves
// relative link targets.
func ParseVideoPage(r io.Reader, pageURL string) (*record.Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse session page: %w", err)
	}
	base, _ := url.Parse(pageURL)

	rec := &record.Record{}
	if details := doc.Find(".details").First(); details.Length() > 0 {
		rec.Detail = parseDetail(details)
	}
	rec.RelatedVideos = parseLinks(doc.Find(".links .video a"), base)
	rec.Documents = parseLinks(doc.Find(".links .documentation a, .links .document a"), base)
	rec.Transcript = parseTranscript(doc.Find(".transcript .sentence"))
	rec.SampleCodes = parseSamples(doc.Find(".sample-code .sample-code-main-container"))
	return rec, nil
}

func parseDetail(details *goquery.Selection) *record.Detail {
	detail := &record.Detail{
		Title:       textutil.NormalizeText(details.Find("h1").First().Text()),
		Description: textutil.NormalizeText(details.Find("p").First().Text()),
	}
	details.Find(".chapter-list .chapter-item").Each(func(_ int, item *goquery.Selection) {
		detail.Chapters = append(detail.Chapters, record.Chapter{
			Index:     record.ChapterIndex(strings.TrimSpace(item.AttrOr("data-chapter-index", ""))),
			Title:     textutil.NormalizeText(item.Find("a").First().Text()),
			StartTime: record.ParseTimestamp(item.AttrOr("data-start-time", "")),
			EndTime:   record.ParseTimestamp(item.AttrOr("data-chapter-end-time", "")),
		})
	})
	return detail
}

func parseLinks(sel *goquery.Selection, base *url.URL) []record.Link {
	var links []record.Link
	seen := map[string]struct{}{}
	sel.Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		title := textutil.NormalizeText(a.Text())
		if href == "" && title == "" {
			return
		}
		target := resolve(base, href)
		if _, dup := seen[target]; dup && target != "" {
			return
		}
		seen[target] = struct{}{}
		links = append(links, record.Link{Title: title, URL: target})
	})
	return links
}

func parseTranscript(sel *goquery.Selection) []record.Sentence {
	var sentences []record.Sentence
	sel.Each(func(_ int, item *goquery.Selection) {
		text := textutil.NormalizeText(item.Text())
		if text == "" {
			return
		}
		start := item.AttrOr("data-start", "")
		if strings.TrimSpace(start) == "" {
			start = item.AttrOr("data-start-time", "")
		}
		sentences = append(sentences, record.Sentence{
			StartTime: record.ParseTimestamp(start),
			EndTime:   record.ParseTimestamp(item.AttrOr("data-end-time", "")),
			Text:      text + " ",
		})
	})
	return sentences
}

func parseSamples(sel *goquery.Selection) []record.CodeSample {
	var samples []record.CodeSample
	sel.Each(func(_ int, item *goquery.Selection) {
		var code strings.Builder
		item.Find("code").Each(func(_ int, c *goquery.Selection) {
			code.WriteString(c.Text())
		})
		sample := record.CodeSample{
			StartTime:   record.ParseTimestamp(item.AttrOr("data-start-time", "")),
			Description: textutil.NormalizeText(item.Find("a").First().Text()),
			Code:        textutil.NormalizeBlock(code.String()),
			Language:    sampleLanguage(item),
		}
		if sample.Description == "" && sample.Code == "" {
			return
		}
		samples = append(samples, sample)
	})
	return samples
}

// sampleLanguage reads a data-language attribute or a language-* class from
// the container or its code elements.
func sampleLanguage(item *goquery.Selection) string {
	candidates := item.Find("code, pre").AddSelection(item)
	var lang string
	candidates.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v := strings.TrimSpace(s.AttrOr("data-language", "")); v != "" {
			lang = v
			return false
		}
		for _, class := range strings.Fields(s.AttrOr("class", "")) {
			if v, ok := strings.CutPrefix(class, "language-"); ok && v != "" {
				lang = v
				return false
			}
		}
		return true
	})
	return strings.ToLower(lang)
}

// Session is one card on a year's session list.
type Session struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Platform    string `json:"platform,omitempty"`
	Category    string `json:"category,omitempty"`
	Duration    string `json:"duration,omitempty"`
	URL         string `json:"url"`
}

// ParseSessionList extracts session cards from a year listing page.
func ParseSessionList(r io.Reader, pageURL string) ([]Session, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse session list: %w", err)
	}
	base, _ := url.Parse(pageURL)

	var sessions []Session
	seen := map[string]struct{}{}
	doc.Find(".vc-collection a").Each(func(_ int, card *goquery.Selection) {
		target := resolve(base, card.AttrOr("href", ""))
		id := VideoIDFromURL(target)
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}

		keywords := card.Find(".vc-card__keywords").First()
		title := card.Find(".vc-card__title").First()
		sessions = append(sessions, Session{
			VideoID:     id,
			Title:       textutil.NormalizeText(firstNonEmpty(title.AttrOr("data-filter-title-en", ""), title.Text())),
			Description: textutil.NormalizeText(firstNonEmpty(keywords.AttrOr("data-filter-description-en", ""), keywords.AttrOr("data-filter-description", ""))),
			Platform:    textutil.NormalizeText(keywords.AttrOr("data-filter-platform", "")),
			Category:    textutil.NormalizeText(card.AttrOr("data-category", "")),
			Duration:    textutil.NormalizeText(card.Find(".vc-card__duration").First().Text()),
			URL:         target,
		})
	})
	return sessions, nil
}

// VideoIDFromURL returns the last path segment of a session URL
// (".../wwdc2024/10179/" -> "10179"), or "" when it is not a usable id.
func VideoIDFromURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	id := path.Base(strings.TrimRight(parsed.Path, "/"))
	if !textutil.IsSafeToken(id) || strings.HasPrefix(id, "wwdc") {
		return ""
	}
	return id
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
