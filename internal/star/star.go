// Package star reduces free-form narrative text into Situation, Task, Action
// and Result sections.
package star

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sections is a STAR view of a narrative. Any field may be empty.
type Sections struct {
	Situation string `json:"situation"`
	Task      string `json:"task"`
	Action    string `json:"action"`
	Result    string `json:"result"`
}

// IsZero reports whether no section was extracted.
func (s Sections) IsZero() bool {
	return s.Situation == "" && s.Task == "" && s.Action == "" && s.Result == ""
}

type section int

const (
	situation section = iota
	task
	action
	result
	sectionCount
)

func (s *Sections) slot(sec section) *string {
	switch sec {
	case situation:
		return &s.Situation
	case task:
		return &s.Task
	case action:
		return &s.Action
	default:
		return &s.Result
	}
}

var markers = [sectionCount]*regexp.Regexp{
	situation: regexp.MustCompile(`(?i)(S\(상황\)|Situation|상황)\s*[:\-]?\s*`),
	task:      regexp.MustCompile(`(?i)(T\(과제\)|Task|과제)\s*[:\-]?\s*`),
	action:    regexp.MustCompile(`(?i)(A\(행동\)|Action|Role\s*&\s*Action|행동)\s*[:\-]?\s*`),
	result:    regexp.MustCompile(`(?i)(R\(결과\)|Result|결과)\s*[:\-]?\s*`),
}

// Sentence classes, checked in this order.
var classes = []struct {
	section section
	pattern *regexp.Regexp
}{
	{result, regexp.MustCompile(`(?i)(\d+%|\d+\s*(건|명|배|일|주|월)|성과|결과|달성|증가|감소|향상|개선|절감|효과|increas|decreas|improv|achiev|reduc)`)},
	{action, regexp.MustCompile(`(?i)(실행|개선|도입|진행|구축|협업|분석|기획|수행|적용|execut|implement|introduc|collaborat|analy)`)},
	{task, regexp.MustCompile(`(?i)(목표|과제|역할|담당|해야|목적으로|달성|goal|role|responsib)`)},
	{situation, regexp.MustCompile(`(?i)(상황|배경|당시|기존|문제|이슈|어려움|발견|background|context|problem|issue)`)},
}

// Parse extracts STAR sections. Explicit markers such as "S(상황):" win;
// without any, sentences are classified by keyword and the gaps are filled
// from four equal word chunks of the whole text.
func Parse(narrative string) Sections {
	text := strings.TrimSpace(strings.ReplaceAll(narrative, "\r", ""))
	if text == "" {
		return Sections{}
	}

	if labeled := parseLabeled(text); !labeled.IsZero() {
		return labeled
	}

	return parseHeuristic(text)
}

type hit struct {
	section    section
	start, end int
}

func parseLabeled(text string) Sections {
	hits := make([]hit, 0, sectionCount)
	for sec, re := range markers {
		if loc := re.FindStringIndex(text); loc != nil {
			hits = append(hits, hit{section: section(sec), start: loc[0], end: loc[1]})
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	var out Sections
	for i, h := range hits {
		end := len(text)
		if i+1 < len(hits) {
			end = hits[i+1].start
		}
		if h.end > end {
			continue
		}
		content := strings.TrimSpace(text[h.end:end])
		if slot := out.slot(h.section); content != "" && *slot == "" {
			*slot = content
		}
	}
	return out
}

func parseHeuristic(text string) Sections {
	sentences := splitSentences(text)

	var out Sections
	for _, sentence := range sentences {
		for _, class := range classes {
			slot := out.slot(class.section)
			if *slot != "" || !class.pattern.MatchString(sentence) {
				continue
			}
			*slot = sentence
			break
		}
	}

	chunks := splitChunks(strings.Join(sentences, " "), int(sectionCount))
	for sec := situation; sec < sectionCount; sec++ {
		slot := out.slot(sec)
		if *slot != "" || chunks[sec] == "" {
			continue
		}
		if !out.holds(chunks[sec]) {
			*slot = chunks[sec]
		}
	}

	return out
}

func (s Sections) holds(value string) bool {
	return s.Situation == value || s.Task == value || s.Action == value || s.Result == value
}

// splitSentences breaks text at newlines and after '.', '!' or '?' when
// followed by whitespace.
func splitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	flush := func(end int) {
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
	}

	for i, r := range text {
		next := i + utf8.RuneLen(r)
		switch r {
		case '\n':
			flush(i)
			start = next
		case '.', '!', '?':
			if follow, _ := utf8.DecodeRuneInString(text[next:]); next < len(text) && unicode.IsSpace(follow) {
				flush(next)
				start = next
			}
		}
	}
	flush(len(text))

	return out
}

// splitChunks divides text into n word chunks of ceil(words/n) words each.
// Trailing chunks may be empty.
func splitChunks(text string, n int) []string {
	words := strings.Fields(text)
	chunks := make([]string, n)
	if len(words) == 0 {
		return chunks
	}

	size := max(1, (len(words)+n-1)/n)
	for i := range n {
		from := min(len(words), i*size)
		to := min(len(words), from+size)
		chunks[i] = strings.Join(words[from:to], " ")
	}
	return chunks
}
