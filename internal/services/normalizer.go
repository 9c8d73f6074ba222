package services

import "strings"

// StandupFields is the result of parsing one free-form standup message.
type StandupFields struct {
    YesterdayWork string
    TodayPlan     string
    Blockers      string
    Notes         string
}

// Keyword groups for section detection, checked in this priority order.
// Prefix match, case-insensitive. Best-effort heuristic: anything that never
// matches a section lands in Notes.
var (
    yesterdayMarkers = []string{
        "yesterday:", "yesterday i", "completed:", "done:", "finished:",
        "worked on:", "yesterday's work:", "what i did:",
    }
    todayMarkers = []string{
        "today:", "today i", "planning:", "will do:", "going to:",
        "today's plan:", "next:", "working on:",
    }
    blockerMarkers = []string{
        "blockers:", "blocked:", "blocker:", "issues:", "problems:",
        "stuck:", "need help:", "impediments:",
    }
)

type section int

const (
    sectionNone section = iota
    sectionYesterday
    sectionToday
    sectionBlockers
)

// ParseStandupMessage segments a raw standup message into structured fields.
// Lines are lower-cased and matched against the keyword groups; a matching
// line switches the current section and contributes the text after the
// keyword; non-matching lines append to whichever section is active. A
// message with no recognized section at all goes to Notes verbatim.
func ParseStandupMessage(message string) StandupFields {
    var out StandupFields
    cur := sectionNone

    for _, raw := range strings.Split(strings.ToLower(message), "\n") {
        line := strings.TrimSpace(raw)
        if line == "" { continue }

        if marker, sec := matchSection(line); sec != sectionNone {
            cur = sec
            if content := strings.TrimSpace(line[len(marker):]); content != "" {
                setField(&out, sec, content)
            }
            continue
        }
        if cur != sectionNone { appendField(&out, cur, line) }
    }

    if out.YesterdayWork == "" && out.TodayPlan == "" && out.Blockers == "" && out.Notes == "" {
        out.Notes = message
    }
    return out
}

// matchSection returns the first keyword (in priority order) that prefixes
// the line. A line hitting keywords from several groups resolves to the
// earlier group.
func matchSection(line string) (string, section) {
    for _, kw := range yesterdayMarkers {
        if strings.HasPrefix(line, kw) { return kw, sectionYesterday }
    }
    for _, kw := range todayMarkers {
        if strings.HasPrefix(line, kw) { return kw, sectionToday }
    }
    for _, kw := range blockerMarkers {
        if strings.HasPrefix(line, kw) { return kw, sectionBlockers }
    }
    return "", sectionNone
}

func setField(f *StandupFields, sec section, text string) {
    switch sec {
    case sectionYesterday:
        f.YesterdayWork = text
    case sectionToday:
        f.TodayPlan = text
    case sectionBlockers:
        f.Blockers = text
    }
}

func appendField(f *StandupFields, sec section, line string) {
    join := func(cur string) string {
        if cur == "" { return line }
        return cur + " " + line
    }
    switch sec {
    case sectionYesterday:
        f.YesterdayWork = join(f.YesterdayWork)
    case sectionToday:
        f.TodayPlan = join(f.TodayPlan)
    case sectionBlockers:
        f.Blockers = join(f.Blockers)
    }
}
