// Package feedparser 将三种外部事件源（Statuspage/incident.io JSON、RSS、Atom）
// 归一化为统一的 Incident 形态。所有入口都容忍残缺输入，
// 解析失败时返回空列表而不是报错
package feedparser

import (
	"crypto/sha1"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/vigilohq/vigilo/model"
)

const maxDescriptionLen = 2000

// ParseStatuspageJSON 解析 Statuspage / incident.io 风格的 JSON API 返回
func ParseStatuspageJSON(raw, baseURL string) []model.Incident {
	if !gjson.Valid(raw) {
		return nil
	}
	items := gjson.Get(raw, "incidents")
	if !items.IsArray() {
		return nil
	}

	var incidents []model.Incident
	items.ForEach(func(_, item gjson.Result) bool {
		sourceID := item.Get("id").String()
		if sourceID == "" {
			return true
		}

		inc := model.Incident{
			SourceID:  sourceID,
			Title:     cleanText(item.Get("name").String()),
			Severity:  statuspageSeverity(item.Get("impact").String()),
			Status:    statuspageStatus(item.Get("status").String()),
			StartedAt: parseTime(item.Get("started_at").String(), item.Get("created_at").String()),
			SourceURL: item.Get("shortlink").String(),
		}
		if inc.SourceURL == "" {
			inc.SourceURL = baseURL
		}
		// 描述取最近一条事件更新的正文
		if updates := item.Get("incident_updates"); updates.IsArray() && len(updates.Array()) > 0 {
			inc.Description = cleanText(updates.Array()[0].Get("body").String())
		}
		if resolved := item.Get("resolved_at").String(); resolved != "" {
			t := parseTime(resolved)
			inc.ResolvedAt = &t
		}

		incidents = append(incidents, inc)
		return true
	})
	return incidents
}

func statuspageSeverity(impact string) string {
	switch strings.ToLower(impact) {
	case "critical":
		return model.IncidentSeverityCritical
	case "major":
		return model.IncidentSeverityMajor
	default:
		return model.IncidentSeverityMinor
	}
}

func statuspageStatus(status string) string {
	switch strings.ToLower(status) {
	case "investigating":
		return model.IncidentStatusInvestigating
	case "identified":
		return model.IncidentStatusIdentified
	case "monitoring":
		return model.IncidentStatusMonitoring
	case "resolved":
		return model.IncidentStatusResolved
	default:
		// 各家提供商的自定义状态统一归入已解决
		return model.IncidentStatusResolved
	}
}

type rssFeed struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// ParseRSS 解析 RSS 2.0 状态页 Feed
func ParseRSS(raw, baseURL string) []model.Incident {
	var feed rssFeed
	if err := xml.Unmarshal([]byte(raw), &feed); err != nil {
		return nil
	}

	var incidents []model.Incident
	for _, item := range feed.Channel.Items {
		link := item.Link
		if link == "" {
			link = item.GUID
		}
		incidents = append(incidents, buildFeedIncident(
			item.Title, item.Description, link, item.PubDate, baseURL))
	}
	return incidents
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string `xml:"title"`
	ID        string `xml:"id"`
	Content   string `xml:"content"`
	Summary   string `xml:"summary"`
	Updated   string `xml:"updated"`
	Published string `xml:"published"`
	Links     []struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
}

// ParseAtom 解析 Atom 状态页 Feed
func ParseAtom(raw, baseURL string) []model.Incident {
	var feed atomFeed
	if err := xml.Unmarshal([]byte(raw), &feed); err != nil {
		return nil
	}

	var incidents []model.Incident
	for _, entry := range feed.Entries {
		desc := entry.Content
		if desc == "" {
			desc = entry.Summary
		}
		link := ""
		if len(entry.Links) > 0 {
			link = entry.Links[0].Href
		}
		if link == "" {
			link = entry.ID
		}
		date := entry.Updated
		if date == "" {
			date = entry.Published
		}
		incidents = append(incidents, buildFeedIncident(
			entry.Title, desc, link, date, baseURL))
	}
	return incidents
}

// buildFeedIncident RSS/Atom 共用的条目归一化：严重程度与状态
// 从标题+描述的关键词猜测
func buildFeedIncident(title, desc, link, date, baseURL string) model.Incident {
	title = cleanText(title)
	desc = cleanText(desc)
	startedAt := parseTime(date)

	inc := model.Incident{
		SourceID:    feedSourceID(link, title, date),
		Title:       title,
		Description: desc,
		Severity:    guessSeverity(title + " " + desc),
		Status:      model.IncidentStatusInvestigating,
		StartedAt:   startedAt,
		SourceURL:   link,
	}
	if inc.SourceURL == "" {
		inc.SourceURL = baseURL
	}
	if resolvedRe.MatchString(title + " " + desc) {
		inc.Status = model.IncidentStatusResolved
		t := startedAt
		inc.ResolvedAt = &t
	}
	return inc
}

var (
	criticalRe = regexp.MustCompile(`(?i)critical|major outage|fully down|complete`)
	majorRe    = regexp.MustCompile(`(?i)major|significant|widespread|degraded`)
	resolvedRe = regexp.MustCompile(`(?i)resolved|completed|fixed|recovered`)
)

func guessSeverity(text string) string {
	switch {
	case criticalRe.MatchString(text):
		return model.IncidentSeverityCritical
	case majorRe.MatchString(text):
		return model.IncidentSeverityMajor
	default:
		return model.IncidentSeverityMinor
	}
}

// feedSourceID 幂等导入的去重键：取链接最后一段路径，
// 无链接时对标题+日期做稳定哈希
func feedSourceID(link, title, date string) string {
	link = strings.TrimRight(link, "/")
	if idx := strings.LastIndexByte(link, '/'); idx != -1 && idx+1 < len(link) {
		return link[idx+1:]
	}
	if link != "" {
		return link
	}
	return fmt.Sprintf("%x", sha1.Sum([]byte(title+"|"+date)))[:16]
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

// cleanText 去掉 HTML 标签、解码五个标准实体并截断到描述上限
func cleanText(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = entityReplacer.Replace(s)
	s = strings.TrimSpace(s)
	if len(s) > maxDescriptionLen {
		s = s[:maxDescriptionLen]
	}
	return s
}

var timeLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02T15:04:05.999Z0700",
	"2006-01-02 15:04:05",
}

// parseTime 依次尝试常见时间格式，全部失败时退回当前时间，
// 保证条目不会因为日期格式被整条丢掉
func parseTime(candidates ...string) time.Time {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, c); err == nil {
				return t
			}
		}
	}
	return time.Now()
}
