package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"strings"
	"time"

	"blueprep_backend/internal/model"
	"blueprep_backend/internal/repository"
	"blueprep_backend/internal/util"
	"blueprep_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	FormatHTML = "html"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

type RankedEntry struct {
	Rank int `json:"rank"`
	model.SubmissionRow
}

type Leaderboard struct {
	Test        model.Test    `json:"test"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Entries     []RankedEntry `json:"entries"`
}

// Rank orders rows by percent desc, correct desc, time taken asc. Ties keep
// the input order, so callers pass rows in arrival order.
func Rank(rows []model.SubmissionRow) []RankedEntry {
	sorted := make([]model.SubmissionRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Percent != b.Percent {
			return a.Percent > b.Percent
		}
		if a.CorrectCount != b.CorrectCount {
			return a.CorrectCount > b.CorrectCount
		}
		return a.TimeTakenSeconds < b.TimeTakenSeconds
	})

	entries := make([]RankedEntry, len(sorted))
	for i, row := range sorted {
		entries[i] = RankedEntry{Rank: i + 1, SubmissionRow: row}
	}
	return entries
}

// LeaderboardService builds and renders leaderboards. Renders of ended tests
// are cached in Redis when a client is configured; nothing changes after end.
type LeaderboardService struct {
	Tests       repository.TestStore
	Submissions repository.SubmissionStore
	Cache       *redis.Client
	CacheTTL    time.Duration
}

func NewLeaderboardService(tests repository.TestStore, submissions repository.SubmissionStore, cache *redis.Client, ttl time.Duration) *LeaderboardService {
	return &LeaderboardService{Tests: tests, Submissions: submissions, Cache: cache, CacheTTL: ttl}
}

func (s *LeaderboardService) Build(ctx context.Context, testID uint, now time.Time) (*Leaderboard, error) {
	test, err := s.Tests.GetTest(ctx, testID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, util.ErrTestNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.build(ctx, test, now)
}

func (s *LeaderboardService) build(ctx context.Context, test *model.Test, now time.Time) (*Leaderboard, error) {
	rows, err := s.Submissions.ListSubmissions(ctx, test.ID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return &Leaderboard{Test: *test, GeneratedAt: now, Entries: Rank(rows)}, nil
}

// Render returns the leaderboard of testID as html or csv.
func (s *LeaderboardService) Render(ctx context.Context, testID uint, format string, now time.Time) ([]byte, string, error) {
	contentType := util.MimeHTML
	render := RenderHTML
	switch format {
	case FormatHTML, "":
	case FormatCSV:
		contentType, render = util.MimeCSV, RenderCSV
	default:
		return nil, "", fmt.Errorf("unsupported leaderboard format %q", format)
	}

	test, err := s.Tests.GetTest(ctx, testID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", util.ErrTestNotFound
	}
	if err != nil {
		return nil, "", err
	}

	cacheable := s.Cache != nil && test.Status == model.TestEnded
	key := leaderboardCacheKey(testID, format)
	if cacheable {
		cached, err := s.Cache.Get(ctx, key).Bytes()
		if err == nil {
			return cached, contentType, nil
		}
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Leaderboard cache read failed", zap.Uint("test_id", testID), zap.Error(err))
		}
	}

	lb, err := s.build(ctx, test, now)
	if err != nil {
		return nil, "", err
	}
	if len(lb.Entries) == 0 {
		return nil, "", util.ErrNoSubmissions
	}
	body, err := render(lb)
	if err != nil {
		return nil, "", err
	}

	if cacheable {
		if err := s.Cache.Set(ctx, key, body, s.CacheTTL).Err(); err != nil {
			logger.Log.Warn("Leaderboard cache write failed", zap.Uint("test_id", testID), zap.Error(err))
		}
	}
	return body, contentType, nil
}

func leaderboardCacheKey(testID uint, format string) string {
	if format == "" {
		format = FormatHTML
	}
	return fmt.Sprintf("blueprep:leaderboard:%d:%s", testID, format)
}

var reportTemplate = template.Must(template.New("leaderboard").Funcs(template.FuncMap{
	"elapsed":  FormatElapsed,
	"datetime": func(t time.Time) string { return t.Format(util.TimeFormat) },
	"percent":  func(p float64) string { return strconv.FormatFloat(p, 'f', 2, 64) },
	"user":     func(username string) string { return displayUsername(username) },
	"region": func(r *string) string {
		if r == nil || *r == "" {
			return "-"
		}
		return *r
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Leaderboard - {{.Test.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 24px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background: #2b6cb0; color: #fff; }
tr:nth-child(even) { background: #f5f7fa; }
</style>
</head>
<body>
<h1>{{.Test.Title}}</h1>
<p>Test #{{.Test.ID}} &middot; {{.Test.NumQuestions}} questions &middot; generated {{datetime .GeneratedAt}} &middot; {{len .Entries}} submissions</p>
<table>
<thead><tr><th>Rank</th><th>Name</th><th>User</th><th>Handle</th><th>Region</th><th>Correct</th><th>Wrong</th><th>Percent</th><th>Time</th><th>Submitted At</th></tr></thead>
<tbody>
{{range .Entries}}<tr><td>{{.Rank}}</td><td>{{.FullName}}</td><td>{{user .Username}}</td><td>{{.Handle}}</td><td>{{region .Region}}</td><td>{{.CorrectCount}}</td><td>{{.WrongCount}}</td><td>{{percent .Percent}}%</td><td>{{elapsed .TimeTakenSeconds}}</td><td>{{datetime .SubmittedAt}}</td></tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

func RenderHTML(lb *Leaderboard) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, lb); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func RenderCSV(lb *Leaderboard) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"rank", "name", "user", "handle", "region", "correct", "wrong", "percent", "time_taken", "submitted_at"})
	for _, e := range lb.Entries {
		region := ""
		if e.Region != nil {
			region = *e.Region
		}
		_ = w.Write([]string{
			strconv.Itoa(e.Rank),
			e.FullName,
			displayUsername(e.Username),
			strconv.FormatInt(e.Handle, 10),
			region,
			strconv.Itoa(e.CorrectCount),
			strconv.Itoa(e.WrongCount),
			strconv.FormatFloat(e.Percent, 'f', 2, 64),
			FormatElapsed(e.TimeTakenSeconds),
			e.SubmittedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Summary is the short text sent alongside a report.
func Summary(lb *Leaderboard, top int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Test ended: %s\n", lb.Test.Title)
	fmt.Fprintf(&b, "Total submissions: %d\n", len(lb.Entries))
	if len(lb.Entries) == 0 {
		return b.String()
	}
	if top > len(lb.Entries) {
		top = len(lb.Entries)
	}
	fmt.Fprintf(&b, "\nTop %d:\n", top)
	for _, e := range lb.Entries[:top] {
		fmt.Fprintf(&b, "%d. %s - %s%% (%d/%d)\n",
			e.Rank, e.FullName, strconv.FormatFloat(e.Percent, 'f', 2, 64), e.CorrectCount, lb.Test.NumQuestions)
	}
	return b.String()
}

// FormatElapsed renders seconds as H:MM:SS; hours are not folded into days.
func FormatElapsed(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

func displayUsername(username string) string {
	p := model.Participant{Username: username}
	return p.DisplayUsername()
}
