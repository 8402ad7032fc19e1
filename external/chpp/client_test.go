package chpp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/htdash/htdash/internal/platform/logging"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{
		Credentials: Credentials{ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessSecret: "as"},
		TeamID:      42,
		Logger:      logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNormalizePlayerName(t *testing.T) {
	cases := []struct {
		name string
		row  map[string]any
		want string
	}{
		{"all parts", map[string]any{"FirstName": "Erik", "NickName": "Iceman", "LastName": "Larsson"}, "Erik Iceman Larsson"},
		{"no nickname", map[string]any{"FirstName": "Jan", "NickName": "", "LastName": "Kowalski"}, "Jan Kowalski"},
		{"whitespace only", map[string]any{"FirstName": "  ", "LastName": "Silva"}, "Silva"},
		{"empty", map[string]any{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizePlayerName(tc.row); got != tc.want {
				t.Fatalf("normalizePlayerName() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseCHPPTime(t *testing.T) {
	got, err := parseCHPPTime("2026-08-28 20:00:00")
	if err != nil {
		t.Fatalf("parseCHPPTime() error = %v", err)
	}
	want := time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("parseCHPPTime() = %v, want %v", got, want)
	}

	got, err = parseCHPPTime("2026-08-28")
	if err != nil {
		t.Fatalf("parseCHPPTime() error = %v", err)
	}
	want = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("parseCHPPTime() = %v, want %v", got, want)
	}

	if _, err := parseCHPPTime(""); err == nil {
		t.Fatalf("expected error for empty timestamp")
	}
	if _, err := parseCHPPTime("not a date"); err == nil {
		t.Fatalf("expected error for garbage timestamp")
	}
}

func TestCHPPPayloadError(t *testing.T) {
	ok := map[string]any{"HattrickData": map[string]any{"FileName": "players.xml"}}
	if err := chppPayloadError(ok); err != nil {
		t.Fatalf("chppPayloadError() = %v, want nil", err)
	}

	rejected := map[string]any{"HattrickData": map[string]any{
		"Error":     "Unauthorized action",
		"ErrorCode": "59",
	}}
	err := chppPayloadError(rejected)
	if err == nil {
		t.Fatalf("expected error for rejected payload")
	}
	if !strings.Contains(err.Error(), "code=59") || !strings.Contains(err.Error(), "Unauthorized action") {
		t.Fatalf("error %q missing code or message", err)
	}

	if err := chppPayloadError(map[string]any{}); err == nil {
		t.Fatalf("expected error for document without HattrickData")
	}
}

func TestRedactSensitiveText(t *testing.T) {
	creds := Credentials{ConsumerKey: "ckey", ConsumerSecret: "csecret", AccessToken: "atoken", AccessSecret: "asecret"}

	redacted := redactSensitiveText("request ckey failed with atoken", creds)
	if strings.Contains(redacted, "ckey") || strings.Contains(redacted, "atoken") {
		t.Fatalf("credentials leaked: %q", redacted)
	}

	redacted = redactSensitiveText("url?oauth_consumer_key=abc&file=players", creds)
	if strings.Contains(redacted, "oauth_consumer_key=abc") {
		t.Fatalf("oauth param leaked: %q", redacted)
	}
	if !strings.Contains(redacted, "file=players") {
		t.Fatalf("non-sensitive query dropped: %q", redacted)
	}
}

func TestNewClientRejectsMissingCredentials(t *testing.T) {
	_, err := NewClient(ClientConfig{TeamID: 42})
	if err == nil {
		t.Fatalf("expected error for missing credentials")
	}
}

func TestParsePlayersEmptyContainerYieldsEmptyRoster(t *testing.T) {
	c := newTestClient(t)

	cases := []struct {
		name    string
		payload string
	}{
		{"self-closing list", `<HattrickData><Team><TeamID>42</TeamID><PlayerList/></Team></HattrickData>`},
		{"empty list element", `<HattrickData><Team><TeamID>42</TeamID><PlayerList></PlayerList></Team></HattrickData>`},
		{"no list at all", `<HattrickData><Team><TeamID>42</TeamID></Team></HattrickData>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := parseXMLDocument([]byte(tc.payload))
			if err != nil {
				t.Fatalf("parse fixture: %v", err)
			}

			records, err := c.parsePlayers(context.Background(), doc)
			if err != nil {
				t.Fatalf("parsePlayers() error = %v, want empty roster", err)
			}
			if len(records) != 0 {
				t.Fatalf("expected empty roster, got %d records", len(records))
			}
		})
	}
}

func TestParsePlayersReadsRoster(t *testing.T) {
	c := newTestClient(t)

	payload := `<HattrickData><Team><TeamID>42</TeamID><PlayerList>
		<Player><PlayerID>1001</PlayerID><FirstName>Erik</FirstName><LastName>Larsson</LastName><TSI>12000</TSI></Player>
		<Player><PlayerID>1002</PlayerID><FirstName>Jan</FirstName><LastName>Kowalski</LastName><TSI>9000</TSI></Player>
	</PlayerList></Team></HattrickData>`
	doc, err := parseXMLDocument([]byte(payload))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	records, err := c.parsePlayers(context.Background(), doc)
	if err != nil {
		t.Fatalf("parsePlayers() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 roster records, got %d", len(records))
	}
	if records[0].ExternalID != 1001 || records[0].TeamID != 42 {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[0].Name != "Erik Larsson" {
		t.Fatalf("unexpected name: %q", records[0].Name)
	}
}

func TestParseMatchesEmptyContainerYieldsNoMatches(t *testing.T) {
	c := newTestClient(t)

	doc, err := parseXMLDocument([]byte(`<HattrickData><Team><TeamID>42</TeamID><MatchList/></Team></HattrickData>`))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	matches, err := c.parseMatches(context.Background(), 42, doc)
	if err != nil {
		t.Fatalf("parseMatches() error = %v, want no matches", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}

func TestIsRetryableStatus(t *testing.T) {
	for _, status := range []int{408, 429, 500, 502, 503} {
		if !isRetryableStatus(status) {
			t.Fatalf("status %d should be retryable", status)
		}
	}
	for _, status := range []int{200, 400, 401, 404} {
		if isRetryableStatus(status) {
			t.Fatalf("status %d should not be retryable", status)
		}
	}
}
