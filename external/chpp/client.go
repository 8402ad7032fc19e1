package chpp

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/htdash/htdash/internal/platform/logging"
	"github.com/htdash/htdash/internal/platform/resilience"
	"github.com/htdash/htdash/internal/usecase"
	"github.com/valyala/fasthttp"
)

const (
	defaultBaseURL        = "https://chpp.hattrick.org/chppxml.ashx"
	playersFileVersion    = "2.7"
	matchesFileVersion    = "2.9"
	avatarsFileVersion    = "1.1"
	defaultRequestTimeout = 20 * time.Second
	maxResponseBodySize   = 6 << 20
)

var oauthParamRegex = regexp.MustCompile(`oauth_[a-z_]+=[^&\s"']+`)
var errCHPPTransient = crerr.New("chpp transient failure")

type ClientConfig struct {
	HTTPClient     *fasthttp.Client
	BaseURL        string
	Credentials    Credentials
	TeamID         int64
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the Hattrick CHPP XML endpoint and adapts its payloads
// into the shapes the sync pipeline consumes.
type Client struct {
	httpClient     *fasthttp.Client
	baseURL        string
	signer         *oauthSigner
	teamID         int64
	timeout        time.Duration
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.Credentials.validate(); err != nil {
		return nil, fmt.Errorf("chpp credentials: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			MaxResponseBodySize: maxResponseBodySize,
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		signer:         newOAuthSigner(cfg.Credentials),
		teamID:         cfg.TeamID,
		timeout:        timeout,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}, nil
}

func (c *Client) FetchPlayers(ctx context.Context) ([]usecase.ExternalPlayerRecord, error) {
	query := map[string]string{
		"file":             "players",
		"version":          playersFileVersion,
		"teamID":           fmt.Sprintf("%d", c.teamID),
		"includeMatchInfo": "true",
	}

	doc, err := c.doXML(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch players team_id=%d: %w", c.teamID, err)
	}

	return c.parsePlayers(ctx, doc)
}

func (c *Client) parsePlayers(ctx context.Context, doc map[string]any) ([]usecase.ExternalPlayerRecord, error) {
	data := bagMap(doc["HattrickData"])
	team := bagMap(data["Team"])
	playerList := bagMap(team["PlayerList"])
	if playerList == nil {
		// Some file versions put the list at the document root.
		playerList = bagMap(data["PlayerList"])
	}
	if playerList == nil {
		// A missing or self-closing container means no players returned.
		// The sync proceeds with an empty roster.
		c.logger.WarnContext(ctx, "players payload has no PlayerList element", "team_id", c.teamID)
		return []usecase.ExternalPlayerRecord{}, nil
	}

	teamID, ok := bagInt64(team, "TeamID")
	if !ok {
		teamID = c.teamID
	}

	rows := bagList(playerList["Player"])
	records := make([]usecase.ExternalPlayerRecord, 0, len(rows))
	for _, row := range rows {
		playerID, ok := bagInt64(row, "PlayerID")
		if !ok {
			continue
		}
		rowTeamID, ok := bagInt64(row, "TeamID")
		if !ok {
			rowTeamID = teamID
		}
		records = append(records, usecase.ExternalPlayerRecord{
			ExternalID: playerID,
			TeamID:     rowTeamID,
			Name:       normalizePlayerName(row),
			Attributes: row,
		})
	}
	return records, nil
}

func (c *Client) FetchAvatars(ctx context.Context) ([]usecase.ExternalAvatar, error) {
	query := map[string]string{
		"file":    "avatars",
		"version": avatarsFileVersion,
		"teamId":  fmt.Sprintf("%d", c.teamID),
	}

	doc, err := c.doXML(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch avatars team_id=%d: %w", c.teamID, err)
	}

	data := bagMap(doc["HattrickData"])
	team := bagMap(data["Team"])
	players := bagMap(team["Players"])
	if players == nil {
		players = bagMap(data["Players"])
	}
	if players == nil {
		return nil, fmt.Errorf("avatars payload has no Players element")
	}

	rows := bagList(players["Player"])
	avatars := make([]usecase.ExternalAvatar, 0, len(rows))
	for _, row := range rows {
		playerID, ok := bagInt64(row, "PlayerID")
		if !ok {
			continue
		}
		avatar := bagMap(row["Avatar"])
		if avatar == nil {
			continue
		}

		layers := bagList(avatar["Layer"])
		parsed := usecase.ExternalAvatar{
			PlayerExternalID:   playerID,
			BackgroundImageURL: bagString(avatar, "BackgroundImage"),
			Layers:             make([]usecase.AvatarLayer, 0, len(layers)),
		}
		for _, layer := range layers {
			x, _ := bagInt(layer, "x")
			y, _ := bagInt(layer, "y")
			parsed.Layers = append(parsed.Layers, usecase.AvatarLayer{
				ImageURL: bagString(layer, "Image"),
				X:        x,
				Y:        y,
			})
		}
		avatars = append(avatars, parsed)
	}
	return avatars, nil
}

func (c *Client) FetchMatches(ctx context.Context, teamID int64) ([]usecase.ExternalMatch, error) {
	if teamID <= 0 {
		teamID = c.teamID
	}
	query := map[string]string{
		"file":    "matches",
		"version": matchesFileVersion,
		"isYouth": "false",
		"teamID":  fmt.Sprintf("%d", teamID),
	}

	doc, err := c.doXML(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch matches team_id=%d: %w", teamID, err)
	}

	return c.parseMatches(ctx, teamID, doc)
}

func (c *Client) parseMatches(ctx context.Context, teamID int64, doc map[string]any) ([]usecase.ExternalMatch, error) {
	data := bagMap(doc["HattrickData"])
	team := bagMap(data["Team"])
	matchList := bagMap(team["MatchList"])
	if matchList == nil {
		matchList = bagMap(data["MatchList"])
	}
	if matchList == nil {
		// Same fallback as the roster: no container, no matches this cycle.
		c.logger.WarnContext(ctx, "matches payload has no MatchList element", "team_id", teamID)
		return []usecase.ExternalMatch{}, nil
	}

	effectiveTeamID, ok := bagInt64(team, "TeamID")
	if !ok {
		effectiveTeamID = teamID
	}

	rows := bagList(matchList["Match"])
	matches := make([]usecase.ExternalMatch, 0, len(rows))
	for _, row := range rows {
		matchID, ok := bagInt64(row, "MatchID")
		if !ok {
			continue
		}
		date, err := parseCHPPTime(bagString(row, "MatchDate"))
		if err != nil {
			return nil, fmt.Errorf("match external_id=%d: parse MatchDate: %w", matchID, err)
		}

		home := bagMap(row["HomeTeam"])
		away := bagMap(row["AwayTeam"])

		parsed := usecase.ExternalMatch{
			ExternalID:    matchID,
			TeamID:        effectiveTeamID,
			Date:          date,
			HomeID:        firstInt64(home, "HomeTeamID"),
			HomeName:      bagString(home, "HomeTeamName"),
			HomeShortName: bagString(home, "HomeTeamShortName"),
			AwayID:        firstInt64(away, "AwayTeamID"),
			AwayName:      bagString(away, "AwayTeamName"),
			AwayShortName: bagString(away, "AwayTeamShortName"),
			Status:        strings.ToUpper(bagString(row, "Status")),
		}
		if code, ok := bagInt(row, "MatchType"); ok {
			parsed.TypeCode = code
		}
		if goals, ok := bagInt(row, "HomeGoals"); ok {
			parsed.HomeGoals = &goals
		}
		if goals, ok := bagInt(row, "AwayGoals"); ok {
			parsed.AwayGoals = &goals
		}
		if contextID, ok := bagInt64(row, "MatchContextId"); ok {
			parsed.ContextID = &contextID
		}
		if level, ok := bagInt(row, "CupLevel"); ok {
			parsed.CupLevel = &level
		}
		if index, ok := bagInt(row, "CupLevelIndex"); ok {
			parsed.CupLevelIndex = &index
		}
		if source := bagString(row, "SourceSystem"); source != "" {
			parsed.SourceSystem = &source
		}
		if given, ok := bagBool(row, "OrdersGiven"); ok {
			parsed.OrdersGiven = &given
		}
		matches = append(matches, parsed)
	}
	return matches, nil
}

func (c *Client) doXML(ctx context.Context, query map[string]string) (map[string]any, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "chpp circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: hattrick api is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, key := range keys {
		if i > 0 {
			_ = sb.WriteByte('&')
		}
		_, _ = sb.WriteString(percentEncode(key))
		_ = sb.WriteByte('=')
		_, _ = sb.WriteString(percentEncode(query[key]))
	}
	encodedQuery := sb.String()
	fullURL := c.baseURL + "?" + encodedQuery

	out, err, _ := c.flight.Do(encodedQuery, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL, query)
		if c.circuitEnabled {
			if reqErr != nil && isCHPPCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	doc, err := parseXMLDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("decode chpp payload: %w", err)
	}
	if apiErr := chppPayloadError(doc); apiErr != nil {
		return nil, apiErr
	}
	return doc, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string, query map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		raw, err := c.sendOnce(fullURL, query)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !stderrors.Is(err, errCHPPTransient) {
			return nil, err
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "chpp request failed", "url", redactSensitiveText(fullURL, c.signer.creds), "error", redactSensitiveText(lastErr.Error(), c.signer.creds))
	return nil, lastErr
}

func (c *Client) sendOnce(fullURL string, query map[string]string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "text/xml")
	req.Header.Set("Authorization", c.signer.AuthorizationHeader(c.baseURL, query))

	if err := c.httpClient.DoTimeout(req, resp, c.timeout); err != nil {
		return nil, fmt.Errorf("%w: send request: %s", errCHPPTransient, redactSensitiveText(err.Error(), c.signer.creds))
	}

	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		body := resp.Body()
		raw := make([]byte, len(body))
		copy(raw, body)
		return raw, nil
	}

	if isRetryableStatus(status) {
		return nil, fmt.Errorf("%w: chpp status=%d body=%s", errCHPPTransient, status, abbreviateBody(resp.Body()))
	}
	return nil, fmt.Errorf("chpp status=%d body=%s", status, abbreviateBody(resp.Body()))
}

// chppPayloadError surfaces the in-band error document CHPP returns with an
// HTTP 200 status when a request is rejected.
func chppPayloadError(doc map[string]any) error {
	data := bagMap(doc["HattrickData"])
	if data == nil {
		return fmt.Errorf("payload has no HattrickData element")
	}
	message := bagString(data, "Error")
	if message == "" {
		return nil
	}
	if code, ok := bagInt(data, "ErrorCode"); ok {
		return fmt.Errorf("chpp error code=%d: %s", code, message)
	}
	return fmt.Errorf("chpp error: %s", message)
}

func normalizePlayerName(row map[string]any) string {
	parts := make([]string, 0, 3)
	for _, key := range []string{"FirstName", "NickName", "LastName"} {
		if part := bagString(row, key); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

func firstInt64(bag map[string]any, key string) int64 {
	value, _ := bagInt64(bag, key)
	return value
}

func parseCHPPTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	layouts := []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		parsed, err := time.ParseInLocation(layout, value, time.UTC)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func redactSensitiveText(value string, creds Credentials) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	for _, secret := range []string{creds.ConsumerKey, creds.ConsumerSecret, creds.AccessToken, creds.AccessSecret} {
		if secret != "" {
			value = strings.ReplaceAll(value, secret, "REDACTED")
		}
	}
	return oauthParamRegex.ReplaceAllString(value, "oauth_param=REDACTED")
}

func isCHPPCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errCHPPTransient)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == fasthttp.StatusRequestTimeout ||
		statusCode == fasthttp.StatusTooManyRequests ||
		statusCode >= fasthttp.StatusInternalServerError
}

func abbreviateBody(raw []byte) string {
	const maxLen = 512
	text := strings.TrimSpace(string(raw))
	if len(text) > maxLen {
		return text[:maxLen] + "...(truncated)"
	}
	return text
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
