package chpp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"
)

// Credentials holds the CHPP consumer pair plus the resource-owner token
// pair obtained through the one-time authorization dance.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

func (c Credentials) validate() error {
	if strings.TrimSpace(c.ConsumerKey) == "" || strings.TrimSpace(c.ConsumerSecret) == "" {
		return fmt.Errorf("consumer key and secret are required")
	}
	if strings.TrimSpace(c.AccessToken) == "" || strings.TrimSpace(c.AccessSecret) == "" {
		return fmt.Errorf("access token and secret are required")
	}
	return nil
}

type oauthSigner struct {
	creds     Credentials
	nonceFunc func() string
	clock     func() time.Time
}

func newOAuthSigner(creds Credentials) *oauthSigner {
	return &oauthSigner{
		creds:     creds,
		nonceFunc: randomNonce,
		clock:     time.Now,
	}
}

// AuthorizationHeader builds the OAuth 1.0a HMAC-SHA1 Authorization header
// for a GET request to requestURL with the given query parameters.
func (s *oauthSigner) AuthorizationHeader(requestURL string, query map[string]string) string {
	oauthParams := map[string]string{
		"oauth_consumer_key":     s.creds.ConsumerKey,
		"oauth_token":            s.creds.AccessToken,
		"oauth_nonce":            s.nonceFunc(),
		"oauth_timestamp":        strconv.FormatInt(s.clock().Unix(), 10),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_version":          "1.0",
	}

	signature := s.sign("GET", requestURL, query, oauthParams)
	oauthParams["oauth_signature"] = signature

	keys := make([]string, 0, len(oauthParams))
	for key := range oauthParams {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("OAuth ")
	for i, key := range keys {
		if i > 0 {
			_, _ = buf.WriteString(", ")
		}
		_, _ = buf.WriteString(percentEncode(key))
		_, _ = buf.WriteString(`="`)
		_, _ = buf.WriteString(percentEncode(oauthParams[key]))
		_ = buf.WriteByte('"')
	}
	return buf.String()
}

func (s *oauthSigner) sign(method, requestURL string, query, oauthParams map[string]string) string {
	pairs := make([][2]string, 0, len(query)+len(oauthParams))
	for key, value := range query {
		pairs = append(pairs, [2]string{percentEncode(key), percentEncode(value)})
	}
	for key, value := range oauthParams {
		pairs = append(pairs, [2]string{percentEncode(key), percentEncode(value)})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for i, pair := range pairs {
		if i > 0 {
			_ = buf.WriteByte('&')
		}
		_, _ = buf.WriteString(pair[0])
		_ = buf.WriteByte('=')
		_, _ = buf.WriteString(pair[1])
	}

	base := method + "&" + percentEncode(requestURL) + "&" + percentEncode(buf.String())
	signingKey := percentEncode(s.creds.ConsumerSecret) + "&" + percentEncode(s.creds.AccessSecret)

	mac := hmac.New(sha1.New, []byte(signingKey))
	_, _ = mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode applies the RFC 3986 encoding OAuth 1.0a requires, which is
// stricter than url.QueryEscape (spaces become %20, tildes stay literal).
func percentEncode(value string) string {
	var sb strings.Builder
	sb.Grow(len(value))
	for i := 0; i < len(value); i++ {
		ch := value[i]
		if isUnreservedByte(ch) {
			_ = sb.WriteByte(ch)
			continue
		}
		_ = sb.WriteByte('%')
		_, _ = sb.WriteString(strings.ToUpper(hex.EncodeToString([]byte{ch})))
	}
	return sb.String()
}

func isUnreservedByte(ch byte) bool {
	switch {
	case ch >= 'a' && ch <= 'z':
		return true
	case ch >= 'A' && ch <= 'Z':
		return true
	case ch >= '0' && ch <= '9':
		return true
	case ch == '-' || ch == '.' || ch == '_' || ch == '~':
		return true
	}
	return false
}

func randomNonce() string {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(raw)
}
