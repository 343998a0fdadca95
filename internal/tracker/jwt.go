package tracker

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenLifetime = 3 * time.Minute

// signRequest builds the Connect-style bearer token for one tracker request.
// The qsh claim commits the token to a single method + path + query so a
// leaked token cannot be replayed against other endpoints.
func signRequest(clientKey, sharedSecret, method string, u *url.URL, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss": clientKey,
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime).Unix(),
		"qsh": queryStringHash(method, u),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(sharedSecret))
}

// queryStringHash returns the SHA-256 of the canonical request string
// "METHOD&path&canonical-query".
func queryStringHash(method string, u *url.URL) string {
	canonical := strings.ToUpper(method) + "&" + canonicalPath(u.Path) + "&" + canonicalQuery(u.Query())
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func canonicalPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

// canonicalQuery sorts parameters by name and percent-encodes each value.
func canonicalQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		vals := append([]string(nil), q[k]...)
		sort.Strings(vals)
		escaped := make([]string, len(vals))
		for i, v := range vals {
			escaped[i] = strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
		}
		parts = append(parts, url.QueryEscape(k)+"="+strings.Join(escaped, ","))
	}
	return strings.Join(parts, "&")
}
