package secrets

import (
	"net/url"
	"os"
	"strings"
	"sync"
)

var (
	once          sync.Once
	sensitiveEnvs []string

	headerKeySet = map[string]struct{}{
		"x-transmission-session-id": {},
		"x-admin-key":               {},
		"authorization":             {},
		"proxy-authorization":       {},
	}

	envNameSensitivePatterns = []string{
		"API_KEY", "ADMIN_KEY", "TOKEN", "SECRET", "PASSWORD",
	}
)

func initSensitiveEnvs() {
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name, val := parts[0], parts[1]
		up := strings.ToUpper(name)
		for _, pat := range envNameSensitivePatterns {
			if strings.Contains(up, pat) && val != "" {
				sensitiveEnvs = append(sensitiveEnvs, val)
				break
			}
		}
	}
}

// IsSensitiveHeader reports whether a header value must not be logged.
func IsSensitiveHeader(name string) bool {
	_, ok := headerKeySet[strings.ToLower(name)]
	return ok
}

func RedactHeaders(h map[string][]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if IsSensitiveHeader(k) {
			out[k] = "***"
			continue
		}
		out[k] = strings.Join(v, ",")
	}
	return out
}

// RedactURL hides userinfo and the values of sensitive env vars.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return RedactString(raw)
	}
	if u.User != nil {
		u.User = url.User("***")
	}
	return RedactString(u.String())
}

func RedactString(s string) string {
	once.Do(initSensitiveEnvs)
	for _, val := range sensitiveEnvs {
		if val == "" {
			continue
		}
		s = strings.ReplaceAll(s, val, "[HIDDEN]")
	}
	return s
}
