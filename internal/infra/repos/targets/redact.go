package targets

import (
	"net/url"
	"strings"

	"github.com/mmrzaf/sbgen/internal/domain"
)

const mask = "****"

var secretKeys = []string{"password", "pass", "pwd", "api_key", "token"}

func isSecretKey(k string) bool {
	k = strings.ToLower(k)
	for _, s := range secretKeys {
		if k == s {
			return true
		}
	}
	return false
}

// RedactDSN masks credentials in URL and keyword=value DSNs. A DSN
// with neither shape is masked entirely.
func RedactDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return ""
	}

	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.Host != "" {
		if u.User != nil {
			u.User = url.UserPassword(u.User.Username(), mask)
		}
		q := u.Query()
		for k := range q {
			if isSecretKey(k) {
				q.Set(k, mask)
			}
		}
		u.RawQuery = q.Encode()
		return u.String()
	}

	parts := strings.Fields(dsn)
	redacted := false
	for i, p := range parts {
		k, _, ok := strings.Cut(p, "=")
		if ok && isSecretKey(k) {
			parts[i] = k + "=" + mask
			redacted = true
		}
	}
	if redacted {
		return strings.Join(parts, " ")
	}
	return mask
}

// RedactTarget returns a copy safe to print. File and parquet targets
// keep their directory since it carries no credentials.
func RedactTarget(t *domain.TargetConfig) *domain.TargetConfig {
	if t == nil {
		return nil
	}
	cp := *t
	switch cp.Kind {
	case domain.TargetKindFile, domain.TargetKindParquet:
	default:
		cp.DSN = RedactDSN(cp.DSN)
	}
	if len(t.Options) > 0 {
		cp.Options = make(map[string]string, len(t.Options))
		for k, v := range t.Options {
			if isSecretKey(k) {
				v = mask
			}
			cp.Options[k] = v
		}
	}
	return &cp
}

func RedactTargets(list []*domain.TargetConfig) []*domain.TargetConfig {
	out := make([]*domain.TargetConfig, 0, len(list))
	for _, t := range list {
		out = append(out, RedactTarget(t))
	}
	return out
}
