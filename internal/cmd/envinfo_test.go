package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osudump/osudump/internal/config"
	"github.com/osudump/osudump/internal/core"
)

func TestWriteEnvInfo(t *testing.T) {
	cfg := testConfig("https://osu.ppy.sh")
	cfg.Fetch.Timeout = 2 * time.Minute
	cfg.Store = config.StoreConfig{URL: "libsql://db.example?authToken=inline-secret", AuthToken: "secret"}
	cfg.Logging.Level = "info"

	var buf bytes.Buffer
	writeEnvInfo(&buf, cfg, "/etc/osudump/config.yaml")
	out := buf.String()

	assert.Contains(t, out, "Config File:    /etc/osudump/config.yaml")
	assert.Contains(t, out, "API Base URL:   https://osu.ppy.sh")
	assert.Contains(t, out, "Rate Limit:     50 requests per 60s")
	assert.Contains(t, out, "Fetch Timeout:  2m0s")
	assert.Contains(t, out, "Max Pages:      none")
	assert.Contains(t, out, "DB URL:         libsql://db.example?authToken=REDACTED")
	assert.Contains(t, out, "DB Auth Token:  (set)")
	assert.NotContains(t, out, "secret")
	assert.NotContains(t, out, "inline-secret")
}

func TestDescribeRateLimitUnlimited(t *testing.T) {
	cfg := testConfig("")
	cfg.RateLimit = core.RateLimitConfig{}
	assert.Equal(t, "unlimited", describeRateLimit(cfg))
}
