package hibp

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"passroast-server/pkg/analyzer"
	"passroast-server/pkg/config"
	"passroast-server/pkg/metrics"
	"passroast-server/pkg/version"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// prefixLen is the number of leading digest characters sent to the range API
const prefixLen = 5

// Client queries the Have I Been Pwned range API under k-anonymity: only
// the first five characters of the password's SHA-1 digest ever leave the
// process. Concurrent lookups sharing a prefix are collapsed into a single
// request, and every failure degrades to a clean verdict so an unreachable
// oracle never fails an analysis.
type Client struct {
	logger     *logrus.Logger
	httpClient *http.Client
	baseURL    string
	userAgent  string
	group      singleflight.Group
}

// NewClient creates a range API client from the breach oracle configuration
func NewClient(logger *logrus.Logger, cfg config.HIBPConfig) *Client {
	return &Client{
		logger:     logger,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		userAgent:  version.UserAgent(),
	}
}

// Check reports how often the password appears in known breach corpora.
// The password and its digest are never logged.
func (c *Client) Check(ctx context.Context, password string) analyzer.BreachCheck {
	sum := sha1.Sum([]byte(password))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	prefix, suffix := digest[:prefixLen], digest[prefixLen:]

	done := metrics.ObserveHIBPLatency()
	body, err, _ := c.group.Do(prefix, func() (interface{}, error) {
		return c.fetchRange(ctx, prefix)
	})
	done()

	if err != nil {
		metrics.RecordHIBPRequest("degraded")
		c.logger.WithError(err).Warn("Breach range lookup failed, returning degraded verdict")
		return analyzer.BreachCheck{Degraded: true}
	}

	count := matchSuffix(body.(string), suffix)
	if count > 0 {
		metrics.RecordHIBPRequest("hit")
		return analyzer.BreachCheck{Pwned: true, Count: count}
	}

	metrics.RecordHIBPRequest("miss")
	return analyzer.BreachCheck{}
}

// fetchRange retrieves the suffix list for one digest prefix
func (c *Client) fetchRange(ctx context.Context, prefix string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+prefix, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create range request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("range request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("range API returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read range response: %w", err)
	}

	return string(data), nil
}

// matchSuffix scans the SUFFIX:COUNT response lines for the digest suffix.
// Malformed lines are skipped, absent or zero-count suffixes report 0.
func matchSuffix(body, suffix string) int {
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		candidate, countText, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(candidate), suffix) {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(countText))
		if err != nil {
			continue
		}
		return count
	}
	return 0
}
