package gateway

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hirewire/warden/internal/config"
	"github.com/hirewire/warden/internal/logger"
	"github.com/hirewire/warden/internal/metrics"
	"github.com/hirewire/warden/internal/models"
)

// BlockHeader carries the rejection reason on 403/400 responses.
const BlockHeader = "X-Security-Block"

// ContextUserIDKey is where upstream auth middleware places the
// authenticated user id, if any. Quarantine checks use it.
const ContextUserIDKey = "warden.user_id"

// BlockChecker answers the hot-path "is this client blocked" question.
type BlockChecker interface {
	IsBlocked(blockType models.BlockType, value string) (bool, error)
}

// EventRecorder accepts admission events. Record must never block the
// request path; failures are absorbed by the recorder.
type EventRecorder interface {
	Record(event models.SecurityEvent)
}

// Gateway runs the admission pipeline for every inbound request:
// classifier → block registry → rate limiter → threat matcher → event log.
type Gateway struct {
	cfg      config.GatewayConfig
	blocks   BlockChecker
	limiter  RateLimitStore
	patterns *PatternMatcher
	events   EventRecorder
}

// New assembles a Gateway from its collaborators.
func New(cfg config.GatewayConfig, blocks BlockChecker, limiter RateLimitStore, events EventRecorder) *Gateway {
	return &Gateway{
		cfg:      cfg,
		blocks:   blocks,
		limiter:  limiter,
		patterns: NewPatternMatcher(),
		events:   events,
	}
}

type verdict struct {
	status  int
	message string
	headers map[string]string
}

// Middleware returns the Gin middleware enforcing the admission pipeline.
func (g *Gateway) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := g.evaluate(c); v != nil {
			for k, val := range v.headers {
				c.Header(k, val)
			}
			c.AbortWithStatusJSON(v.status, gin.H{"error": v.message})
			return
		}
		c.Next()
	}
}

// evaluate runs the pipeline and returns a non-nil verdict for rejections.
// Any internal panic is converted to an allow decision plus a medium-severity
// event: the pipeline must never take down the request path.
func (g *Gateway) evaluate(c *gin.Context) (v *verdict) {
	info := Classify(c.Request)
	path := c.Request.URL.Path

	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(map[string]interface{}{
				"source": "gateway",
				"path":   path,
				"panic":  fmt.Sprintf("%v", r),
			}).Error("security pipeline fault, failing open")
			g.record(info, path, "security_middleware_error", models.EventSuspiciousActivity,
				models.SeverityMedium, false, models.EventDetails{"error": fmt.Sprintf("%v", r)})
			v = nil
		}
	}()

	metrics.IncRequest()

	if info.Malformed {
		g.record(info, path, "malformed_request", models.EventSuspiciousActivity,
			models.SeverityMedium, false, models.EventDetails{"error": "unparseable query string"})
	}

	if v := g.checkRegistry(c, info, path); v != nil {
		return v
	}
	if v := g.checkRateLimit(info, path); v != nil {
		return v
	}
	if v := g.checkPatterns(info, path); v != nil {
		return v
	}

	g.record(info, path, "request_allowed", models.EventDataAccess, models.SeverityLow, false, nil)
	return nil
}

func (g *Gateway) checkRegistry(c *gin.Context, info ClientInfo, path string) *verdict {
	blocked, err := g.blocks.IsBlocked(models.BlockTypeIP, info.IP)
	if err != nil {
		return g.registryFailure(info, path, err)
	}

	if !blocked {
		if userID := c.GetString(ContextUserIDKey); userID != "" {
			blocked, err = g.blocks.IsBlocked(models.BlockTypeUser, userID)
			if err != nil {
				return g.registryFailure(info, path, err)
			}
		}
	}

	if !blocked {
		return nil
	}

	metrics.IncBlocked("block_registry")
	g.record(info, path, "ip_blocked", models.EventAuthorization, models.SeverityHigh, true, nil)
	return &verdict{
		status:  http.StatusForbidden,
		message: "access denied",
		headers: map[string]string{BlockHeader: "IP_BLOCKED"},
	}
}

// registryFailure applies the configured availability policy when the block
// registry backend errors out.
func (g *Gateway) registryFailure(info ClientInfo, path string, err error) *verdict {
	logger.WithFields(map[string]interface{}{
		"source": "gateway",
		"ip":     info.IP,
	}).WithError(err).Warn("block registry lookup failed")

	if !g.cfg.FailClosed {
		return nil
	}
	return &verdict{
		status:  http.StatusServiceUnavailable,
		message: "security backend unavailable",
		headers: map[string]string{},
	}
}

func (g *Gateway) checkRateLimit(info ClientInfo, path string) *verdict {
	limits := Limits{PerMinute: g.cfg.RequestsPerMinute, PerHour: g.cfg.RequestsPerHour}
	res := g.limiter.Check(info.IP, limits)
	if res.Allowed {
		return nil
	}

	metrics.IncBlocked("rate_limit")
	g.record(info, path, "rate_limited", models.EventSuspiciousActivity, models.SeverityMedium, true,
		models.EventDetails{
			"limit":  strconv.Itoa(limits.PerMinute),
			"window": "1m",
		})

	retryAfter := int(time.Until(res.ResetTime).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	return &verdict{
		status:  http.StatusTooManyRequests,
		message: "rate limit exceeded",
		headers: map[string]string{
			"X-RateLimit-Limit":     strconv.Itoa(limits.PerMinute),
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     strconv.FormatInt(res.ResetTime.Unix(), 10),
			"Retry-After":           strconv.Itoa(retryAfter),
		},
	}
}

func (g *Gateway) checkPatterns(info ClientInfo, path string) *verdict {
	match := g.patterns.Detect(info)
	if match == nil {
		return nil
	}

	metrics.IncBlocked("threat_pattern")

	severity := models.SeverityHigh
	action := "xss_blocked"
	headerValue := "XSS_ATTEMPT"
	if match.Category == CategorySQLInjection {
		severity = models.SeverityCritical
		action = "sql_injection_blocked"
		headerValue = "SQL_INJECTION"
	}

	logger.WithFields(map[string]interface{}{
		"source":   "gateway",
		"decision": "block",
		"category": string(match.Category),
		"pattern":  match.Pattern,
		"surface":  match.Surface,
		"ip":       info.IP,
		"path":     path,
	}).Warn("threat pattern matched")

	g.record(info, path, action, models.EventSuspiciousActivity, severity, true,
		models.EventDetails{
			"pattern":  match.Pattern,
			"category": string(match.Category),
			"surface":  match.Surface,
		})

	return &verdict{
		status:  http.StatusBadRequest,
		message: "request rejected",
		headers: map[string]string{BlockHeader: headerValue},
	}
}

func (g *Gateway) record(info ClientInfo, resource, action string, eventType models.EventType,
	severity models.Severity, blocked bool, details models.EventDetails) {
	g.events.Record(models.SecurityEvent{
		UUID:      uuid.NewString(),
		Type:      eventType,
		Severity:  severity,
		SourceIP:  info.IP,
		UserAgent: info.UserAgent,
		Resource:  resource,
		Action:    action,
		Details:   details,
		Blocked:   blocked,
		CreatedAt: time.Now(),
	})
}
