package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// minIdleTTL bounds how often idle buckets are swept.
const minIdleTTL = time.Minute

type userBucket struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// PostLimiter keeps one token bucket per user. Buckets idle long enough to
// have refilled are dropped; a fresh bucket behaves the same.
type PostLimiter struct {
	mu        sync.Mutex
	buckets   map[uuid.UUID]*userBucket
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewPostLimiter(perSecond float64, burst int) *PostLimiter {
	idle := minIdleTTL
	if perSecond > 0 {
		// Time for an empty bucket to refill completely.
		if refill := time.Duration(float64(burst) / perSecond * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return &PostLimiter{
		buckets: make(map[uuid.UUID]*userBucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: idle,
		now:     time.Now,
	}
}

func (l *PostLimiter) Allow(userID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	b, ok := l.buckets[userID]
	if !ok {
		b = &userBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[userID] = b
	}
	b.lastUsed = now
	return b.limiter.AllowN(now, 1)
}

// Len reports how many buckets are held.
func (l *PostLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// sweep drops buckets unused for idleTTL. Callers hold mu.
func (l *PostLimiter) sweep(now time.Time) {
	for id, b := range l.buckets {
		if now.Sub(b.lastUsed) >= l.idleTTL {
			delete(l.buckets, id)
		}
	}
	l.lastSweep = now
}

// RateLimit rejects requests from users over their budget. It must run after
// AuthMiddleware. A nil limiter lets everything through.
func RateLimit(l *PostLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		userID, err := CurrentUser(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		if !l.Allow(userID) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many messages, slow down"})
			return
		}
		c.Next()
	}
}
