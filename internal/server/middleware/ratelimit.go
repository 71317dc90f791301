package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter ограничивает частоту запросов по ключу (IP клиента)
// в фиксированном окне. Используется для защиты login/refresh от перебора.
type RateLimiter struct {
	visitors map[string]*visitor
	logger   *slog.Logger
	stopC    chan struct{}
	limit    int
	window   time.Duration
	mu       sync.Mutex
}

// visitor — счетчик запросов одного клиента в текущем окне
type visitor struct {
	windowStart time.Time
	count       int
}

// NewRateLimiter создает rate limiter: не более limit запросов на ключ
// за window. Горутина очистки живет до вызова Stop.
func NewRateLimiter(limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		logger:   logger,
		stopC:    make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.removeStale()
		case <-rl.stopC:
			return
		}
	}
}

// removeStale удаляет счетчики, чье окно давно закончилось
func (rl *RateLimiter) removeStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	for key, v := range rl.visitors {
		if v.windowStart.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

// Stop останавливает горутину очистки
func (rl *RateLimiter) Stop() {
	close(rl.stopC)
}

// Allow сообщает, разрешен ли запрос для ключа, и сколько осталось
// до сброса окна (для заголовка Retry-After)
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	v, ok := rl.visitors[key]
	if !ok || now.Sub(v.windowStart) >= rl.window {
		rl.visitors[key] = &visitor{windowStart: now, count: 1}
		return true, 0
	}

	if v.count < rl.limit {
		v.count++
		return true, 0
	}

	return false, rl.window - now.Sub(v.windowStart)
}

// Middleware отклоняет запросы сверх лимита со статусом 429
// и заголовком Retry-After. Владелец limiter отвечает за вызов Stop.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := getClientIP(r)

			allowed, retryAfter := rl.Allow(key)
			if !allowed {
				rl.logger.Warn("Rate limit exceeded",
					"ip", key,
					"method", r.Method,
					"path", r.URL.Path,
				)

				seconds := int(retryAfter.Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded, please try again later"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP извлекает IP адрес клиента из запроса.
// Заголовки X-Forwarded-For и X-Real-IP выставляются прокси перед сервером.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Первый адрес в списке — исходный клиент
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// RemoteAddr содержит порт, для ключа лимита он не нужен
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
