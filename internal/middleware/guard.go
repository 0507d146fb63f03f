package middleware

import (
	"net"
	"net/http"
	"strings"

	"mall-be/internal/logger"

	"go.uber.org/zap"
)

const ForbiddenIPMessage = "허용되지 않은 IP에서의 요청입니다."

// Chain wraps h so that the first middleware runs first.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// ClientIP is the first X-Forwarded-For entry, or the RemoteAddr host.
// It is caller supplied and only good for allowlisting behind a trusted proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func RequirePOST(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AllowIPs answers 403 for clients outside allowed.
func AllowIPs(allowed []string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, ip := range allowed {
		set[ip] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if _, ok := set[ip]; !ok {
				logger.FromCtx(r.Context()).Warn("request from disallowed ip",
					zap.String("ip", ip),
					zap.String("path", r.URL.Path),
				)
				http.Error(w, ForbiddenIPMessage, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TrustedOrigins rejects state-changing requests whose Origin header is set
// and not listed. Requests without Origin pass.
func TrustedOrigins(origins []string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		set[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin == "" || sameHost(origin, r.Host) {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := set[origin]; !ok {
				logger.FromCtx(r.Context()).Warn("untrusted origin", zap.String("origin", origin))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sameHost(origin, host string) bool {
	_, rest, ok := strings.Cut(origin, "://")
	return ok && rest == host
}
