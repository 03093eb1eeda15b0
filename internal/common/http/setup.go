package http

import (
	"net/http"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/constants"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/httpmetrics"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
)

func BuildBaseHandler(appName string, log *logger.Logger, handler http.Handler) http.Handler {
	metrics := httpmetrics.New(appName)
	recovery := RecoveryMiddleware(log)
	traceID := TraceIDMiddleware
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)
	securityHeaders := SecurityHeadersMiddleware
	csp := ContentSecurityPolicyMiddleware("")

	return securityHeaders(csp(traceID(recovery(maxRequestSize(metrics.Wrap(handler))))))
}
