package main

import (
	"context"
	"fmt"
	"os"

	authcleanup "github.com/AlibekovAA/tenantdesk-auth/internal/auth/cleanup"
	authhttp "github.com/AlibekovAA/tenantdesk-auth/internal/auth/http"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/bootstrap"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/constants"
	commonhttp "github.com/AlibekovAA/tenantdesk-auth/internal/common/http"
	srv "github.com/AlibekovAA/tenantdesk-auth/internal/common/server"
	identityservice "github.com/AlibekovAA/tenantdesk-auth/internal/identity/service"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.NewAuthApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "auth service failed to start: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	log := app.Log
	log.Infof("auth service starting: env=%s issuer=%s", app.Config.Environment, app.Config.JWTIssuer)

	go authcleanup.StartRefreshTokenCleanup(ctx, app.RefreshTokens, app.Clock, constants.RefreshTokenCleanupInterval, log)

	rateLimiter := commonhttp.NewStrictRateLimiter(app.TrustedProxies)
	rateLimiter.StartCleanup(ctx)

	handler := authhttp.NewHandler(app.AuthService, identityservice.NewPopulator(log), authhttp.Options{
		RequestTimeout: app.Config.RequestTimeout,
		RateLimiter:    rateLimiter,
		TrustedProxies: app.TrustedProxies,
	}, log)

	server := srv.NewServer(srv.DefaultServerConfig(app.Config.HTTPPort), commonhttp.BuildBaseHandler("auth", log, handler))

	shutdownHooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			log.Infof("auth service: stopping background workers")
			cancel()
			return nil
		},
	}

	srv.StartWithGracefulShutdownAndHooks(server, log, "auth", shutdownHooks)
}
