package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/linkdropapp/linkdrop/internal/app/handler"
	"github.com/linkdropapp/linkdrop/internal/app/server"
	grpcserver "github.com/linkdropapp/linkdrop/internal/app/server/grpc"
	"github.com/linkdropapp/linkdrop/internal/app/service"
	"github.com/linkdropapp/linkdrop/internal/config"
	"github.com/linkdropapp/linkdrop/internal/logger"
	"github.com/linkdropapp/linkdrop/internal/notify"
	"github.com/linkdropapp/linkdrop/internal/objectstore"
	"github.com/linkdropapp/linkdrop/internal/repository"
	"github.com/linkdropapp/linkdrop/internal/storage"
	"github.com/linkdropapp/linkdrop/internal/worker"

	_ "net/http/pprof"
)

var buildVersion string
var buildDate string
var buildCommit string

const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

func main() {
	options := config.Parse()

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)

	log := logger.New()
	defer func() {
		_ = log.Log.Sync()
	}()

	err := log.Init("Info")
	zapLogger := log.Log
	if err != nil {
		panic(err)
	}

	if options.EnablePprof {
		go func() {
			zapLogger.Info("Starting pprof server", zap.String("addr", "localhost:6060"))
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				zapLogger.Error("pprof server error", zap.Error(err))
			}
		}()
	}

	var s service.Storage

	if options.DatabaseDSN != "" {
		zapLogger.Info("using db", zap.String("dsn", options.DatabaseDSN))
		db := repository.InitDB(options.DatabaseDSN)
		defer db.Close()
		s = repository.New(db)
		zapLogger.Info("Database connected and schema ready.")
	} else {
		zapLogger.Info("using in memory storage")

		s, err = storage.CreateMemoryStorage()
		if err != nil {
			panic(err)
		}
	}

	objects, err := objectstore.New(options.ObjectStoreDir, options.ObjectBaseURL)
	if err != nil {
		panic(err)
	}

	clickWorker := worker.NewClickWorker(zapLogger, s)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go clickWorker.FlushEvents(workerCtx)

	auth := service.NewAuth(options.JWTSecret)
	profiles := service.NewProfile(s, zapLogger)
	links := service.NewLinks(s, clickWorker.GetInChannel(), zapLogger)
	drops := service.NewDrops(s, objects, zapLogger)
	mfa := service.NewMFA(s, options.BaseHost, zapLogger)
	sessions := service.NewSessions(s, auth, zapLogger)
	billing := service.NewBilling(options.StripeKey, options.StripePriceID, options.BillingReturnURL, s, zapLogger)
	mailer := notify.NewMailer(options.MailAPIURL, options.MailAPIKey, zapLogger)
	deleter := service.NewDeletion(s, mfa, mailer, options.DeleteAccountEnabled, zapLogger)

	oauthConfig := &oauth2.Config{
		ClientID:     options.OAuthClientID,
		ClientSecret: options.OAuthClientSecret,
		RedirectURL:  options.OAuthRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}

	h := server.Handlers{
		Get:     handler.NewGet(profiles, links, drops, s, s, objects, zapLogger),
		Post:    handler.NewPost(profiles, links, drops, mfa, sessions, billing, zapLogger),
		Delete:  handler.NewDelete(links, drops, zapLogger),
		Account: handler.NewAccount(auth, deleter, zapLogger),
		Auth:    handler.NewAuthHandler(oauthConfig, userinfoURL, sessions, options.EnableHTTPS, zapLogger),
	}

	r := server.Init(zapLogger, auth, options.TrustedSubnet, h)

	if options.GRPCPort > 0 {
		ops := grpcserver.New(zapLogger, auth, options.GRPCPort)
		ops.SetServing("", true)
		defer ops.GracefulStop()
		go func() {
			if err := ops.Start(); err != nil {
				zapLogger.Error("gRPC server error", zap.Error(err))
			}
		}()
	}

	if options.EnableHTTPS {
		manager := &autocert.Manager{
			Cache:      autocert.DirCache("cache-dir"),
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(options.BaseHost, "www."+options.BaseHost),
		}
		srv := &http.Server{
			Addr:      ":443",
			Handler:   r,
			TLSConfig: manager.TLSConfig(),
		}
		zapLogger.Info("Server is running with TLS", zap.String("host", options.BaseHost))
		if err := srv.ListenAndServeTLS("", ""); err != nil {
			panic(err)
		}
	} else {
		zapLogger.Info("Server is running", zap.String("addr", options.Addr))
		if err := http.ListenAndServe(options.Addr, r); err != nil {
			panic(err)
		}
	}
}
