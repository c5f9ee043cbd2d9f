// Command vaultenv-lambda runs the request handler as an AWS Lambda function.
// The event is a handler.Request and the result a handler.Response.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/mscno/vaultenv"
	"github.com/mscno/vaultenv/pkg/config"
	"github.com/mscno/vaultenv/pkg/handler"
	"github.com/mscno/vaultenv/pkg/logging"
	"github.com/mscno/vaultenv/pkg/store"
)

func main() {
	cfg, err := config.Load(nil)
	logger := logging.New(cfg.Log.Level, "json", os.Stderr)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// The store is opened once per container and reused across invocations.
	s, _, err := store.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to open secret store", "error", err,
			"config_missing", errors.Is(err, vaultenv.ErrConfigMissing),
			"auth_failed", errors.Is(err, vaultenv.ErrAuthFailed))
		os.Exit(1)
	}
	h := handler.New(vaultenv.NewMutator(s, logger), logger)

	lambda.Start(func(ctx context.Context, req handler.Request) (handler.Response, error) {
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			ctx = handler.WithRequestID(ctx, lc.AwsRequestID)
		}
		return h.Handle(ctx, req), nil
	})
}
