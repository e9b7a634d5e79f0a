package main

import (
	"context"
	"encoding/json"
	"log"

	"portfolioreport/cmd"
	"portfolioreport/internal/logger"
	"portfolioreport/internal/util"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	_ "time/tzdata"
)

type lambdaHandler struct {
	deps *cmd.Dependencies
}

// Handler runs one report per scheduled EventBridge invocation.
func (m lambdaHandler) Handler(ctx context.Context, event events.CloudWatchEvent) error {
	log := m.deps.Logger.With("eventID", event.ID)
	defer log.Sync()

	bytes, _ := json.Marshal(event)
	log.Infow("received scheduled event", "event", string(bytes))

	return m.deps.ReportApp.Run(logger.WithContext(ctx, log))
}

func main() {
	secrets, err := util.LoadSecrets()
	if err != nil {
		log.Fatal(err)
	}
	// only /tmp is writable inside lambda, and stderr already lands in cloudwatch
	secrets.Settings.LogFile = ""

	deps, err := cmd.InitializeDependencies(context.Background(), secrets)
	if err != nil {
		log.Fatal(err)
	}
	handler := lambdaHandler{
		deps: deps,
	}
	lambda.Start(handler.Handler)
}
