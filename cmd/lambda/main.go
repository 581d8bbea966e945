package main

import (
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/takotakot/xml_echo/apigateway"
	"github.com/takotakot/xml_echo/common"
)

func main() {
	t, err := common.NewTransformerFromEnv()
	if err != nil {
		log.Fatalf("Failed to create transformer: %v", err)
	}

	h := &apigateway.Handler{Transformer: t}
	lambda.Start(h.Handle)
}
