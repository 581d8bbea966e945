// Package apigateway serves the XML echo behind an API Gateway proxy
// integration on AWS Lambda.
package apigateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/takotakot/xml_echo/transform"
	"github.com/takotakot/xml_echo/xmlecho"
)

type Handler struct {
	Transformer *transform.Transformer
}

// Handle answers one proxy request. A body that is not acceptable XML is
// reported through the returned error, leaving the error response to the
// gateway.
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := request.Body
	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return events.APIGatewayProxyResponse{}, fmt.Errorf("base64 body: %w", err)
		}
		body = string(decoded)
	}

	resp, err := xmlecho.Handle(ctx, h.Transformer, xmlecho.Event{Body: body})
	if err != nil {
		log.Printf("Rejected request %s: %v", request.RequestContext.RequestID, err)
		return events.APIGatewayProxyResponse{}, err
	}

	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, nil
}
