package xmlecho

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/takotakot/xml_echo/common"
	"github.com/takotakot/xml_echo/transform"

	_ "github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
)

const (
	ContentType         = "text/xml"
	DefaultMaxBodyBytes = 1 << 20
)

func init() {
	// Register an HTTP function with the Functions Framework
	functions.HTTP("HandleXMLEcho", HandleXMLEcho)
}

// Event is the invocation event as delivered by the gateway, with any outer
// envelope already removed.
type Event struct {
	Body string `json:"body"`
}

type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

type EnvConfig struct {
	Transform    transform.Config
	MaxBodyBytes int64
}

func NewEnvConfig() (*EnvConfig, error) {
	transformConfig, err := common.LoadTransformConfig()
	if err != nil {
		return nil, err
	}

	config := EnvConfig{
		Transform:    transformConfig,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}

	if value := os.Getenv("MAX_BODY_BYTES"); value != "" {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MAX_BODY_BYTES must be a positive integer, got %q", value)
		}
		config.MaxBodyBytes = n
	}

	return &config, nil
}

// Handle transforms the event body. On failure the transformer's error is
// returned as is and no response is built.
func Handle(ctx context.Context, t *transform.Transformer, e Event) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	frag, err := t.Transform(e.Body)
	if err != nil {
		return Response{}, err
	}

	return Response{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type": ContentType,
		},
		Body: frag.XML,
	}, nil
}

// HandleXMLEcho is the HTTP entry point.
func HandleXMLEcho(w http.ResponseWriter, r *http.Request) {
	envConfig, err := NewEnvConfig()
	if err != nil {
		log.Printf("Failed to load EnvConfig: %v", err)
		http.Error(w, "server misconfigured", http.StatusInternalServerError)
		return
	}

	t, err := transform.New(envConfig.Transform)
	if err != nil {
		log.Printf("Failed to create transformer: %v", err)
		http.Error(w, "server misconfigured", http.StatusInternalServerError)
		return
	}

	Serve(w, r, t, envConfig.MaxBodyBytes)
}

// Serve answers one request with t. Bodies larger than maxBodyBytes are
// rejected before parsing.
func Serve(w http.ResponseWriter, r *http.Request, t *transform.Transformer, maxBodyBytes int64) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			http.Error(w, fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		log.Printf("Failed to read request body: %v", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	resp, err := Handle(r.Context(), t, Event{Body: string(body)})
	if err != nil {
		status := StatusForError(err)
		if status == http.StatusInternalServerError {
			log.Printf("Failed to transform request: %v", err)
		}
		http.Error(w, err.Error(), status)
		return
	}

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.WriteString(w, resp.Body); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// StatusForError maps a Handle error to the HTTP status returned to the
// caller.
func StatusForError(err error) int {
	var (
		rootErr    *transform.UnexpectedRootElementError
		missingErr *transform.MissingFragmentError
	)
	switch {
	case errors.Is(err, transform.ErrMalformedXML):
		return http.StatusBadRequest
	case errors.As(err, &rootErr), errors.As(err, &missingErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
