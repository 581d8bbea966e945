package xmlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/takotakot/xml_echo/common"
	"github.com/takotakot/xml_echo/transform"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	_ "github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/google/uuid"
	"github.com/googleapis/google-cloudevents-go/cloud/storagedata"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/encoding/protojson"
)

// FragmentSuffix is appended to the source object name to name the written
// fragment. Objects already carrying it are never processed again.
const FragmentSuffix = ".fragment.xml"

func init() {
	// Register CloudEvent functions with the Functions Framework
	functions.CloudEvent("HandleXMLObjectEvent", HandleXMLObjectEvent)
	functions.CloudEvent("HandleXMLMessageEvent", HandleXMLMessageEvent)
}

type MessagePublishedData struct {
	Message PubSubMessage
}

type PubSubMessage struct {
	ID              string
	Data            []byte `json:"data"`
	Attributes      map[string]string
	PublishTime     time.Time
	DeliveryAttempt *int
	OrderingKey     string
}

type EnvConfig struct {
	ProjectID      string
	DestBucketName string
	ResultTopicID  string
	DatasetID      string
	TableID        string
	Transform      transform.Config
}

func NewEnvConfig() (*EnvConfig, error) {
	config := EnvConfig{}

	err := common.LoadRequiredEnv(map[string]*string{
		"PROJECT_ID":       &config.ProjectID,
		"DEST_BUCKET_NAME": &config.DestBucketName,
		"RESULT_TOPIC_ID":  &config.ResultTopicID,
		"DATASET_ID":       &config.DatasetID,
		"TABLE_ID":         &config.TableID,
	})
	if err != nil {
		return nil, err
	}

	config.Transform, err = common.LoadTransformConfig()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// Destination says where results of EchoObject go.
type Destination struct {
	BucketName string
	DatasetID  string
	TableID    string
}

func HandleXMLObjectEvent(ctx context.Context, e event.Event) error {
	log.Printf("Event ID: %s", e.ID())
	log.Printf("Event Type: %s", e.Type())

	var eventData storagedata.StorageObjectData
	if err := protojson.Unmarshal(e.Data(), &eventData); err != nil {
		return fmt.Errorf("protojson.Unmarshal: %w", err)
	}

	log.Printf("Bucket: %s", eventData.GetBucket())
	log.Printf("File: %s", eventData.GetName())
	log.Printf("Content-Type: %s", eventData.GetContentType())

	return handleObject(ctx, eventData.GetBucket(), eventData.GetName())
}

func HandleXMLMessageEvent(ctx context.Context, e event.Event) error {
	var msg MessagePublishedData
	if err := e.DataAs(&msg); err != nil {
		return fmt.Errorf("event.DataAs: %w", err)
	}

	var fileInfo common.PubSubMessageData
	if err := json.Unmarshal(msg.Message.Data, &fileInfo); err != nil {
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	log.Printf("Message ID: %s", msg.Message.ID)
	return handleObject(ctx, fileInfo.Bucket, fileInfo.FilePath)
}

func handleObject(ctx context.Context, bucketName, objectName string) error {
	envConfig, err := NewEnvConfig()
	if err != nil {
		log.Printf("Failed to load EnvConfig: %v", err)
		return fmt.Errorf("EnvConfig: %w", err)
	}

	t, err := transform.New(envConfig.Transform)
	if err != nil {
		log.Printf("Failed to create transformer: %v", err)
		return fmt.Errorf("transform.New: %w", err)
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		log.Printf("Failed to create client: %v", err)
		return fmt.Errorf("storage.NewClient: %w", err)
	}
	defer storageClient.Close()

	bqClient, err := bigquery.NewClient(ctx, envConfig.ProjectID)
	if err != nil {
		log.Printf("Failed to create client: %v", err)
		return fmt.Errorf("bigquery.NewClient: %w", err)
	}
	defer bqClient.Close()

	pubsubClient, err := pubsub.NewClient(ctx, envConfig.ProjectID)
	if err != nil {
		log.Printf("Failed to create client: %v", err)
		return fmt.Errorf("pubsub.NewClient: %w", err)
	}
	defer pubsubClient.Close()

	send, stop := common.PubSubMessageSenderFactory(ctx, pubsubClient, envConfig.ResultTopicID)
	defer stop()

	dest := Destination{
		BucketName: envConfig.DestBucketName,
		DatasetID:  envConfig.DatasetID,
		TableID:    envConfig.TableID,
	}
	return EchoObject(ctx, &common.RealStorageClient{Client: storageClient}, &common.RealBigQueryClient{Client: bqClient}, t, bucketName, objectName, dest, send)
}

// FragmentObjectName names the object a fragment of srcPath is written to.
func FragmentObjectName(srcPath string) string {
	return srcPath + FragmentSuffix
}

// EchoObject transforms one XML object. The fragment is written to
// dest.BucketName, then its location is published and an audit row is
// recorded. A document the transformer rejects is only audited; the error is
// not returned so the event is not retried.
//
// Delivery is at least once. When publishing or auditing fails after the
// fragment was written, the returned error makes the event retry, which
// rewrites the same fragment, publishes again and inserts another audit row
// with a new run ID.
func EchoObject(ctx context.Context, client common.StorageClient, bq common.BigQueryClient, t *transform.Transformer, srcBucketName string, srcPath string, dest Destination, messageSender func(common.PubSubMessageData) error) error {
	if strings.HasSuffix(srcPath, FragmentSuffix) {
		log.Printf("Skipping fragment object: %s", srcPath)
		return nil
	}

	record := AuditRecord{
		RunID:     uuid.New().String(),
		SourceURI: "gs://" + srcBucketName + "/" + srcPath,
	}

	// ファイルの内容を読み込む
	data, err := common.ReadObject(ctx, client, srcBucketName, srcPath)
	if err != nil {
		log.Printf("Failed to read source object: %v", err)
		return fmt.Errorf("ReadObject: %w", err)
	}

	frag, err := t.TransformBytes(data)
	if err != nil {
		// 変換できない文書は監査ログのみ記録し、再試行しない
		log.Printf("Rejected %s: %v", record.SourceURI, err)
		record.Status = StatusFor(err)
		record.ErrorMessage = err.Error()
		return RecordAudit(ctx, bq, dest.DatasetID, dest.TableID, record)
	}

	// フラグメントを保存
	destPath := FragmentObjectName(srcPath)
	if err := common.WriteObject(ctx, client, dest.BucketName, destPath, "text/xml", []byte(frag.XML)); err != nil {
		log.Printf("Failed to write to destination bucket: %v", err)
		return fmt.Errorf("WriteObject: %w", err)
	}

	record.Status = StatusOK
	record.DestURI = "gs://" + dest.BucketName + "/" + destPath

	// フラグメントが正常に保存された後、Pub/Subメッセージと監査ログを並行して送信
	errorGroup, gctx := errgroup.WithContext(ctx)
	errorGroup.Go(func() error {
		return messageSender(common.PubSubMessageData{
			Bucket:   dest.BucketName,
			FilePath: destPath,
		})
	})
	errorGroup.Go(func() error {
		return RecordAudit(gctx, bq, dest.DatasetID, dest.TableID, record)
	})

	if err := errorGroup.Wait(); err != nil {
		log.Printf("Failed to publish or audit result: %v", err)
		return fmt.Errorf("publish or audit result: %w", err)
	}

	return nil
}

// StatusFor classifies a transform error for the audit table.
func StatusFor(err error) string {
	var (
		rootErr    *transform.UnexpectedRootElementError
		missingErr *transform.MissingFragmentError
	)
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, transform.ErrMalformedXML):
		return StatusMalformed
	case errors.As(err, &rootErr):
		return StatusUnexpectedRoot
	case errors.As(err, &missingErr):
		return StatusMissingFragment
	default:
		return StatusFailed
	}
}
